package ledger

import "sync"

// positionLocks serializes mutations per position. Operations on different
// positions proceed in parallel; two mutators of the same position never
// interleave between reading pre-state and writing the new state.
type positionLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newPositionLocks() *positionLocks {
	return &positionLocks{locks: make(map[int64]*sync.Mutex)}
}

// acquire locks the mutex for a position and returns its release func.
func (p *positionLocks) acquire(positionID int64) func() {
	p.mu.Lock()
	l, ok := p.locks[positionID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[positionID] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
