// Package ledger implements the reversible transaction ledger: every
// state-changing operation on a position appends exactly one entry capturing
// the pre-mutation state, and only the most recent entry of a position can be
// reverted.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/metrics"
	"github.com/valueband/vr-service/internal/models"
	"github.com/valueband/vr-service/internal/vr"
)

// Store is the persistence surface the ledger needs.
type Store interface {
	GetPosition(id int64) (*models.Position, error)
	UpdatePosition(p *models.Position) error
	AppendEntry(e *models.LedgerEntry) error
	GetEntry(id int64) (*models.LedgerEntry, error)
	LatestEntry(positionID int64) (*models.LedgerEntry, error)
	DeleteEntry(id int64) error
}

// SnapshotRecorder persists trend points after each mutation.
type SnapshotRecorder interface {
	RecordPositionSnapshot(p *models.Position) error
	RecordDailyAggregate(ctx context.Context) error
}

// EventPublisher announces applied mutations to downstream consumers.
type EventPublisher interface {
	PublishMutation(ctx context.Context, p *models.Position, e *models.LedgerEntry) error
}

// Service applies ledger operations. Mutations are serialized per position;
// reads of the calculation engine stay lock-free since they never touch the
// ledger.
type Service struct {
	store     Store
	recorder  SnapshotRecorder
	publisher EventPublisher
	locks     *positionLocks
	log       zerolog.Logger
}

// New creates a ledger service. recorder and publisher may be nil (snapshots
// or events disabled).
func New(store Store, recorder SnapshotRecorder, publisher EventPublisher, log zerolog.Logger) *Service {
	return &Service{
		store:     store,
		recorder:  recorder,
		publisher: publisher,
		locks:     newPositionLocks(),
		log:       log.With().Str("component", "ledger").Logger(),
	}
}

// Trade applies a BUY or SELL at the given price and quantity. Trades move
// pool and quantity, never principal. A SELL larger than current holdings is
// rejected before anything is written.
func (s *Service) Trade(ctx context.Context, positionID int64, side models.EntryType, price, quantity decimal.Decimal) (*models.Position, error) {
	if side != models.EntryBuy && side != models.EntrySell {
		return nil, fmt.Errorf("%w: side must be BUY or SELL, got %q", ErrInvalidInput, side)
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}

	unlock := s.locks.acquire(positionID)
	defer unlock()

	p, err := s.store.GetPosition(positionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, positionID)
	}
	if side == models.EntrySell && quantity.GreaterThan(p.Quantity) {
		return nil, fmt.Errorf("%w: sell quantity %s exceeds holdings %s", ErrInvalidInput, quantity, p.Quantity)
	}

	amount := price.Mul(quantity)
	entry := s.newEntry(p, side)
	entry.Price = price
	entry.Quantity = quantity
	entry.Amount = amount

	if side == models.EntryBuy {
		p.Pool = p.Pool.Sub(amount)
		p.Quantity = p.Quantity.Add(quantity)
		p.NetTradeAmount = p.NetTradeAmount.Add(amount)
	} else {
		p.Pool = p.Pool.Add(amount)
		p.Quantity = p.Quantity.Sub(quantity)
		p.NetTradeAmount = p.NetTradeAmount.Sub(amount)
	}

	if err := s.commit(ctx, p, entry); err != nil {
		return nil, err
	}
	return p, nil
}

// AdjustPool deposits into or withdraws from the position's cash pool.
// Principal follows only when applyToPrincipal is set; otherwise the entry is
// recorded as the POOL_ONLY variant.
func (s *Service) AdjustPool(ctx context.Context, positionID int64, amount decimal.Decimal, isDeposit, applyToPrincipal bool) (*models.Position, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	unlock := s.locks.acquire(positionID)
	defer unlock()

	p, err := s.store.GetPosition(positionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, positionID)
	}

	entry := s.newEntry(p, poolEntryType(isDeposit, applyToPrincipal))
	entry.Amount = amount

	signed := amount
	if !isDeposit {
		signed = amount.Neg()
	}
	p.Pool = p.Pool.Add(signed)
	if applyToPrincipal {
		p.InvestedPrincipal = p.InvestedPrincipal.Add(signed)
	}

	if err := s.commit(ctx, p, entry); err != nil {
		return nil, err
	}
	return p, nil
}

func poolEntryType(isDeposit, applyToPrincipal bool) models.EntryType {
	switch {
	case isDeposit && applyToPrincipal:
		return models.EntryDeposit
	case isDeposit:
		return models.EntryDepositPoolOnly
	case applyToPrincipal:
		return models.EntryWithdraw
	default:
		return models.EntryWithdrawPoolOnly
	}
}

// RecalcPivot recalculates the pivot valuation, optionally combined with a
// deposit or withdrawal: V' = V + pool/G + deposit, where pool is the
// reserve before the deposit is applied. The pool itself carries forward
// (plus the deposit) and the VR baseline is re-anchored to the new state.
// When a deposit amount is given it is recorded as its own entry first, so
// the pool adjustment and the recalculation are each independently
// revertible. G=0 is a defined no-op.
func (s *Service) RecalcPivot(ctx context.Context, positionID int64, amount decimal.Decimal, isDeposit bool) (*models.Position, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}

	unlock := s.locks.acquire(positionID)
	defer unlock()

	p, err := s.store.GetPosition(positionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, positionID)
	}
	if p.G.IsZero() {
		s.log.Warn().Int64("position_id", positionID).Msg("pivot recalculation skipped: gradient is zero")
		return p, nil
	}

	deposit := amount
	if !isDeposit {
		deposit = amount.Neg()
	}
	poolBefore := p.Pool

	if amount.IsPositive() {
		depositEntry := s.newEntry(p, poolEntryType(isDeposit, true))
		depositEntry.Amount = amount
		if err := s.store.AppendEntry(depositEntry); err != nil {
			return nil, fmt.Errorf("failed to append deposit entry: %w", err)
		}
		metrics.MutationsTotal.WithLabelValues(string(depositEntry.Type)).Inc()
		p.Pool = p.Pool.Add(deposit)
		p.InvestedPrincipal = p.InvestedPrincipal.Add(deposit)
	}

	newV := vr.NextPivot(p.V, poolBefore, p.G, deposit)

	recalcEntry := s.newEntry(p, models.EntryRecalcV)
	recalcEntry.Price = p.CurrentPrice
	recalcEntry.Amount = poolBefore
	recalcEntry.NewV = decimal.NewNullDecimal(newV)

	p.V = newV
	p.VRPool = decimal.NewNullDecimal(p.Pool)
	p.VRQuantity = decimal.NewNullDecimal(p.Quantity)
	p.NetTradeAmount = decimal.Zero

	if err := s.commit(ctx, p, recalcEntry); err != nil {
		return nil, err
	}
	return p, nil
}

// ManualEditInput is the set of fields a manual edit may overwrite. The pivot
// valuation V is never editable through this path.
type ManualEditInput struct {
	Name                string
	G                   decimal.Decimal
	Pool                decimal.Decimal
	Quantity            decimal.Decimal
	InvestedPrincipal   decimal.Decimal
	StartDate           time.Time
	IsVR                bool
	DefaultRecalcAmount decimal.Decimal
}

// ManualEdit overwrites position fields verbatim. The appended MANUAL_EDIT
// entry carries no reversal snapshot: the edit itself can never be reverted,
// and it is meant to close the book on everything before it.
func (s *Service) ManualEdit(ctx context.Context, positionID int64, edit ManualEditInput) (*models.Position, error) {
	if edit.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	unlock := s.locks.acquire(positionID)
	defer unlock()

	p, err := s.store.GetPosition(positionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, positionID)
	}

	entry := &models.LedgerEntry{
		PositionID: p.ID,
		Type:       models.EntryManualEdit,
		Timestamp:  time.Now(),
		Price:      decimal.Zero,
		Quantity:   decimal.Zero,
		Amount:     decimal.Zero,
	}

	p.Name = edit.Name
	p.G = edit.G
	p.Pool = edit.Pool
	p.Quantity = edit.Quantity
	p.InvestedPrincipal = edit.InvestedPrincipal
	p.StartDate = edit.StartDate
	p.IsVR = edit.IsVR
	p.DefaultRecalcAmount = edit.DefaultRecalcAmount

	if err := s.commit(ctx, p, entry); err != nil {
		return nil, err
	}
	return p, nil
}

// RevertLatest deletes the given entry and restores the position to the
// captured pre-state. Permitted only when the entry is revertible and is the
// most recently appended entry for the position; this is a single-level undo.
// A MANUAL_EDIT entry is never revertible, which walls off everything before
// it for as long as it remains the latest entry.
func (s *Service) RevertLatest(ctx context.Context, positionID, entryID int64) (*models.Position, error) {
	unlock := s.locks.acquire(positionID)
	defer unlock()

	p, err := s.store.GetPosition(positionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, positionID)
	}

	entry, err := s.store.GetEntry(entryID)
	if err != nil {
		return nil, s.denyRevert("entry %d not found", entryID)
	}
	if entry.PositionID != positionID {
		return nil, s.denyRevert("entry %d belongs to another position", entryID)
	}
	if !entry.Revertible() {
		return nil, s.denyRevert("entry %d has no reversal snapshot", entryID)
	}

	latest, err := s.store.LatestEntry(positionID)
	if err != nil {
		return nil, s.denyRevert("no latest entry for position %d: %v", positionID, err)
	}
	if latest == nil || latest.ID != entry.ID {
		return nil, s.denyRevert("entry %d is not the latest for position %d", entryID, positionID)
	}

	if err := s.store.DeleteEntry(entry.ID); err != nil {
		return nil, fmt.Errorf("failed to delete entry: %w", err)
	}

	p.Pool = entry.PreviousPool.Decimal
	p.Quantity = entry.PreviousQuantity.Decimal
	p.InvestedPrincipal = entry.PreviousPrincipal.Decimal
	if entry.PreviousV.Valid {
		p.V = entry.PreviousV.Decimal
	}
	p.VRPool = entry.PreviousVRPool
	p.VRQuantity = entry.PreviousVRQuantity
	if entry.PreviousNetTradeAmount.Valid {
		p.NetTradeAmount = entry.PreviousNetTradeAmount.Decimal
	}

	if err := s.store.UpdatePosition(p); err != nil {
		return nil, fmt.Errorf("failed to update position: %w", err)
	}
	metrics.RevertsTotal.WithLabelValues("ok").Inc()
	s.afterMutation(ctx, p, entry)

	s.log.Info().
		Int64("position_id", positionID).
		Int64("entry_id", entryID).
		Str("type", string(entry.Type)).
		Msg("Reverted latest ledger entry")
	return p, nil
}

func (s *Service) denyRevert(format string, args ...any) error {
	metrics.RevertsTotal.WithLabelValues("denied").Inc()
	return fmt.Errorf("%w: %s", ErrRevertDenied, fmt.Sprintf(format, args...))
}

// newEntry builds an entry of the given type carrying the full reversal
// snapshot of p's current state.
func (s *Service) newEntry(p *models.Position, t models.EntryType) *models.LedgerEntry {
	return &models.LedgerEntry{
		PositionID:             p.ID,
		Type:                   t,
		Timestamp:              time.Now(),
		Price:                  decimal.Zero,
		Quantity:               decimal.Zero,
		Amount:                 decimal.Zero,
		PreviousV:              decimal.NewNullDecimal(p.V),
		NewV:                   decimal.NewNullDecimal(p.V),
		PreviousPool:           decimal.NewNullDecimal(p.Pool),
		PreviousQuantity:       decimal.NewNullDecimal(p.Quantity),
		PreviousPrincipal:      decimal.NewNullDecimal(p.InvestedPrincipal),
		PreviousVRPool:         p.VRPool,
		PreviousVRQuantity:     p.VRQuantity,
		PreviousNetTradeAmount: decimal.NewNullDecimal(p.NetTradeAmount),
	}
}

// commit appends the entry, persists the new position state, and runs the
// post-mutation hooks.
func (s *Service) commit(ctx context.Context, p *models.Position, entry *models.LedgerEntry) error {
	if err := s.store.AppendEntry(entry); err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	if err := s.store.UpdatePosition(p); err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	metrics.MutationsTotal.WithLabelValues(string(entry.Type)).Inc()
	s.afterMutation(ctx, p, entry)
	return nil
}

// afterMutation records trend points and publishes the mutation event.
// Failures here are logged and never fail the mutation itself.
func (s *Service) afterMutation(ctx context.Context, p *models.Position, entry *models.LedgerEntry) {
	if s.recorder != nil {
		if err := s.recorder.RecordPositionSnapshot(p); err != nil {
			s.log.Error().Err(err).Int64("position_id", p.ID).Msg("Failed to record position snapshot")
		}
		if err := s.recorder.RecordDailyAggregate(ctx); err != nil {
			s.log.Error().Err(err).Msg("Failed to record daily aggregate")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishMutation(ctx, p, entry); err != nil {
			s.log.Error().Err(err).Int64("position_id", p.ID).Msg("Failed to publish mutation event")
		}
	}
}
