package ledger

import "errors"

var (
	// ErrInvalidInput rejects an operation before any ledger entry is
	// written: non-positive price/quantity/amount or an oversell.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRevertDenied is returned when the referenced entry is missing, not
	// revertible, or not the most recent entry for its position. Ledger and
	// position state are left unchanged.
	ErrRevertDenied = errors.New("revert denied")

	// ErrNotFound is returned when the position does not exist.
	ErrNotFound = errors.New("position not found")
)
