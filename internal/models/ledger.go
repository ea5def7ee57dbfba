package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType identifies the kind of mutation a ledger entry records.
type EntryType string

const (
	EntryBuy              EntryType = "BUY"
	EntrySell             EntryType = "SELL"
	EntryDeposit          EntryType = "DEPOSIT"
	EntryDepositPoolOnly  EntryType = "DEPOSIT_POOL_ONLY"
	EntryWithdraw         EntryType = "WITHDRAW"
	EntryWithdrawPoolOnly EntryType = "WITHDRAW_POOL_ONLY"
	EntryRecalcV          EntryType = "RECALC_V"
	EntryManualEdit       EntryType = "MANUAL_EDIT"
)

// IsValid reports whether t is one of the known entry types.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryBuy, EntrySell, EntryDeposit, EntryDepositPoolOnly,
		EntryWithdraw, EntryWithdrawPoolOnly, EntryRecalcV, EntryManualEdit:
		return true
	}
	return false
}

// LedgerEntry records one state-changing operation on a position together
// with a snapshot of the pre-mutation state. Entries are immutable; the only
// delete path is reverting the most recent entry of a position.
type LedgerEntry struct {
	ID         int64     `json:"id"`
	PositionID int64     `json:"position_id"`
	Type       EntryType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`

	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Amount   decimal.Decimal `json:"amount"`

	PreviousV decimal.NullDecimal `json:"previous_v"`
	NewV      decimal.NullDecimal `json:"new_v"`

	// Reversal snapshot. Unset fields mean the entry cannot be reverted:
	// either it predates reversal tracking or it is a MANUAL_EDIT, which is
	// never revertible.
	PreviousPool           decimal.NullDecimal `json:"previous_pool"`
	PreviousQuantity       decimal.NullDecimal `json:"previous_quantity"`
	PreviousPrincipal      decimal.NullDecimal `json:"previous_principal"`
	PreviousVRPool         decimal.NullDecimal `json:"previous_vr_pool"`
	PreviousVRQuantity     decimal.NullDecimal `json:"previous_vr_quantity"`
	PreviousNetTradeAmount decimal.NullDecimal `json:"previous_net_trade_amount"`
}

// Revertible reports whether the entry carries enough pre-state to be
// reverted. Quantity can never legitimately be unset for a revertible entry,
// so it alone decides.
func (e *LedgerEntry) Revertible() bool {
	return e.PreviousQuantity.Valid
}
