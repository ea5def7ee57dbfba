package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BackupVersion is the current backup interchange format version.
const BackupVersion = 1

// BackupDocument is the full-database interchange format. Import is a
// wholesale replace: all four stores are cleared before the arrays are
// inserted. Optional fields serialize as JSON null; documents produced by
// older exports encode "unset" as -1 and are normalized on import.
type BackupDocument struct {
	Version      int                 `json:"version"`
	Timestamp    int64               `json:"timestamp"` // unix millis
	Stocks       []Position          `json:"stocks"`
	Transactions []LedgerEntry       `json:"transactions"`
	DailyHistory []DailyAssetHistory `json:"dailyHistory"`
	StockHistory []PositionSnapshot  `json:"stockHistory"`
}

// NewBackupDocument assembles a versioned document stamped with the current
// time.
func NewBackupDocument(stocks []Position, entries []LedgerEntry, daily []DailyAssetHistory, snapshots []PositionSnapshot) *BackupDocument {
	return &BackupDocument{
		Version:      BackupVersion,
		Timestamp:    time.Now().UnixMilli(),
		Stocks:       stocks,
		Transactions: entries,
		DailyHistory: daily,
		StockHistory: snapshots,
	}
}

// NormalizeLegacySentinels rewrites -1 "unset" markers from older export
// formats into proper null optionals.
func (d *BackupDocument) NormalizeLegacySentinels() {
	for i := range d.Stocks {
		d.Stocks[i].VRPool = clearNegativeSentinel(d.Stocks[i].VRPool)
		d.Stocks[i].VRQuantity = clearNegativeSentinel(d.Stocks[i].VRQuantity)
	}
	for i := range d.Transactions {
		tx := &d.Transactions[i]
		// Quantity is the revertibility marker: a -1 there means the whole
		// reversal snapshot predates tracking. Pool and principal can be
		// legitimately negative, so they are only cleared alongside it.
		if tx.PreviousQuantity.Valid && tx.PreviousQuantity.Decimal.IsNegative() {
			tx.PreviousPool = decimal.NullDecimal{}
			tx.PreviousQuantity = decimal.NullDecimal{}
			tx.PreviousPrincipal = decimal.NullDecimal{}
		}
		tx.PreviousVRPool = clearNegativeSentinel(tx.PreviousVRPool)
		tx.PreviousVRQuantity = clearNegativeSentinel(tx.PreviousVRQuantity)
	}
}

func clearNegativeSentinel(v decimal.NullDecimal) decimal.NullDecimal {
	if v.Valid && v.Decimal.IsNegative() {
		return decimal.NullDecimal{}
	}
	return v
}
