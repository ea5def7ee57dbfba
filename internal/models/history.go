package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionSnapshot is a trend point: a timestamped copy of a position's VR
// state. At most one snapshot is retained per position per calendar day.
type PositionSnapshot struct {
	ID                int64           `json:"id"`
	PositionID        int64           `json:"position_id"`
	Timestamp         time.Time       `json:"timestamp"`
	V                 decimal.Decimal `json:"v_value"`
	G                 decimal.Decimal `json:"g_value"`
	CurrentPrice      decimal.Decimal `json:"current_price"`
	Quantity          decimal.Decimal `json:"quantity"`
	Pool              decimal.Decimal `json:"pool"`
	InvestedPrincipal decimal.Decimal `json:"invested_principal"`
}

// DailyAssetHistory is the portfolio-wide principal and current value for one
// calendar date, in the base currency. Upserted, so at most one row per date.
type DailyAssetHistory struct {
	Date              string          `json:"date"` // YYYY-MM-DD
	TotalPrincipal    decimal.Decimal `json:"total_principal"`
	TotalCurrentValue decimal.Decimal `json:"total_current_value"`
}

// AssetStatus is a derived portfolio summary.
type AssetStatus struct {
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TotalCurrent   decimal.Decimal `json:"total_current"`
	TotalROI       decimal.Decimal `json:"total_roi_pct"`
}
