package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents a single instrument tracked under value-rebalancing
// management. V is the pivot valuation the buy/sell band is drawn around and
// G is the band half-width in percent (G=10 means a ±10% band).
type Position struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Currency string `json:"currency"`

	V decimal.Decimal `json:"v_value"`
	G decimal.Decimal `json:"g_value"`

	Pool         decimal.Decimal `json:"pool"`
	Quantity     decimal.Decimal `json:"quantity"`
	CurrentPrice decimal.Decimal `json:"current_price"`

	InvestedPrincipal decimal.Decimal `json:"invested_principal"`
	StartDate         time.Time       `json:"start_date"`

	// VR baseline captured at the most recent pivot recalculation. Unset
	// means the position predates baseline tracking; calculations fall back
	// to the live pool/quantity.
	VRPool         decimal.NullDecimal `json:"vr_pool"`
	VRQuantity     decimal.NullDecimal `json:"vr_quantity"`
	NetTradeAmount decimal.Decimal     `json:"net_trade_amount"`

	IsVR                bool            `json:"is_vr"`
	DefaultRecalcAmount decimal.Decimal `json:"default_recalc_amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Valuation returns the market value of the held quantity.
func (p *Position) Valuation() decimal.Decimal {
	return p.CurrentPrice.Mul(p.Quantity)
}

// TotalValue returns valuation plus the uninvested pool.
func (p *Position) TotalValue() decimal.Decimal {
	return p.Valuation().Add(p.Pool)
}
