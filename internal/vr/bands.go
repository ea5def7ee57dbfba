// Package vr implements the value-rebalancing calculation engine: valuation
// bands around a pivot, buy/sell order guidance, pivot recalculation, and the
// quantity-indexed table of executable prices. All functions are pure and
// safe for concurrent use.
package vr

import "github.com/shopspring/decimal"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Bands is the valuation band drawn around a pivot V with half-width G%.
type Bands struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// Action is the recommended order side.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// OrderGuide is the recommended action and quantity to bring the valuation
// back inside the band.
type OrderGuide struct {
	Action   Action          `json:"action"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ComputeBands returns the low/high valuation band for pivot v and gradient g
// (percent): low = v·(1−g/100), high = v·(1+g/100).
func ComputeBands(v, g decimal.Decimal) Bands {
	ratio := g.Div(hundred)
	return Bands{
		Low:  v.Mul(one.Sub(ratio)),
		High: v.Mul(one.Add(ratio)),
	}
}

// ComputeOrder recommends an order from the current valuation and price.
// A valuation sitting exactly on a band edge holds; only strict excursions
// trigger an order. A non-positive price is a defined no-op (HOLD).
func ComputeOrder(valuation, price decimal.Decimal, bands Bands) OrderGuide {
	hold := OrderGuide{Action: ActionHold, Quantity: decimal.Zero}
	if !price.IsPositive() {
		return hold
	}
	if valuation.LessThanOrEqual(bands.Low) {
		diff := bands.Low.Sub(valuation)
		if !diff.IsPositive() {
			return hold
		}
		return OrderGuide{Action: ActionBuy, Quantity: diff.Div(price)}
	}
	if valuation.GreaterThanOrEqual(bands.High) {
		diff := valuation.Sub(bands.High)
		if !diff.IsPositive() {
			return hold
		}
		return OrderGuide{Action: ActionSell, Quantity: diff.Div(price)}
	}
	return hold
}

// NextPivot computes the recalculated pivot valuation:
//
//	V' = V + pool/G + deposit
//
// G is the raw percent number (pool/10 for G=10, not pool/0.10); that is the
// intended VR formula, not a unit bug. G=0 leaves the pivot unchanged.
func NextPivot(v, pool, g, deposit decimal.Decimal) decimal.Decimal {
	if g.IsZero() {
		return v
	}
	return v.Add(pool.Div(g)).Add(deposit)
}
