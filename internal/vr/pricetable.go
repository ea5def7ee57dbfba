package vr

import "github.com/shopspring/decimal"

// safeLimitRatio is the conservative share of the baseline pool a sequence of
// band buys may consume before rows get flagged. The absolute ceiling for
// whether a buy row is shown at all is the full live pool.
var safeLimitRatio = d("0.25")

// TableInput carries the position state the price table is derived from.
// VRPool/VRQuantity are the baseline captured at the last pivot
// recalculation; when unset the live pool (plus net trade cash flow) and
// live quantity stand in for them.
type TableInput struct {
	Quantity       decimal.Decimal
	Pool           decimal.Decimal
	Bands          Bands
	Range          int
	Ticker         string
	Currency       string
	VRPool         decimal.NullDecimal
	VRQuantity     decimal.NullDecimal
	NetTradeAmount decimal.Decimal
}

// TableRow is one step of the price table: the tick-adjusted sell price at
// quantity−step and buy price at quantity+step. A zero price means that side
// is not executable at this step. OverSafeLimit marks buy rows that exceed
// the conservative spending threshold while still fitting the live pool.
type TableRow struct {
	Step          int64           `json:"step"`
	SellPrice     decimal.Decimal `json:"sell_price"`
	BuyPrice      decimal.Decimal `json:"buy_price"`
	BuyAmount     decimal.Decimal `json:"buy_amount"`
	OverSafeLimit bool            `json:"over_safe_limit"`
}

// PriceTable produces the executable-price rows for steps 1..Range. Rows stop
// at the first step where neither a sell nor a buy is defined.
func PriceTable(in TableInput) []TableRow {
	market := MarketOf(in.Ticker, in.Currency)

	// The warning threshold is anchored to the VR baseline, not the live
	// pool, so scanning the table does not move the threshold.
	basePool := in.Pool.Add(in.NetTradeAmount)
	if in.VRPool.Valid {
		basePool = in.VRPool.Decimal
	}
	baseQty := in.Quantity
	if in.VRQuantity.Valid {
		baseQty = in.VRQuantity.Decimal
	}

	hasSafeLimit := false
	var safeQty decimal.Decimal
	refPrice := in.Bands.Low.Div(baseQty.Add(one))
	if refPrice.IsPositive() {
		safeQty = basePool.Mul(safeLimitRatio).Div(refPrice).Floor()
		hasSafeLimit = true
	}
	addedSinceBaseline := in.Quantity.Sub(baseQty)
	if addedSinceBaseline.IsNegative() {
		addedSinceBaseline = decimal.Zero
	}

	var rows []TableRow
	for i := 1; i <= in.Range; i++ {
		step := decimal.NewFromInt(int64(i))
		row := TableRow{Step: int64(i)}

		if sellQty := in.Quantity.Sub(step); sellQty.IsPositive() {
			raw := in.Bands.High.Div(sellQty)
			row.SellPrice = AdjustPrice(raw, false, market)
		}

		buyQty := in.Quantity.Add(step)
		raw := in.Bands.Low.Div(buyQty)
		adjusted := AdjustPrice(raw, true, market)
		if adjusted.IsPositive() {
			amount := adjusted.Mul(step)
			if amount.LessThanOrEqual(in.Pool) {
				row.BuyPrice = adjusted
				row.BuyAmount = amount
				if hasSafeLimit && addedSinceBaseline.Add(step).GreaterThan(safeQty) {
					row.OverSafeLimit = true
				}
			}
		}

		if row.SellPrice.IsZero() && row.BuyPrice.IsZero() {
			break
		}
		rows = append(rows, row)
	}
	return rows
}
