package vr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kospiInput() TableInput {
	return TableInput{
		Quantity: d("10"),
		Pool:     d("1000000"),
		Bands:    ComputeBands(d("1000000"), d("10")),
		Range:    30,
		Ticker:   "005930.KS",
		Currency: "KRW",
	}
}

func TestPriceTable_TickAdjustedRows(t *testing.T) {
	rows := PriceTable(kospiInput())
	require.NotEmpty(t, rows)

	// Step 1: sell at quantity 9 -> 1,100,000/9 = 122,222.2 floored to the
	// 500-won tick; buy at quantity 11 -> 900,000/11 = 81,818.2 ceiled to
	// the 100-won tick.
	assert.EqualValues(t, 1, rows[0].Step)
	assert.True(t, rows[0].SellPrice.Equal(d("122000")), "sell=%s", rows[0].SellPrice)
	assert.True(t, rows[0].BuyPrice.Equal(d("81900")), "buy=%s", rows[0].BuyPrice)
	assert.True(t, rows[0].BuyAmount.Equal(d("81900")))
}

func TestPriceTable_BuyOmittedOverPoolCeiling(t *testing.T) {
	in := kospiInput()
	in.Pool = d("100000")
	rows := PriceTable(in)
	require.True(t, len(rows) >= 2)

	// Step 1 costs 81,900 and fits. Step 2 buys two units at 75,000 for
	// 150,000 total, over the 100,000 pool: sell side only.
	assert.False(t, rows[0].BuyPrice.IsZero())
	assert.True(t, rows[1].BuyPrice.IsZero())
	assert.True(t, rows[1].BuyAmount.IsZero())
	assert.False(t, rows[1].SellPrice.IsZero())
}

func TestPriceTable_OverSafeLimitFlagUsesBaseline(t *testing.T) {
	in := kospiInput()
	// Baseline pool 400,000: a quarter of it is 100,000, and the reference buy
	// price 900,000/11 affords exactly one unit before the warning.
	in.VRPool = decimal.NewNullDecimal(d("400000"))
	in.VRQuantity = decimal.NewNullDecimal(d("10"))
	rows := PriceTable(in)
	require.True(t, len(rows) >= 2)

	assert.False(t, rows[0].OverSafeLimit)
	assert.False(t, rows[0].BuyPrice.IsZero(), "warning must not hide the row")
	assert.True(t, rows[1].OverSafeLimit)
	assert.False(t, rows[1].BuyPrice.IsZero())
}

func TestPriceTable_UnitsAddedSinceBaselineCountAgainstLimit(t *testing.T) {
	in := kospiInput()
	in.VRPool = decimal.NewNullDecimal(d("400000"))
	in.VRQuantity = decimal.NewNullDecimal(d("9"))
	// One unit already bought since the baseline, so step 1 alone reaches
	// the safe quantity.
	rows := PriceTable(in)
	require.NotEmpty(t, rows)
	assert.True(t, rows[0].OverSafeLimit)
}

func TestPriceTable_BaselineFallsBackToLiveState(t *testing.T) {
	in := kospiInput()
	in.Pool = d("90000")
	in.NetTradeAmount = d("310000")
	// No stored baseline: pool-for-limit = pool + netTradeAmount = 400,000,
	// matching the explicit-baseline scenario above.
	rows := PriceTable(in)
	require.NotEmpty(t, rows)
	assert.False(t, rows[0].OverSafeLimit)
	// Step 1 is the only affordable buy out of the 90,000 live pool anyway.
	assert.False(t, rows[0].BuyPrice.IsZero())
}

func TestPriceTable_StopsWhenBothSidesUndefined(t *testing.T) {
	in := kospiInput()
	in.Quantity = d("2")
	in.Pool = decimal.Zero
	rows := PriceTable(in)
	// Only step 1 leaves positive quantity to sell, and no pool means no
	// buys at all.
	require.Len(t, rows, 1)
	assert.False(t, rows[0].SellPrice.IsZero())
	assert.True(t, rows[0].BuyPrice.IsZero())
}

func TestPriceTable_FractionalQuantity(t *testing.T) {
	in := TableInput{
		Quantity: d("0.5"),
		Pool:     d("10000"),
		Bands:    ComputeBands(d("1000"), d("10")),
		Range:    5,
		Ticker:   "AAPL",
		Currency: "USD",
	}
	rows := PriceTable(in)
	require.Len(t, rows, 5)
	// No sell side below one whole step of holdings.
	for _, row := range rows {
		assert.True(t, row.SellPrice.IsZero())
		assert.False(t, row.BuyPrice.IsZero())
	}
}
