package vr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBands(t *testing.T) {
	bands := ComputeBands(d("1000"), d("10"))
	assert.True(t, bands.Low.Equal(d("900")), "low=%s", bands.Low)
	assert.True(t, bands.High.Equal(d("1100")), "high=%s", bands.High)
}

func TestComputeBands_LowBelowPivotBelowHigh(t *testing.T) {
	for _, g := range []string{"1", "5", "10", "25", "50", "99"} {
		v := d("123456.78")
		bands := ComputeBands(v, d(g))
		assert.True(t, bands.Low.LessThan(v), "g=%s", g)
		assert.True(t, bands.High.GreaterThan(v), "g=%s", g)
	}
}

func TestComputeOrder_HoldOnBandEdge(t *testing.T) {
	bands := ComputeBands(d("1000"), d("10"))
	price := d("10")

	guide := ComputeOrder(d("900"), price, bands)
	assert.Equal(t, ActionHold, guide.Action)
	assert.True(t, guide.Quantity.IsZero())

	guide = ComputeOrder(d("1100"), price, bands)
	assert.Equal(t, ActionHold, guide.Action)
}

func TestComputeOrder_BuyBelowBand(t *testing.T) {
	bands := ComputeBands(d("1000"), d("10"))
	guide := ComputeOrder(d("899"), d("10"), bands)
	require.Equal(t, ActionBuy, guide.Action)
	// (900-899)/10
	assert.True(t, guide.Quantity.Equal(d("0.1")), "quantity=%s", guide.Quantity)
}

func TestComputeOrder_SellAboveBand(t *testing.T) {
	bands := ComputeBands(d("1000"), d("10"))
	guide := ComputeOrder(d("1150"), d("25"), bands)
	require.Equal(t, ActionSell, guide.Action)
	// (1150-1100)/25
	assert.True(t, guide.Quantity.Equal(d("2")), "quantity=%s", guide.Quantity)
}

func TestComputeOrder_NonPositivePriceHolds(t *testing.T) {
	bands := ComputeBands(d("1000"), d("10"))
	guide := ComputeOrder(d("500"), decimal.Zero, bands)
	assert.Equal(t, ActionHold, guide.Action)

	guide = ComputeOrder(d("500"), d("-5"), bands)
	assert.Equal(t, ActionHold, guide.Action)
}

func TestComputeOrder_FullScenario(t *testing.T) {
	// V=1,000,000 G=10: band is [900,000, 1,100,000]. Ten shares at 95,000
	// value 950,000 and sit inside the band.
	bands := ComputeBands(d("1000000"), d("10"))
	guide := ComputeOrder(d("950000"), d("95000"), bands)
	assert.Equal(t, ActionHold, guide.Action)

	// Price drops to 89,000: valuation 890,000 breaches the low band and the
	// shortfall of 10,000 buys 10000/89000 shares.
	guide = ComputeOrder(d("890000"), d("89000"), bands)
	require.Equal(t, ActionBuy, guide.Action)
	want := d("10000").Div(d("89000"))
	assert.True(t, guide.Quantity.Equal(want), "quantity=%s want=%s", guide.Quantity, want)
}

func TestNextPivot(t *testing.T) {
	// V' = V + pool/G + deposit, with G the raw percent number.
	got := NextPivot(d("1000000"), d("50000"), d("10"), d("100000"))
	assert.True(t, got.Equal(d("1105000")), "got=%s", got)
}

func TestNextPivot_ZeroGradientIsNoOp(t *testing.T) {
	v := d("1000000")
	got := NextPivot(v, d("50000"), decimal.Zero, d("100000"))
	assert.True(t, got.Equal(v))
}
