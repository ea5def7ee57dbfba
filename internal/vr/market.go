package vr

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Market is the venue category an instrument trades on. It decides which
// tick-size bracket table applies when rounding order prices.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
	MarketUS     Market = "US"
	MarketTokyo  Market = "TOKYO"
	MarketOther  Market = "OTHER"
)

// tickBracket maps prices below upper to the given minimum increment. A zero
// upper bound marks the catch-all bracket.
type tickBracket struct {
	upper decimal.Decimal
	tick  decimal.Decimal
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var kospiTicks = []tickBracket{
	{d("1000"), d("1")},
	{d("5000"), d("5")},
	{d("10000"), d("10")},
	{d("50000"), d("50")},
	{d("100000"), d("100")},
	{d("500000"), d("500")},
	{decimal.Decimal{}, d("1000")},
}

var kosdaqTicks = []tickBracket{
	{d("1000"), d("1")},
	{d("5000"), d("5")},
	{d("10000"), d("10")},
	{d("50000"), d("50")},
	{decimal.Decimal{}, d("100")},
}

var tokyoTicks = []tickBracket{
	{d("3000"), d("1")},
	{d("5000"), d("5")},
	{d("50000"), d("10")},
	{d("300000"), d("100")},
	{decimal.Decimal{}, d("1000")},
}

// MarketOf classifies an instrument by ticker suffix first, then currency.
func MarketOf(ticker, currency string) Market {
	upper := strings.ToUpper(ticker)
	switch {
	case strings.HasSuffix(upper, ".KS"):
		return MarketKOSPI
	case strings.HasSuffix(upper, ".KQ"):
		return MarketKOSDAQ
	case strings.HasSuffix(upper, ".T"):
		return MarketTokyo
	}
	switch currency {
	case "USD":
		return MarketUS
	case "JPY":
		return MarketTokyo
	case "KRW":
		return MarketKOSPI
	}
	return MarketOther
}

// TickSize returns the minimum legal price increment for a price on the given
// market.
func TickSize(price decimal.Decimal, market Market) decimal.Decimal {
	switch market {
	case MarketKOSPI:
		return bracketTick(price, kospiTicks)
	case MarketKOSDAQ:
		return bracketTick(price, kosdaqTicks)
	case MarketTokyo:
		return bracketTick(price, tokyoTicks)
	case MarketUS:
		return d("0.01")
	default:
		// Coarse fallback for unclassified venues.
		if price.GreaterThan(d("500")) {
			return d("1")
		}
		return d("0.01")
	}
}

func bracketTick(price decimal.Decimal, brackets []tickBracket) decimal.Decimal {
	for _, b := range brackets {
		if b.upper.IsZero() || price.LessThan(b.upper) {
			return b.tick
		}
	}
	return brackets[len(brackets)-1].tick
}

// AdjustPrice snaps a raw price onto the legal tick grid. Buys round up so
// the executed order reaches the target valuation, sells round down so it
// does not overshoot it. A zero tick returns the raw price unchanged.
func AdjustPrice(raw decimal.Decimal, isBuy bool, market Market) decimal.Decimal {
	tick := TickSize(raw, market)
	if tick.IsZero() {
		return raw
	}
	steps := raw.Div(tick)
	if isBuy {
		steps = steps.Ceil()
	} else {
		steps = steps.Floor()
	}
	return steps.Mul(tick)
}
