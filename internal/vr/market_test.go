package vr

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMarketOf(t *testing.T) {
	tests := []struct {
		ticker   string
		currency string
		want     Market
	}{
		{"005930.KS", "KRW", MarketKOSPI},
		{"035720.kq", "KRW", MarketKOSDAQ},
		{"7203.T", "JPY", MarketTokyo},
		{"AAPL", "USD", MarketUS},
		{"9984", "JPY", MarketTokyo},
		{"005930", "KRW", MarketKOSPI},
		{"VOD", "GBP", MarketOther},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MarketOf(tt.ticker, tt.currency), "ticker=%s currency=%s", tt.ticker, tt.currency)
	}
}

func TestTickSize_Brackets(t *testing.T) {
	tests := []struct {
		price  string
		market Market
		want   string
	}{
		{"999", MarketKOSPI, "1"},
		{"1000", MarketKOSPI, "5"},
		{"4999", MarketKOSPI, "5"},
		{"9999", MarketKOSPI, "10"},
		{"49999", MarketKOSPI, "50"},
		{"99999", MarketKOSPI, "100"},
		{"499999", MarketKOSPI, "500"},
		{"500000", MarketKOSPI, "1000"},
		{"49999", MarketKOSDAQ, "50"},
		{"50000", MarketKOSDAQ, "100"},
		{"2999", MarketTokyo, "1"},
		{"4999", MarketTokyo, "5"},
		{"49999", MarketTokyo, "10"},
		{"299999", MarketTokyo, "100"},
		{"300000", MarketTokyo, "1000"},
		{"123.45", MarketUS, "0.01"},
		{"400", MarketOther, "0.01"},
		{"501", MarketOther, "1"},
	}
	for _, tt := range tests {
		got := TickSize(decimal.RequireFromString(tt.price), tt.market)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
			"price=%s market=%s: got %s want %s", tt.price, tt.market, got, tt.want)
	}
}

func TestAdjustPrice_BuyCeilsSellFloors(t *testing.T) {
	// 1234 sits in the 5-won tick bracket.
	raw := decimal.RequireFromString("1234")
	assert.True(t, AdjustPrice(raw, true, MarketKOSPI).Equal(decimal.RequireFromString("1235")))
	assert.True(t, AdjustPrice(raw, false, MarketKOSPI).Equal(decimal.RequireFromString("1230")))

	// 12340 sits in the 50-won tick bracket.
	raw = decimal.RequireFromString("12340")
	assert.True(t, AdjustPrice(raw, true, MarketKOSPI).Equal(decimal.RequireFromString("12350")))
	assert.True(t, AdjustPrice(raw, false, MarketKOSPI).Equal(decimal.RequireFromString("12300")))
}

func TestAdjustPrice_ExactMultipleUnchanged(t *testing.T) {
	raw := decimal.RequireFromString("12350")
	assert.True(t, AdjustPrice(raw, true, MarketKOSPI).Equal(raw))
	assert.True(t, AdjustPrice(raw, false, MarketKOSPI).Equal(raw))
}

func TestAdjustPrice_USCents(t *testing.T) {
	raw := decimal.RequireFromString("187.4531")
	assert.True(t, AdjustPrice(raw, true, MarketUS).Equal(decimal.RequireFromString("187.46")))
	assert.True(t, AdjustPrice(raw, false, MarketUS).Equal(decimal.RequireFromString("187.45")))
}
