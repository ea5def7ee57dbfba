package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// defaultRates are the fallback conversion rates into KRW when the
// live rate cannot be fetched and nothing is cached.
var defaultRates = map[string]decimal.Decimal{
	"KRW": decimal.NewFromInt(1),
	"USD": decimal.NewFromInt(1400),
	"JPY": decimal.NewFromInt(9),
}

// RateStore caches exchange rates between lookups.
type RateStore interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
	SetRate(ctx context.Context, from, to string, rate decimal.Decimal, ttl time.Duration) error
}

// RateCache resolves exchange rates into the base currency, caching
// results in Redis. It satisfies history.RateSource.
type RateCache struct {
	client       *Client
	store        RateStore
	baseCurrency string
	ttl          time.Duration
	log          zerolog.Logger
}

// NewRateCache creates a rate resolver. store may be nil, in which
// case every lookup goes to the live API.
func NewRateCache(client *Client, store RateStore, baseCurrency string, ttl time.Duration, log zerolog.Logger) *RateCache {
	return &RateCache{
		client:       client,
		store:        store,
		baseCurrency: baseCurrency,
		ttl:          ttl,
		log:          log.With().Str("component", "rates").Logger(),
	}
}

// Rate returns the conversion rate from currency into the base
// currency. The base currency itself is always 1.
func (r *RateCache) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	if currency == r.baseCurrency {
		return decimal.NewFromInt(1), nil
	}

	if r.store != nil {
		if rate, err := r.store.GetRate(ctx, currency, r.baseCurrency); err == nil && rate.IsPositive() {
			return rate, nil
		}
	}

	// FX pairs are quoted as e.g. USDKRW=X on Yahoo.
	symbol := fmt.Sprintf("%s%s=X", currency, r.baseCurrency)
	rate, err := r.client.FetchPrice(ctx, symbol)
	if err != nil || !rate.IsPositive() {
		fallback, ok := defaultRates[currency]
		if !ok {
			if err != nil {
				return decimal.Zero, fmt.Errorf("failed to fetch rate for %s: %w", currency, err)
			}
			return decimal.Zero, fmt.Errorf("no rate available for %s", currency)
		}
		r.log.Warn().Str("currency", currency).Err(err).Msg("using fallback exchange rate")
		return fallback, nil
	}

	if r.store != nil {
		if err := r.store.SetRate(ctx, currency, r.baseCurrency, rate, r.ttl); err != nil {
			r.log.Warn().Err(err).Msg("failed to cache exchange rate")
		}
	}
	return rate, nil
}
