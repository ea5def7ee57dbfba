// Package refresh fetches live prices for every tracked position and
// records the resulting valuations.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/models"
)

// PositionStore is the subset of the database layer the refresher uses.
type PositionStore interface {
	GetAllPositions() ([]*models.Position, error)
	UpdatePositionPrice(id int64, price decimal.Decimal) error
}

// QuoteFetcher fetches the current price for a ticker.
type QuoteFetcher interface {
	FetchPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// QuoteCache caches fetched prices for later reads. Optional.
type QuoteCache interface {
	SetQuote(ctx context.Context, ticker string, price decimal.Decimal, ttl time.Duration) error
}

// HistoryRecorder records valuations after a refresh pass.
type HistoryRecorder interface {
	RecordPositionSnapshot(p *models.Position) error
	RecordDailyAggregate(ctx context.Context) error
}

// Result summarizes one refresh pass.
type Result struct {
	Total   int `json:"total"`
	Updated int `json:"updated"`
	Failed  int `json:"failed"`
}

// Refresher runs bulk price refreshes across all positions.
type Refresher struct {
	store    PositionStore
	fetcher  QuoteFetcher
	cache    QuoteCache
	recorder HistoryRecorder
	cacheTTL time.Duration
	log      zerolog.Logger
}

// New creates a refresher. cache and recorder may be nil.
func New(store PositionStore, fetcher QuoteFetcher, cache QuoteCache, recorder HistoryRecorder, cacheTTL time.Duration, log zerolog.Logger) *Refresher {
	return &Refresher{
		store:    store,
		fetcher:  fetcher,
		cache:    cache,
		recorder: recorder,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "refresh").Logger(),
	}
}

// RefreshAll fetches prices for every position concurrently. A failed
// or non-positive fetch leaves that position untouched; the pass keeps
// going for the rest.
func (r *Refresher) RefreshAll(ctx context.Context) (Result, error) {
	positions, err := r.store.GetAllPositions()
	if err != nil {
		return Result{}, err
	}

	result := Result{Total: len(positions)}
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, p := range positions {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok := r.refreshOne(ctx, p)
			mu.Lock()
			if ok {
				result.Updated++
			} else {
				result.Failed++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if r.recorder != nil {
		if err := r.recorder.RecordDailyAggregate(ctx); err != nil {
			r.log.Error().Err(err).Msg("failed to record daily aggregate")
		}
	}

	r.log.Info().
		Int("total", result.Total).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("price refresh complete")
	return result, nil
}

func (r *Refresher) refreshOne(ctx context.Context, p *models.Position) bool {
	price, err := r.fetcher.FetchPrice(ctx, p.Ticker)
	if err != nil {
		r.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("price fetch failed")
		return false
	}
	if !price.IsPositive() {
		r.log.Warn().Str("ticker", p.Ticker).Str("price", price.String()).Msg("ignoring non-positive price")
		return false
	}

	if err := r.store.UpdatePositionPrice(p.ID, price); err != nil {
		r.log.Error().Err(err).Int64("position_id", p.ID).Msg("failed to store price")
		return false
	}
	p.CurrentPrice = price

	if r.cache != nil {
		if err := r.cache.SetQuote(ctx, p.Ticker, price, r.cacheTTL); err != nil {
			r.log.Warn().Err(err).Str("ticker", p.Ticker).Msg("failed to cache quote")
		}
	}
	if r.recorder != nil {
		if err := r.recorder.RecordPositionSnapshot(p); err != nil {
			r.log.Warn().Err(err).Int64("position_id", p.ID).Msg("failed to record snapshot")
		}
	}
	return true
}
