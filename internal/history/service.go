// Package history records trend points: per-position snapshots and the
// portfolio-wide daily asset history, both deduplicated to one entry per
// calendar day.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/metrics"
	"github.com/valueband/vr-service/internal/models"
)

const dateLayout = "2006-01-02"

// Store is the persistence surface for trend data.
type Store interface {
	GetAllPositions() ([]*models.Position, error)
	DeleteSnapshotsForDay(positionID int64, dayStart, dayEnd time.Time) error
	InsertSnapshot(s *models.PositionSnapshot) error
	GetSnapshots(positionID int64) ([]*models.PositionSnapshot, error)
	GetAllSnapshots() ([]*models.PositionSnapshot, error)
	UpsertDailyHistory(h *models.DailyAssetHistory) error
	GetDailyHistory() ([]*models.DailyAssetHistory, error)
}

// RateSource converts a currency into the portfolio base currency.
type RateSource interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Service implements snapshot recording on top of an injected store.
type Service struct {
	store Store
	rates RateSource
	log   zerolog.Logger
}

func New(store Store, rates RateSource, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		rates: rates,
		log:   log.With().Str("component", "history").Logger(),
	}
}

// RecordPositionSnapshot stores a trend point for the position, replacing any
// snapshot already taken the same local calendar day. The latest state
// observed on a day always wins.
func (s *Service) RecordPositionSnapshot(p *models.Position) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	if err := s.store.DeleteSnapshotsForDay(p.ID, dayStart, dayEnd); err != nil {
		return fmt.Errorf("failed to delete same-day snapshots: %w", err)
	}
	snap := &models.PositionSnapshot{
		PositionID:        p.ID,
		Timestamp:         now,
		V:                 p.V,
		G:                 p.G,
		CurrentPrice:      p.CurrentPrice,
		Quantity:          p.Quantity,
		Pool:              p.Pool,
		InvestedPrincipal: p.InvestedPrincipal,
	}
	if err := s.store.InsertSnapshot(snap); err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	metrics.SnapshotsRecorded.WithLabelValues("position").Inc()
	return nil
}

// RecordDailyAggregate sums principal and current value across all positions
// in the base currency and upserts today's daily history row.
func (s *Service) RecordDailyAggregate(ctx context.Context) error {
	positions, err := s.store.GetAllPositions()
	if err != nil {
		return fmt.Errorf("failed to load positions: %w", err)
	}

	totalPrincipal := decimal.Zero
	totalCurrent := decimal.Zero
	for _, p := range positions {
		rate, err := s.rates.Rate(ctx, p.Currency)
		if err != nil {
			s.log.Warn().Err(err).Str("currency", p.Currency).Msg("no exchange rate, counting at face value")
			rate = decimal.NewFromInt(1)
		}
		totalPrincipal = totalPrincipal.Add(p.InvestedPrincipal.Mul(rate))
		totalCurrent = totalCurrent.Add(p.TotalValue().Mul(rate))
	}

	row := &models.DailyAssetHistory{
		Date:              time.Now().Format(dateLayout),
		TotalPrincipal:    totalPrincipal,
		TotalCurrentValue: totalCurrent,
	}
	if err := s.store.UpsertDailyHistory(row); err != nil {
		return fmt.Errorf("failed to upsert daily history: %w", err)
	}
	metrics.SnapshotsRecorded.WithLabelValues("daily").Inc()
	return nil
}

// PositionHistory returns the stored trend points for one position.
func (s *Service) PositionHistory(positionID int64) ([]*models.PositionSnapshot, error) {
	return s.store.GetSnapshots(positionID)
}

// DailyHistory returns the portfolio-wide daily rows.
func (s *Service) DailyHistory() ([]*models.DailyAssetHistory, error) {
	return s.store.GetDailyHistory()
}

// YesterdayValuations returns, per position, the total value recorded by the
// latest snapshot taken before today. Positions with no prior snapshot are
// absent from the map.
func (s *Service) YesterdayValuations() (map[int64]decimal.Decimal, error) {
	snaps, err := s.store.GetAllSnapshots()
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	now := time.Now()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	latest := make(map[int64]*models.PositionSnapshot)
	for _, snap := range snaps {
		if !snap.Timestamp.Before(todayStart) {
			continue
		}
		if cur, ok := latest[snap.PositionID]; !ok || snap.Timestamp.After(cur.Timestamp) {
			latest[snap.PositionID] = snap
		}
	}

	out := make(map[int64]decimal.Decimal, len(latest))
	for id, snap := range latest {
		out[id] = snap.CurrentPrice.Mul(snap.Quantity).Add(snap.Pool)
	}
	return out, nil
}

// YesterdayAssetStatus returns the last daily row before today, with ROI,
// or nil when no prior day exists.
func (s *Service) YesterdayAssetStatus() (*models.AssetStatus, error) {
	rows, err := s.store.GetDailyHistory()
	if err != nil {
		return nil, fmt.Errorf("failed to load daily history: %w", err)
	}
	today := time.Now().Format(dateLayout)

	var last *models.DailyAssetHistory
	for _, row := range rows {
		if row.Date == today {
			continue
		}
		if last == nil || row.Date > last.Date {
			last = row
		}
	}
	if last == nil {
		return nil, nil
	}

	roi := decimal.Zero
	if last.TotalPrincipal.IsPositive() {
		roi = last.TotalCurrentValue.Sub(last.TotalPrincipal).
			Div(last.TotalPrincipal).Mul(decimal.NewFromInt(100))
	}
	return &models.AssetStatus{
		TotalPrincipal: last.TotalPrincipal,
		TotalCurrent:   last.TotalCurrentValue,
		TotalROI:       roi,
	}, nil
}
