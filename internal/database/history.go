package database

import (
	"fmt"
	"time"

	"github.com/valueband/vr-service/internal/models"
)

// InsertSnapshot stores a position trend point and fills in its generated ID.
func (db *DB) InsertSnapshot(s *models.PositionSnapshot) error {
	query := `
		INSERT INTO position_snapshots (
			position_id, ts, v_value, g_value, current_price, quantity,
			pool, invested_principal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := db.conn.QueryRow(query,
		s.PositionID, s.Timestamp, s.V, s.G, s.CurrentPrice, s.Quantity,
		s.Pool, s.InvestedPrincipal,
	).Scan(&s.ID)

	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// DeleteSnapshotsForDay removes a position's snapshots whose timestamp falls
// in [dayStart, dayEnd).
func (db *DB) DeleteSnapshotsForDay(positionID int64, dayStart, dayEnd time.Time) error {
	_, err := db.conn.Exec(
		`DELETE FROM position_snapshots WHERE position_id = $1 AND ts >= $2 AND ts < $3`,
		positionID, dayStart, dayEnd,
	)
	if err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}

// GetSnapshots returns a position's trend points, oldest first.
func (db *DB) GetSnapshots(positionID int64) ([]*models.PositionSnapshot, error) {
	query := `
		SELECT id, position_id, ts, v_value, g_value, current_price,
		       quantity, pool, invested_principal
		FROM position_snapshots
		WHERE position_id = $1
		ORDER BY ts
	`
	rows, err := db.conn.Query(query, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.PositionSnapshot
	for rows.Next() {
		var s models.PositionSnapshot
		err := rows.Scan(
			&s.ID, &s.PositionID, &s.Timestamp, &s.V, &s.G, &s.CurrentPrice,
			&s.Quantity, &s.Pool, &s.InvestedPrincipal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, &s)
	}
	return snaps, rows.Err()
}

// GetAllSnapshots returns every trend point across all positions.
func (db *DB) GetAllSnapshots() ([]*models.PositionSnapshot, error) {
	query := `
		SELECT id, position_id, ts, v_value, g_value, current_price,
		       quantity, pool, invested_principal
		FROM position_snapshots
		ORDER BY ts
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*models.PositionSnapshot
	for rows.Next() {
		var s models.PositionSnapshot
		err := rows.Scan(
			&s.ID, &s.PositionID, &s.Timestamp, &s.V, &s.G, &s.CurrentPrice,
			&s.Quantity, &s.Pool, &s.InvestedPrincipal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snaps = append(snaps, &s)
	}
	return snaps, rows.Err()
}

// UpsertDailyHistory replaces the portfolio-wide row for the given date, so
// at most one row per calendar date ever exists.
func (db *DB) UpsertDailyHistory(h *models.DailyAssetHistory) error {
	query := `
		INSERT INTO daily_asset_history (date, total_principal, total_current_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (date)
		DO UPDATE SET
			total_principal = EXCLUDED.total_principal,
			total_current_value = EXCLUDED.total_current_value
	`
	_, err := db.conn.Exec(query, h.Date, h.TotalPrincipal, h.TotalCurrentValue)
	if err != nil {
		return fmt.Errorf("failed to upsert daily history: %w", err)
	}
	return nil
}

// GetDailyHistory returns all daily rows in date order.
func (db *DB) GetDailyHistory() ([]*models.DailyAssetHistory, error) {
	query := `
		SELECT date, total_principal, total_current_value
		FROM daily_asset_history
		ORDER BY date
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily history: %w", err)
	}
	defer rows.Close()

	var history []*models.DailyAssetHistory
	for rows.Next() {
		var h models.DailyAssetHistory
		if err := rows.Scan(&h.Date, &h.TotalPrincipal, &h.TotalCurrentValue); err != nil {
			return nil, fmt.Errorf("failed to scan daily history: %w", err)
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}
