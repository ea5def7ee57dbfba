package database

import (
	"fmt"

	"github.com/valueband/vr-service/internal/models"
)

// ReplaceAll atomically replaces the entire store with the contents of a
// backup document: all four tables are cleared, then bulk-inserted with their
// original IDs so ledger entries and snapshots keep pointing at their
// positions. There is no partial or merge import.
func (db *DB) ReplaceAll(doc *models.BackupDocument) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"ledger_entries", "position_snapshots", "daily_asset_history", "positions"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insertPosition := `
		INSERT INTO positions (
			id, name, ticker, currency, v_value, g_value, pool, quantity,
			current_price, invested_principal, start_date, vr_pool,
			vr_quantity, net_trade_amount, is_vr, default_recalc_amount,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
	`
	for _, p := range doc.Stocks {
		_, err := tx.Exec(insertPosition,
			p.ID, p.Name, p.Ticker, p.Currency, p.V, p.G, p.Pool, p.Quantity,
			p.CurrentPrice, p.InvestedPrincipal, p.StartDate, p.VRPool,
			p.VRQuantity, p.NetTradeAmount, p.IsVR, p.DefaultRecalcAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert position %s: %w", p.Ticker, err)
		}
	}

	insertEntry := `
		INSERT INTO ledger_entries (
			id, position_id, type, ts, price, quantity, amount, previous_v,
			new_v, previous_pool, previous_quantity, previous_principal,
			previous_vr_pool, previous_vr_quantity, previous_net_trade_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	for _, e := range doc.Transactions {
		_, err := tx.Exec(insertEntry,
			e.ID, e.PositionID, string(e.Type), e.Timestamp, e.Price,
			e.Quantity, e.Amount, e.PreviousV, e.NewV, e.PreviousPool,
			e.PreviousQuantity, e.PreviousPrincipal, e.PreviousVRPool,
			e.PreviousVRQuantity, e.PreviousNetTradeAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry %d: %w", e.ID, err)
		}
	}

	insertDaily := `
		INSERT INTO daily_asset_history (date, total_principal, total_current_value)
		VALUES ($1, $2, $3)
	`
	for _, h := range doc.DailyHistory {
		if _, err := tx.Exec(insertDaily, h.Date, h.TotalPrincipal, h.TotalCurrentValue); err != nil {
			return fmt.Errorf("failed to insert daily history %s: %w", h.Date, err)
		}
	}

	insertSnapshot := `
		INSERT INTO position_snapshots (
			id, position_id, ts, v_value, g_value, current_price, quantity,
			pool, invested_principal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, s := range doc.StockHistory {
		_, err := tx.Exec(insertSnapshot,
			s.ID, s.PositionID, s.Timestamp, s.V, s.G, s.CurrentPrice,
			s.Quantity, s.Pool, s.InvestedPrincipal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot %d: %w", s.ID, err)
		}
	}

	// Explicit IDs bypass the serial sequences; bump them past the imported
	// maximums so subsequent inserts do not collide.
	for _, table := range []string{"positions", "ledger_entries", "position_snapshots"} {
		reset := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))`,
			table, table,
		)
		if _, err := tx.Exec(reset); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ExportAll assembles a backup document from the full contents of the store.
func (db *DB) ExportAll() (*models.BackupDocument, error) {
	positions, err := db.GetAllPositions()
	if err != nil {
		return nil, err
	}
	entries, err := db.GetAllEntries()
	if err != nil {
		return nil, err
	}
	daily, err := db.GetDailyHistory()
	if err != nil {
		return nil, err
	}
	snaps, err := db.GetAllSnapshots()
	if err != nil {
		return nil, err
	}

	return models.NewBackupDocument(
		deref(positions), deref(entries), deref(daily), deref(snaps),
	), nil
}

func deref[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		out = append(out, *v)
	}
	return out
}
