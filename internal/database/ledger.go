package database

import (
	"database/sql"
	"fmt"

	"github.com/valueband/vr-service/internal/models"
)

const entryColumns = `
	id, position_id, type, ts, price, quantity, amount, previous_v, new_v,
	previous_pool, previous_quantity, previous_principal, previous_vr_pool,
	previous_vr_quantity, previous_net_trade_amount
`

// AppendEntry inserts a ledger entry and fills in its generated ID. Entries
// are immutable once written; there is no update path.
func (db *DB) AppendEntry(e *models.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			position_id, type, ts, price, quantity, amount, previous_v,
			new_v, previous_pool, previous_quantity, previous_principal,
			previous_vr_pool, previous_vr_quantity, previous_net_trade_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := db.conn.QueryRow(query,
		e.PositionID, string(e.Type), e.Timestamp, e.Price, e.Quantity,
		e.Amount, e.PreviousV, e.NewV, e.PreviousPool, e.PreviousQuantity,
		e.PreviousPrincipal, e.PreviousVRPool, e.PreviousVRQuantity,
		e.PreviousNetTradeAmount,
	).Scan(&e.ID)

	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// GetEntry retrieves a single ledger entry by ID.
func (db *DB) GetEntry(id int64) (*models.LedgerEntry, error) {
	query := `SELECT` + entryColumns + `FROM ledger_entries WHERE id = $1`

	e, err := scanEntry(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ledger entry not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return e, nil
}

// LatestEntry returns the most recently appended entry for a position, or
// nil when the position has no entries.
func (db *DB) LatestEntry(positionID int64) (*models.LedgerEntry, error) {
	query := `SELECT` + entryColumns + `
		FROM ledger_entries
		WHERE position_id = $1
		ORDER BY id DESC
		LIMIT 1`

	e, err := scanEntry(db.conn.QueryRow(query, positionID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest ledger entry: %w", err)
	}
	return e, nil
}

// GetEntries returns all ledger entries for a position, newest first.
func (db *DB) GetEntries(positionID int64) ([]*models.LedgerEntry, error) {
	query := `SELECT` + entryColumns + `
		FROM ledger_entries
		WHERE position_id = $1
		ORDER BY id DESC`

	rows, err := db.conn.Query(query, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetAllEntries returns every ledger entry in append order, for export.
func (db *DB) GetAllEntries() ([]*models.LedgerEntry, error) {
	query := `SELECT` + entryColumns + `FROM ledger_entries ORDER BY id`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes one ledger entry. The caller (the ledger service)
// guarantees it only ever targets the latest entry of a position.
func (db *DB) DeleteEntry(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM ledger_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("ledger entry not found: %d", id)
	}
	return nil
}

func scanEntry(row rowScanner) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	var entryType string
	err := row.Scan(
		&e.ID, &e.PositionID, &entryType, &e.Timestamp, &e.Price,
		&e.Quantity, &e.Amount, &e.PreviousV, &e.NewV,
		&e.PreviousPool, &e.PreviousQuantity, &e.PreviousPrincipal,
		&e.PreviousVRPool, &e.PreviousVRQuantity, &e.PreviousNetTradeAmount,
	)
	if err != nil {
		return nil, err
	}
	e.Type = models.EntryType(entryType)
	return &e, nil
}
