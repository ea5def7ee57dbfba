package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/models"
)

const positionColumns = `
	id, name, ticker, currency, v_value, g_value, pool, quantity,
	current_price, invested_principal, start_date, vr_pool, vr_quantity,
	net_trade_amount, is_vr, default_recalc_amount, created_at, updated_at
`

// CreatePosition inserts a new position and fills in its generated ID.
func (db *DB) CreatePosition(p *models.Position) error {
	query := `
		INSERT INTO positions (
			name, ticker, currency, v_value, g_value, pool, quantity,
			current_price, invested_principal, start_date, vr_pool,
			vr_quantity, net_trade_amount, is_vr, default_recalc_amount,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query,
		p.Name, p.Ticker, p.Currency, p.V, p.G, p.Pool, p.Quantity,
		p.CurrentPrice, p.InvestedPrincipal, p.StartDate, p.VRPool,
		p.VRQuantity, p.NetTradeAmount, p.IsVR, p.DefaultRecalcAmount,
		now, now,
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetPosition retrieves a position by its ID.
func (db *DB) GetPosition(id int64) (*models.Position, error) {
	query := `SELECT` + positionColumns + `FROM positions WHERE id = $1`

	p, err := scanPosition(db.conn.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("position not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	return p, nil
}

// GetAllPositions retrieves all positions, oldest first.
func (db *DB) GetAllPositions() ([]*models.Position, error) {
	query := `SELECT` + positionColumns + `FROM positions ORDER BY id`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// UpdatePosition persists all mutable fields of a position.
func (db *DB) UpdatePosition(p *models.Position) error {
	query := `
		UPDATE positions SET
			name = $2, ticker = $3, currency = $4, v_value = $5, g_value = $6,
			pool = $7, quantity = $8, current_price = $9,
			invested_principal = $10, start_date = $11, vr_pool = $12,
			vr_quantity = $13, net_trade_amount = $14, is_vr = $15,
			default_recalc_amount = $16, updated_at = $17
		WHERE id = $1
	`
	p.UpdatedAt = time.Now()
	result, err := db.conn.Exec(query,
		p.ID, p.Name, p.Ticker, p.Currency, p.V, p.G,
		p.Pool, p.Quantity, p.CurrentPrice,
		p.InvestedPrincipal, p.StartDate, p.VRPool,
		p.VRQuantity, p.NetTradeAmount, p.IsVR,
		p.DefaultRecalcAmount, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", p.ID)
	}
	return nil
}

// UpdatePositionPrice sets only the current price of a position.
func (db *DB) UpdatePositionPrice(id int64, price decimal.Decimal) error {
	result, err := db.conn.Exec(
		`UPDATE positions SET current_price = $2, updated_at = $3 WHERE id = $1`,
		id, price, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to update position price: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", id)
	}
	return nil
}

// UpdatePriceByTicker sets the current price of every position tracking the
// given ticker. Returns the number of positions updated.
func (db *DB) UpdatePriceByTicker(ticker string, price decimal.Decimal) (int64, error) {
	result, err := db.conn.Exec(
		`UPDATE positions SET current_price = $2, updated_at = $3 WHERE ticker = $1`,
		ticker, price, time.Now(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update price for ticker %s: %w", ticker, err)
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// DeletePosition removes a position; its ledger entries and snapshots cascade.
func (db *DB) DeletePosition(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("position not found: %d", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPosition(row rowScanner) (*models.Position, error) {
	var p models.Position
	err := row.Scan(
		&p.ID, &p.Name, &p.Ticker, &p.Currency, &p.V, &p.G, &p.Pool,
		&p.Quantity, &p.CurrentPrice, &p.InvestedPrincipal, &p.StartDate,
		&p.VRPool, &p.VRQuantity, &p.NetTradeAmount, &p.IsVR,
		&p.DefaultRecalcAmount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
