package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valueband/vr-service/internal/models"
)

func entryRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "position_id", "type", "ts", "price", "quantity", "amount",
		"previous_v", "new_v", "previous_pool", "previous_quantity",
		"previous_principal", "previous_vr_pool", "previous_vr_quantity",
		"previous_net_trade_amount",
	}).AddRow(
		3, 1, "BUY", now, "90000", "1", "90000",
		"1000000", "1000000", "50000", "10",
		"500000", nil, nil,
		"20000",
	)
}

func TestAppendEntry(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO ledger_entries").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	e := &models.LedgerEntry{
		PositionID: 1,
		Type:       models.EntryBuy,
		Timestamp:  time.Now(),
		Price:      decimal.RequireFromString("90000"),
		Quantity:   decimal.NewFromInt(1),
		Amount:     decimal.RequireFromString("90000"),
	}
	require.NoError(t, db.AppendEntry(e))
	assert.Equal(t, int64(3), e.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetEntry(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT(.+)FROM ledger_entries WHERE id").
		WithArgs(int64(3)).
		WillReturnRows(entryRows())

	e, err := db.GetEntry(3)
	require.NoError(t, err)

	assert.Equal(t, models.EntryBuy, e.Type)
	assert.True(t, e.PreviousQuantity.Valid)
	assert.True(t, e.PreviousQuantity.Decimal.Equal(decimal.NewFromInt(10)))
	assert.False(t, e.PreviousVRPool.Valid)
	assert.True(t, e.Revertible())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestEntryNone(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT(.+)FROM ledger_entries(.+)ORDER BY id DESC").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	e, err := db.LatestEntry(1)
	require.NoError(t, err)
	assert.Nil(t, e, "a position with no entries has no latest entry")
}

func TestDeleteEntryNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec("DELETE FROM ledger_entries").
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := db.DeleteEntry(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
