package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valueband/vr-service/internal/database"
	"github.com/valueband/vr-service/internal/history"
	"github.com/valueband/vr-service/internal/ledger"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	db := database.NewFromConn(conn)
	historySvc := history.New(db, nil, zerolog.Nop())
	ledgerSvc := ledger.New(db, nil, nil, zerolog.Nop())
	return NewHandler(db, ledgerSvc, historySvc, nil, nil, nil, zerolog.Nop()), mock
}

func positionRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "ticker", "currency", "v_value", "g_value", "pool",
		"quantity", "current_price", "invested_principal", "start_date",
		"vr_pool", "vr_quantity", "net_trade_amount", "is_vr",
		"default_recalc_amount", "created_at", "updated_at",
	}).AddRow(
		1, "Samsung Electronics", "005930.KS", "KRW", "1000000", "10",
		"400000", "10", "95000", "500000", now,
		nil, nil, "0", true, "0", now, now,
	)
}

func serve(handler *Handler, method, target, body string) *httptest.ResponseRecorder {
	router := SetupRoutes(handler)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetGuidance(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT(.+)FROM positions WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(positionRow())

	rec := serve(handler, http.MethodGet, "/api/v1/positions/1/guidance?range=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Bands struct {
			Low  string `json:"low"`
			High string `json:"high"`
		} `json:"bands"`
		Order struct {
			Action string `json:"action"`
		} `json:"order"`
		PriceTable []struct {
			Step      int64  `json:"step"`
			SellPrice string `json:"sell_price"`
			BuyPrice  string `json:"buy_price"`
		} `json:"price_table"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "900000", resp.Bands.Low)
	assert.Equal(t, "1100000", resp.Bands.High)
	// valuation 950,000 sits inside the band
	assert.Equal(t, "HOLD", resp.Order.Action)
	require.Len(t, resp.PriceTable, 3)
	assert.Equal(t, "122000", resp.PriceTable[0].SellPrice)
	assert.Equal(t, "81900", resp.PriceTable[0].BuyPrice)
}

func TestGetGuidanceBadRange(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT(.+)FROM positions WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(positionRow())

	rec := serve(handler, http.MethodGet, "/api/v1/positions/1/guidance?range=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPositionInvalidID(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := serve(handler, http.MethodGet, "/api/v1/positions/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTradeInvalidSide(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := serve(handler, http.MethodPost, "/api/v1/positions/1/trades",
		`{"side":"SHORT","price":"100","quantity":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTradeUnknownPosition(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT(.+)FROM positions WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	rec := serve(handler, http.MethodPost, "/api/v1/positions/99/trades",
		`{"side":"BUY","price":"100","quantity":"1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevertDeniedMapsToConflict(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT(.+)FROM positions WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(positionRow())
	mock.ExpectQuery("SELECT(.+)FROM ledger_entries WHERE id").
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	rec := serve(handler, http.MethodPost, "/api/v1/positions/1/revert",
		`{"entry_id":42}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
