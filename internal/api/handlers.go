package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/valueband/vr-service/internal/database"
	"github.com/valueband/vr-service/internal/history"
	"github.com/valueband/vr-service/internal/ledger"
	"github.com/valueband/vr-service/internal/marketdata"
	"github.com/valueband/vr-service/internal/models"
	"github.com/valueband/vr-service/internal/redis"
	"github.com/valueband/vr-service/internal/refresh"
	"github.com/valueband/vr-service/internal/vr"
)

const defaultTableRange = 10

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db        *database.DB
	ledger    *ledger.Service
	history   *history.Service
	refresher *refresh.Refresher
	market    *marketdata.Client
	redis     *redis.Client
	log       zerolog.Logger
}

// NewHandler creates a new Handler. market, refresher and redis may be nil.
func NewHandler(db *database.DB, ledgerSvc *ledger.Service, historySvc *history.Service, refresher *refresh.Refresher, market *marketdata.Client, redisClient *redis.Client, log zerolog.Logger) *Handler {
	return &Handler{
		db:        db,
		ledger:    ledgerSvc,
		history:   historySvc,
		refresher: refresher,
		market:    market,
		redis:     redisClient,
		log:       log.With().Str("component", "api").Logger(),
	}
}

// GetAllPositions handles GET /positions
func (h *Handler) GetAllPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.db.GetAllPositions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, positions)
}

// GetPosition handles GET /positions/{id}
func (h *Handler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	position, err := h.db.GetPosition(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// CreatePosition handles POST /positions
func (h *Handler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name                string          `json:"name"`
		Ticker              string          `json:"ticker"`
		Currency            string          `json:"currency"`
		V                   decimal.Decimal `json:"v_value"`
		G                   decimal.Decimal `json:"g_value"`
		Pool                decimal.Decimal `json:"pool"`
		Quantity            decimal.Decimal `json:"quantity"`
		CurrentPrice        decimal.Decimal `json:"current_price"`
		InvestedPrincipal   decimal.Decimal `json:"invested_principal"`
		StartDate           *time.Time      `json:"start_date"`
		IsVR                bool            `json:"is_vr"`
		DefaultRecalcAmount decimal.Decimal `json:"default_recalc_amount"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	position := &models.Position{
		Name:                req.Name,
		Ticker:              req.Ticker,
		Currency:            req.Currency,
		V:                   req.V,
		G:                   req.G,
		Pool:                req.Pool,
		Quantity:            req.Quantity,
		CurrentPrice:        req.CurrentPrice,
		InvestedPrincipal:   req.InvestedPrincipal,
		StartDate:           time.Now(),
		NetTradeAmount:      decimal.Zero,
		IsVR:                req.IsVR,
		DefaultRecalcAmount: req.DefaultRecalcAmount,
	}
	if req.StartDate != nil {
		position.StartDate = *req.StartDate
	}
	if position.Currency == "" {
		position.Currency = "KRW"
	}

	// Resolve name and price from the market when the caller left them out.
	if h.market != nil && (position.Name == "" || !position.CurrentPrice.IsPositive()) {
		if quote, err := h.market.FetchQuote(r.Context(), position.Ticker); err == nil {
			if position.Name == "" {
				position.Name = quote.Name
			}
			if !position.CurrentPrice.IsPositive() {
				position.CurrentPrice = quote.Price
			}
			if req.Currency == "" && quote.Currency != "" {
				position.Currency = quote.Currency
			}
		} else {
			h.log.Warn().Err(err).Str("ticker", position.Ticker).Msg("quote lookup failed during create")
		}
	}
	if position.Name == "" {
		position.Name = position.Ticker
	}

	if err := h.db.CreatePosition(position); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, position)
}

// DeletePosition handles DELETE /positions/{id}
func (h *Handler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	if err := h.db.DeletePosition(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetGuidance handles GET /positions/{id}/guidance?range=N. It returns the
// valuation bands, the recommended order, and the executable price table.
func (h *Handler) GetGuidance(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	position, err := h.db.GetPosition(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	tableRange := defaultTableRange
	if raw := r.URL.Query().Get("range"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "range must be a non-negative integer", http.StatusBadRequest)
			return
		}
		tableRange = n
	}

	bands := vr.ComputeBands(position.V, position.G)
	order := vr.ComputeOrder(position.Valuation(), position.CurrentPrice, bands)
	table := vr.PriceTable(vr.TableInput{
		Quantity:       position.Quantity,
		Pool:           position.Pool,
		Bands:          bands,
		Range:          tableRange,
		Ticker:         position.Ticker,
		Currency:       position.Currency,
		VRPool:         position.VRPool,
		VRQuantity:     position.VRQuantity,
		NetTradeAmount: position.NetTradeAmount,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"position":    position,
		"bands":       bands,
		"order":       order,
		"price_table": table,
	})
}

// GetLedger handles GET /positions/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	entries, err := h.db.GetEntries(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, entries)
}

// GetPositionHistory handles GET /positions/{id}/history
func (h *Handler) GetPositionHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	snapshots, err := h.history.PositionHistory(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, snapshots)
}

// CreateTrade handles POST /positions/{id}/trades
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Side     string          `json:"side"`
		Price    decimal.Decimal `json:"price"`
		Quantity decimal.Decimal `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.ledger.Trade(r.Context(), id, models.EntryType(req.Side), req.Price, req.Quantity)
	if err != nil {
		respondMutationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// AdjustPool handles POST /positions/{id}/pool
func (h *Handler) AdjustPool(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount           decimal.Decimal `json:"amount"`
		Deposit          bool            `json:"deposit"`
		ApplyToPrincipal bool            `json:"apply_to_principal"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.ledger.AdjustPool(r.Context(), id, req.Amount, req.Deposit, req.ApplyToPrincipal)
	if err != nil {
		respondMutationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// RecalcPivot handles POST /positions/{id}/recalc
func (h *Handler) RecalcPivot(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		Deposit bool            `json:"deposit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.ledger.RecalcPivot(r.Context(), id, req.Amount, req.Deposit)
	if err != nil {
		respondMutationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// ManualEdit handles POST /positions/{id}/edit
func (h *Handler) ManualEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	var req struct {
		Name                string          `json:"name"`
		G                   decimal.Decimal `json:"g_value"`
		Pool                decimal.Decimal `json:"pool"`
		Quantity            decimal.Decimal `json:"quantity"`
		InvestedPrincipal   decimal.Decimal `json:"invested_principal"`
		StartDate           time.Time       `json:"start_date"`
		IsVR                bool            `json:"is_vr"`
		DefaultRecalcAmount decimal.Decimal `json:"default_recalc_amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.ledger.ManualEdit(r.Context(), id, ledger.ManualEditInput{
		Name:                req.Name,
		G:                   req.G,
		Pool:                req.Pool,
		Quantity:            req.Quantity,
		InvestedPrincipal:   req.InvestedPrincipal,
		StartDate:           req.StartDate,
		IsVR:                req.IsVR,
		DefaultRecalcAmount: req.DefaultRecalcAmount,
	})
	if err != nil {
		respondMutationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// RevertEntry handles POST /positions/{id}/revert
func (h *Handler) RevertEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := positionID(w, r)
	if !ok {
		return
	}

	var req struct {
		EntryID int64 `json:"entry_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	position, err := h.ledger.RevertLatest(r.Context(), id, req.EntryID)
	if err != nil {
		respondMutationError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// TriggerRefresh handles POST /refresh
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if h.refresher == nil {
		http.Error(w, "refresh not configured", http.StatusServiceUnavailable)
		return
	}

	result, err := h.refresher.RefreshAll(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetPortfolioStatus handles GET /portfolio/status. It returns the last
// recorded pre-today portfolio totals and each position's value as of its
// latest pre-today snapshot, for day-over-day comparison.
func (h *Handler) GetPortfolioStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.history.YesterdayAssetStatus()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	valuations, err := h.history.YesterdayValuations()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"yesterday":            status,
		"yesterday_valuations": valuations,
	})
}

// GetDailyHistory handles GET /portfolio/daily
func (h *Handler) GetDailyHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.history.DailyHistory()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// ExportBackup handles GET /backup
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.db.ExportAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// ImportBackup handles POST /backup. The document replaces every table
// wholesale; legacy sentinel values are normalized on the way in.
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var doc models.BackupDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "invalid backup document", http.StatusBadRequest)
		return
	}

	doc.NormalizeLegacySentinels()
	if err := h.db.ReplaceAll(&doc); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Info().
		Int("positions", len(doc.Stocks)).
		Int("entries", len(doc.Transactions)).
		Msg("backup imported")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"positions": len(doc.Stocks),
		"entries":   len(doc.Transactions),
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  map[string]string{},
	}
	services := health["services"].(map[string]string)
	allHealthy := true

	// Check database
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	// Check Redis
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if !allHealthy {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

func positionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid position id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func respondMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrRevertDenied):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
