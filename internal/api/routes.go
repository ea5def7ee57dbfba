package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check and metrics
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Position routes
	api.HandleFunc("/positions", handler.GetAllPositions).Methods("GET")
	api.HandleFunc("/positions", handler.CreatePosition).Methods("POST")
	api.HandleFunc("/positions/{id}", handler.GetPosition).Methods("GET")
	api.HandleFunc("/positions/{id}", handler.DeletePosition).Methods("DELETE")
	api.HandleFunc("/positions/{id}/guidance", handler.GetGuidance).Methods("GET")
	api.HandleFunc("/positions/{id}/ledger", handler.GetLedger).Methods("GET")
	api.HandleFunc("/positions/{id}/history", handler.GetPositionHistory).Methods("GET")

	// Ledger mutations
	api.HandleFunc("/positions/{id}/trades", handler.CreateTrade).Methods("POST")
	api.HandleFunc("/positions/{id}/pool", handler.AdjustPool).Methods("POST")
	api.HandleFunc("/positions/{id}/recalc", handler.RecalcPivot).Methods("POST")
	api.HandleFunc("/positions/{id}/edit", handler.ManualEdit).Methods("POST")
	api.HandleFunc("/positions/{id}/revert", handler.RevertEntry).Methods("POST")

	// Portfolio-wide routes
	api.HandleFunc("/refresh", handler.TriggerRefresh).Methods("POST")
	api.HandleFunc("/portfolio/daily", handler.GetDailyHistory).Methods("GET")
	api.HandleFunc("/portfolio/status", handler.GetPortfolioStatus).Methods("GET")
	api.HandleFunc("/backup", handler.ExportBackup).Methods("GET")
	api.HandleFunc("/backup", handler.ImportBackup).Methods("POST")

	return r
}
