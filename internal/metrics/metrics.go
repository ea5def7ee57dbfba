// Package metrics holds the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MutationsTotal counts applied ledger operations by entry type.
	MutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_ledger_mutations_total",
		Help: "Number of applied ledger mutations by entry type.",
	}, []string{"type"})

	// RevertsTotal counts revert attempts by outcome (ok, denied).
	RevertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_ledger_reverts_total",
		Help: "Number of revert attempts by outcome.",
	}, []string{"result"})

	// PriceFetchDuration observes market-data fetch latency per outcome.
	PriceFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vr_price_fetch_duration_seconds",
		Help:    "Latency of market price fetches.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	// PriceFetchFailures counts price or rate fetches that returned no
	// usable quote.
	PriceFetchFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vr_price_fetch_failures_total",
		Help: "Number of price/rate fetches that yielded no update.",
	})

	// SnapshotsRecorded counts persisted trend points by kind
	// (position, daily).
	SnapshotsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vr_snapshots_recorded_total",
		Help: "Number of trend snapshots recorded.",
	}, []string{"kind"})
)
