package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the reconciliation counters exposed on /metrics.
type Metrics struct {
	CallbacksTotal       *prometheus.CounterVec // labels: outcome
	VerificationAttempts *prometheus.CounterVec // labels: source, result
	MergeConflicts       prometheus.Counter
	ReconcileDuration    prometheus.Histogram
}

// NewMetrics creates and registers the reconciliation metrics.
// Passing a nil Registerer yields unregistered metrics (useful for tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciler_callbacks_total",
			Help: "Gateway callbacks processed, by reconciliation outcome",
		}, []string{"outcome"}),

		VerificationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reconciler_verification_attempts_total",
			Help: "Verification queries issued, by candidate source and result",
		}, []string{"source", "result"}),

		MergeConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_merge_conflicts_total",
			Help: "Merges refused because a paid order carried a different transaction id",
		}),

		ReconcileDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reconciler_reconcile_duration_seconds",
			Help:    "End-to-end latency of one reconciliation pass",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}
