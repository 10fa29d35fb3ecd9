package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Signal metrics
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outpost_signals_total",
			Help: "Total number of signals dispatched by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	SignalRedeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outpost_signal_redeliveries_total",
			Help: "Total number of redeliveries after a handler failure",
		},
		[]string{"kind"},
	)

	// Recovery metrics
	RecoveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outpost_recoveries_total",
			Help: "Total number of recovery invocations by outcome",
		},
		[]string{"outcome"},
	)

	RecoveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outpost_recovery_duration_seconds",
			Help:    "Time from interruption signal to replacement running in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	ReadinessPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "outpost_readiness_polls_total",
			Help: "Total number of lifecycle-state polls while waiting for a replacement",
		},
	)

	// Reconciliation metrics
	DNSUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outpost_dns_updates_total",
			Help: "Total number of DNS reconciliations by outcome",
		},
		[]string{"outcome"},
	)

	ReconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "outpost_reconcile_duration_seconds",
			Help:    "DNS reconciliation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RetryAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outpost_retry_attempts_total",
			Help: "Total number of failed attempts inside retry loops by operation",
		},
		[]string{"operation"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(SignalsTotal)
	prometheus.MustRegister(SignalRedeliveries)
	prometheus.MustRegister(RecoveriesTotal)
	prometheus.MustRegister(RecoveryDuration)
	prometheus.MustRegister(ReadinessPolls)
	prometheus.MustRegister(DNSUpdatesTotal)
	prometheus.MustRegister(ReconcileDuration)
	prometheus.MustRegister(RetryAttempts)
}

// Outcome labels shared by the counters above.
const (
	OutcomeHandled = "handled"
	OutcomeIgnored = "ignored"
	OutcomeFailed  = "failed"
)

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
