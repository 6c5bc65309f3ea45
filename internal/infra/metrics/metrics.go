// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(claimsTotal, validationsTotal, logAppendFailures, storeLatencyMs)
}

var (
	claimsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_claims_total",
			Help: "Claim attempts by result (claimed/reentry/developer/already_used/disabled/not_found/conflict/unavailable/invalid_input).",
		},
		[]string{"result"},
	)

	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_validations_total",
			Help: "Validate calls by verdict reason.",
		},
		[]string{"result"},
	)

	logAppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activation_log_append_failures_total",
			Help: "Audit log writes that failed after the transition was committed.",
		},
	)

	storeLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "activation_store_latency_ms",
			Help:    "Latency of use-case storage round trips in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 3000},
		},
		[]string{"op"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// -------- Activation helpers --------

func IncClaim(result string) {
	claimsTotal.WithLabelValues(norm(result)).Inc()
}

func IncValidation(result string) {
	validationsTotal.WithLabelValues(norm(result)).Inc()
}

func IncLogAppendFailure() {
	logAppendFailures.Inc()
}

func ObserveStoreLatency(op string, ms float64) {
	storeLatencyMs.WithLabelValues(norm(op)).Observe(ms)
}
