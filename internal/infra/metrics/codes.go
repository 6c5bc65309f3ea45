package metrics

import (
	"activation-gate/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(codesTotal, statsSampleFailures)
}

var (
	codesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "activation_codes_total",
			Help: "Current number of activation codes by state.",
		},
		[]string{"state"}, // 'available', 'used', 'disabled'
	)

	statsSampleFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activation_stats_sample_failures_total",
			Help: "Failed periodic reads of code counts.",
		},
	)
)

// SetCodesTotal sets every state, so a state absent from counts reads as zero.
func SetCodesTotal(counts map[model.CodeState]int) {
	states := []model.CodeState{
		model.CodeStateAvailable,
		model.CodeStateUsed,
		model.CodeStateDisabled,
	}
	for _, state := range states {
		codesTotal.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
}

func IncStatsSampleFailure() {
	statsSampleFailures.Inc()
}
