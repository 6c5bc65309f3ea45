package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(adminActionTotal) }

var adminActionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "activation_admin_actions_total",
		Help: "Tracks admin lifecycle actions by outcome.",
	},
	[]string{"action", "status"}, // status: ok or the error reason
)

func IncAdminAction(action, status string) {
	adminActionTotal.WithLabelValues(norm(action), norm(status)).Inc()
}
