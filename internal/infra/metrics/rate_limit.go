package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(rateLimitRejections) }

var rateLimitRejections = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by the per-client rate limiter.",
	},
	[]string{"route"},
)

func IncRateLimitRejection(route string) {
	rateLimitRejections.WithLabelValues(norm(route)).Inc()
}
