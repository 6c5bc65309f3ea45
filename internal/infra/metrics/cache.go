package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheLookups) }

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "activation_cache_lookups_total",
		Help: "Read-through cache lookups in front of the code store.",
	},
	[]string{"cache", "result"}, // result: hit, miss, error
)

func IncCacheRequest(cacheName, result string) {
	cacheLookups.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
