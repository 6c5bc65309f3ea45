package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister adds the queued collectors to the default registry. Safe to
// call more than once; the router and tests both call it.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(collectors...)
	})
}
