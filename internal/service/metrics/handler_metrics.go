package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	HandlerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "equitylens",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of analysis endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	HandlerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "equitylens",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by analysis endpoint and code",
		},
		[]string{"endpoint", "code"},
	)
)

// Register adds the handler metrics to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(HandlerLatency, HandlerErrors)
	})
}
