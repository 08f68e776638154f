package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	AnalystLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stockcouncil",
			Subsystem: "analyst",
			Name:      "latency_seconds",
			Help:      "Latency of remote analyst calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	AnalystErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stockcouncil",
			Subsystem: "analyst",
			Name:      "errors_total",
			Help:      "Errors by analyst agent",
		},
		[]string{"agent"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(AnalystLatency, AnalystErrors)
	})
}
