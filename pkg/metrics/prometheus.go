package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	recommendations *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	weightedSignal  *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		recommendations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcouncil_recommendations_total",
				Help: "Total number of recommendations routed to a backend",
			},
			[]string{"backend", "ticker", "action"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockcouncil_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		weightedSignal: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockcouncil_weighted_signal",
				Help: "Last synthesized weighted signal for a ticker",
			},
			[]string{"ticker"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockcouncil_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRecommendation records a recommendation sent to a backend.
func (r *Recorder) RecordRecommendation(backend, ticker, action string) {
	r.recommendations.WithLabelValues(backend, ticker, action).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordWeightedSignal records the latest weighted signal for a ticker.
func (r *Recorder) RecordWeightedSignal(ticker string, signal float64) {
	r.weightedSignal.WithLabelValues(ticker).Set(signal)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
