package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsensusMetrics tracks consensus engine metrics.
//
// Metrics:
//   - sentinel_model_calls_total: backend calls by model and status
//   - sentinel_model_latency_seconds: backend call latency by model
//   - sentinel_quorum_failures_total: syntheses refused for lack of quorum
//   - sentinel_model_breaker_trips_total: per-model breaker trips
type ConsensusMetrics struct {
	modelCalls     *prometheus.CounterVec
	modelLatency   *prometheus.HistogramVec
	quorumFailures prometheus.Counter
	breakerTrips   *prometheus.CounterVec
}

// NewConsensusMetrics creates and registers consensus metrics.
func NewConsensusMetrics(namespace string, registry *prometheus.Registry) *ConsensusMetrics {
	m := &ConsensusMetrics{
		modelCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Model backend calls by model and status",
			},
			[]string{"model", "status"},
		),
		modelLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_latency_seconds",
				Help:      "Model backend call latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 11), // 5ms to ~5s
			},
			[]string{"model"},
		),
		quorumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quorum_failures_total",
			Help:      "Syntheses refused because quorum was not met",
		}),
		breakerTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_breaker_trips_total",
				Help:      "Per-model circuit breaker trips",
			},
			[]string{"model"},
		),
	}

	registry.MustRegister(m.modelCalls, m.modelLatency, m.quorumFailures, m.breakerTrips)
	return m
}

// RecordModelCall records one backend call.
// status is "ok", "error", or "skipped".
func (m *ConsensusMetrics) RecordModelCall(model, status string, latency time.Duration) {
	if m == nil {
		return
	}
	m.modelCalls.WithLabelValues(model, status).Inc()
	if status != "skipped" {
		m.modelLatency.WithLabelValues(model).Observe(latency.Seconds())
	}
}

// RecordQuorumFailure records a refused synthesis.
func (m *ConsensusMetrics) RecordQuorumFailure() {
	if m == nil {
		return
	}
	m.quorumFailures.Inc()
}

// RecordBreakerTrip records a per-model breaker trip.
func (m *ConsensusMetrics) RecordBreakerTrip(model string) {
	if m == nil {
		return
	}
	m.breakerTrips.WithLabelValues(model).Inc()
}
