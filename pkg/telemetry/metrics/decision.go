package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks enforcement-point decision metrics.
//
// Metrics:
//   - sentinel_decisions_total: decisions by outcome and source
//   - sentinel_decision_duration_seconds: end-to-end decision latency
//   - sentinel_compliance_score: distribution of overall compliance scores
//   - sentinel_cache_hits_total / sentinel_cache_misses_total
//   - sentinel_hash_validation_failures_total
type DecisionMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration prometheus.Histogram
	complianceScore  prometheus.Histogram
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	hashFailures     prometheus.Counter
}

// NewDecisionMetrics creates and registers decision metrics.
func NewDecisionMetrics(namespace string, registry *prometheus.Registry) *DecisionMetrics {
	m := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decisions_total",
				Help:      "Total governance decisions by outcome and source",
			},
			[]string{"outcome", "source"},
		),
		decisionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "decision_duration_seconds",
				Help:      "End-to-end decision latency in seconds",
				// Cache hits land in the sub-5ms buckets; consensus
				// round-trips occupy the tail up to the 2s budget.
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
			},
		),
		complianceScore: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "compliance_score",
				Help:      "Distribution of overall compliance scores",
				Buckets:   prometheus.LinearBuckets(0, 0.05, 21), // 0 to 1
			},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Decision cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Decision cache misses",
		}),
		hashFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hash_validation_failures_total",
			Help:      "Constitutional hash validation failures",
		}),
	}

	registry.MustRegister(
		m.decisionsTotal,
		m.decisionDuration,
		m.complianceScore,
		m.cacheHits,
		m.cacheMisses,
		m.hashFailures,
	)
	return m
}

// RecordDecision records one completed decision.
// outcome is "compliant", "non_compliant", or "rejected"; source is
// "cache", "consensus", or "fallback".
func (m *DecisionMetrics) RecordDecision(outcome, source string, score float64, duration time.Duration) {
	if m == nil {
		return
	}
	m.decisionsTotal.WithLabelValues(outcome, source).Inc()
	m.decisionDuration.Observe(duration.Seconds())
	m.complianceScore.Observe(score)
}

// RecordCacheHit records a decision cache hit.
func (m *DecisionMetrics) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// RecordCacheMiss records a decision cache miss.
func (m *DecisionMetrics) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// RecordHashFailure records a constitutional hash validation failure.
func (m *DecisionMetrics) RecordHashFailure() {
	if m == nil {
		return
	}
	m.hashFailures.Inc()
}
