package metrics

import "github.com/prometheus/client_golang/prometheus"

// CircuitMetrics tracks the rollback controller's circuit state.
//
// Metrics:
//   - sentinel_circuit_state: 0 CLOSED, 1 OPEN, 2 HALF_OPEN
//   - sentinel_circuit_trips_total: CLOSED to OPEN transitions
type CircuitMetrics struct {
	state prometheus.Gauge
	trips prometheus.Counter
}

// NewCircuitMetrics creates and registers circuit metrics.
func NewCircuitMetrics(namespace string, registry *prometheus.Registry) *CircuitMetrics {
	m := &CircuitMetrics{
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_state",
			Help:      "Rollback circuit state (0=closed, 1=open, 2=half_open)",
		}),
		trips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_trips_total",
			Help:      "Rollback circuit trips (closed to open transitions)",
		}),
	}
	registry.MustRegister(m.state, m.trips)
	return m
}

// SetState records the current circuit state.
func (m *CircuitMetrics) SetState(state float64) {
	if m == nil {
		return
	}
	m.state.Set(state)
}

// RecordTrip records a circuit trip.
func (m *CircuitMetrics) RecordTrip() {
	if m == nil {
		return
	}
	m.trips.Inc()
}
