package rollback

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"acgs-hq/sentinel/pkg/telemetry/metrics"
)

// ErrCircuitOpen indicates the rollback circuit is open and decision
// synthesis is suspended. The enforcement point serves cached or fallback
// decisions until the circuit closes.
var ErrCircuitOpen = errors.New("rollback circuit open")

// State is the circuit state.
type State int32

// Circuit states.
const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// probeSuccessTarget is the number of consecutive successful probes required
// to close a half-open circuit.
const probeSuccessTarget = 3

// Config contains controller thresholds and timings.
type Config struct {
	// SampleInterval is the bucket granularity and evaluation cadence.
	SampleInterval time.Duration

	// EvaluationWindow is the sliding window size.
	EvaluationWindow time.Duration

	// ConsecutiveBreaches is the number of consecutive breached
	// evaluations required to trip the circuit.
	ConsecutiveBreaches int

	// MaxErrorRate is the error-rate trip threshold.
	MaxErrorRate float64

	// MinCompliance is the mean-compliance trip threshold.
	MinCompliance float64

	// MaxP95Latency is the p95 latency trip threshold.
	MaxP95Latency time.Duration

	// Cooldown is how long the circuit stays open before probing.
	Cooldown time.Duration
}

// Controller is the system-wide circuit breaker. The decision path calls
// Allow before synthesis and Observe after; a background evaluator trips the
// circuit when window aggregates breach thresholds for enough consecutive
// evaluations.
//
// Allow and Observe are lock-free on the hot path: state is an atomic word
// and all transitions go through compare-and-swap.
type Controller struct {
	cfg     Config
	logger  *slog.Logger
	metrics *metrics.CircuitMetrics
	window  *window
	now     func() time.Time

	state          atomic.Int32
	openedAt       atomic.Int64 // unix nanos of the last trip
	breaches       atomic.Int32
	probeSuccesses atomic.Int32
	probeInFlight  atomic.Bool

	stop chan struct{}
	done chan struct{}
}

// NewController creates a controller in the CLOSED state. metrics may be nil.
func NewController(cfg Config, logger *slog.Logger, m *metrics.CircuitMetrics) *Controller {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 30 * time.Second
	}
	if cfg.EvaluationWindow <= 0 {
		cfg.EvaluationWindow = 5 * time.Minute
	}
	if cfg.ConsecutiveBreaches <= 0 {
		cfg.ConsecutiveBreaches = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		cfg:     cfg,
		logger:  logger.With("component", "rollback.controller"),
		metrics: m,
		window:  newWindow(cfg.EvaluationWindow, cfg.SampleInterval),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	c.metrics.SetState(float64(StateClosed))
	return c
}

// Start launches the background evaluator. Call Stop to terminate it.
func (c *Controller) Start() {
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.cfg.SampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.evaluate()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop terminates the evaluator and waits for it to exit.
func (c *Controller) Stop() {
	close(c.stop)
	<-c.done
}

// State returns the current circuit state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Allow reports whether a decision may proceed. Returns ErrCircuitOpen when
// the circuit is open, or when it is half-open and a probe is already in
// flight.
func (c *Controller) Allow() error {
	switch c.State() {
	case StateClosed:
		return nil
	case StateOpen:
		openedAt := time.Unix(0, c.openedAt.Load())
		if c.now().Sub(openedAt) < c.cfg.Cooldown {
			return ErrCircuitOpen
		}
		// Cool-down elapsed: move to half-open and admit this request
		// as the first probe.
		if c.state.CompareAndSwap(int32(StateOpen), int32(StateHalfOpen)) {
			c.probeSuccesses.Store(0)
			c.probeInFlight.Store(true)
			c.metrics.SetState(float64(StateHalfOpen))
			c.logger.Info("circuit half-open, probing")
			return nil
		}
		// Lost the race; fall through to half-open handling.
		fallthrough
	case StateHalfOpen:
		if c.probeInFlight.CompareAndSwap(false, true) {
			return nil
		}
		return ErrCircuitOpen
	default:
		return nil
	}
}

// Observe records one decision outcome. failed marks decisions that could
// not be synthesized (quorum loss, backend errors); compliance is the
// overall score of a successful decision.
func (c *Controller) Observe(failed bool, compliance float64, latency time.Duration) {
	c.window.record(failed, compliance, latency)

	if c.State() != StateHalfOpen {
		return
	}
	c.probeInFlight.Store(false)
	if failed {
		c.reopen("probe failed")
		return
	}
	if c.probeSuccesses.Add(1) >= probeSuccessTarget {
		if c.state.CompareAndSwap(int32(StateHalfOpen), int32(StateClosed)) {
			c.breachesReset()
			c.window.reset()
			c.metrics.SetState(float64(StateClosed))
			c.logger.Info("circuit closed after successful probes")
		}
	}
}

// evaluate runs one threshold check over the window.
func (c *Controller) evaluate() {
	if c.State() != StateClosed {
		return
	}

	agg := c.window.aggregate()
	if agg.Requests == 0 {
		c.breaches.Store(0)
		return
	}

	breached := agg.ErrorRate > c.cfg.MaxErrorRate ||
		(c.cfg.MinCompliance > 0 && agg.MeanCompliance < c.cfg.MinCompliance) ||
		(c.cfg.MaxP95Latency > 0 && agg.P95Latency > c.cfg.MaxP95Latency)

	if !breached {
		c.breaches.Store(0)
		return
	}

	breaches := c.breaches.Add(1)
	c.logger.Warn("rollback threshold breached",
		"consecutive", breaches,
		"required", c.cfg.ConsecutiveBreaches,
		"error_rate", agg.ErrorRate,
		"mean_compliance", agg.MeanCompliance,
		"p95_latency", agg.P95Latency,
	)
	if int(breaches) >= c.cfg.ConsecutiveBreaches {
		c.trip(agg)
	}
}

func (c *Controller) trip(agg Aggregate) {
	if !c.state.CompareAndSwap(int32(StateClosed), int32(StateOpen)) {
		return
	}
	c.openedAt.Store(c.now().UnixNano())
	c.breaches.Store(0)
	c.metrics.SetState(float64(StateOpen))
	c.metrics.RecordTrip()
	c.logger.Error("circuit tripped, decisions suspended",
		"error_rate", agg.ErrorRate,
		"mean_compliance", agg.MeanCompliance,
		"p95_latency", agg.P95Latency,
		"cooldown", c.cfg.Cooldown,
	)
}

// reopen returns a half-open circuit to open after a failed probe.
func (c *Controller) reopen(reason string) {
	if !c.state.CompareAndSwap(int32(StateHalfOpen), int32(StateOpen)) {
		return
	}
	c.openedAt.Store(c.now().UnixNano())
	c.metrics.SetState(float64(StateOpen))
	c.logger.Warn("circuit reopened", "reason", reason)
}

func (c *Controller) breachesReset() {
	c.breaches.Store(0)
}
