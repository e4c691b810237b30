package consensus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/models"
	"acgs-hq/sentinel/pkg/scoring"
	"acgs-hq/sentinel/pkg/telemetry/metrics"
)

// Config contains engine parameters.
type Config struct {
	// ComplianceThreshold is the aggregate score required for a
	// compliant decision.
	ComplianceThreshold float64

	// CriticalFloor is the per-principle minimum for critical
	// principles. Negative disables the second gate.
	CriticalFloor float64

	// MinQuorum is the minimum number of responding backends.
	MinQuorum int

	// BreakerFailureThreshold trips a per-model breaker.
	BreakerFailureThreshold int

	// BreakerCooldown is the per-model breaker cool-down window.
	BreakerCooldown time.Duration
}

// Engine fans a decision request out to all registered model backends,
// scores their responses against the active principle set, and combines the
// opinions with the configured strategy.
type Engine struct {
	backends []models.Backend
	scorer   *scoring.Scorer
	store    *constitution.Store
	strategy Strategy
	breaker  *ModelBreaker
	tracker  *PerformanceTracker
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.ConsensusMetrics
}

// NewEngine creates a consensus engine. tracker may be nil when the
// configured strategy does not use performance statistics; metrics may be
// nil to disable metric emission.
func NewEngine(
	backends []models.Backend,
	scorer *scoring.Scorer,
	store *constitution.Store,
	strategy Strategy,
	tracker *PerformanceTracker,
	cfg Config,
	logger *slog.Logger,
	m *metrics.ConsensusMetrics,
) (*Engine, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("at least one model backend is required")
	}
	if strategy == nil {
		return nil, fmt.Errorf("a consensus strategy is required")
	}
	if cfg.ComplianceThreshold <= 0 {
		cfg.ComplianceThreshold = 0.95
	}
	if cfg.MinQuorum < 2 {
		cfg.MinQuorum = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "consensus.engine")

	return &Engine{
		backends: backends,
		scorer:   scorer,
		store:    store,
		strategy: strategy,
		breaker:  NewModelBreaker(cfg.BreakerFailureThreshold, cfg.BreakerCooldown, logger),
		tracker:  tracker,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}, nil
}

// Breaker exposes the per-model breaker registry for introspection.
func (e *Engine) Breaker() *ModelBreaker {
	return e.breaker
}

// Synthesize produces a consensus decision for the request.
//
// All backends whose breakers are closed are invoked concurrently; each call
// runs under the request context so client cancellation and the enforcement
// point's budget propagate into in-flight calls. Opinions from backends that
// respond before the context expires are used if quorum is met; stragglers
// are abandoned, not awaited.
//
// Returns a *QuorumError wrapping ErrConsensusUnavailable when fewer than
// MinQuorum backends respond.
func (e *Engine) Synthesize(ctx context.Context, req *DecisionRequest) (*ConsensusDecision, error) {
	set := e.store.Active()
	if set == nil {
		return nil, constitution.ErrNoPrinciples
	}

	opinions := e.fanOut(ctx, req, set)

	responded := make([]ModelOpinion, 0, len(opinions))
	for _, op := range opinions {
		if op.Responded() {
			responded = append(responded, op)
		}
	}

	if len(responded) < e.cfg.MinQuorum {
		e.metrics.RecordQuorumFailure()
		e.logger.Warn("quorum not met",
			"request_id", req.RequestID,
			"responded", len(responded),
			"dispatched", len(opinions),
			"required", e.cfg.MinQuorum,
		)
		return nil, &QuorumError{
			Responded:  len(responded),
			Required:   e.cfg.MinQuorum,
			Dispatched: len(opinions),
		}
	}

	syn, err := e.strategy.Combine(responded)
	if err != nil {
		return nil, fmt.Errorf("strategy %s failed: %w", e.strategy.Name(), err)
	}

	decision := e.gate(req, set, syn, responded)
	e.observe(responded, decision)

	e.logger.Debug("decision synthesized",
		"request_id", req.RequestID,
		"overall_score", decision.OverallScore,
		"compliant", decision.Compliant,
		"models", len(responded),
		"strategy", decision.StrategyUsed,
	)
	return decision, nil
}

// fanOut invokes all allowed backends concurrently and collects their
// opinions until every dispatched call returns or the context expires.
func (e *Engine) fanOut(ctx context.Context, req *DecisionRequest, set *constitution.PrincipleSet) []ModelOpinion {
	evalReq := &models.EvaluationRequest{
		RequestID:          req.RequestID,
		Content:            req.Content,
		Context:            req.Context,
		Category:           req.Category,
		ConstitutionalHash: set.Hash(),
	}
	dctx := scoring.DecisionContext{
		Content:    req.Content,
		Attributes: req.Context,
		Category:   req.Category,
	}

	results := make(chan ModelOpinion, len(e.backends))
	dispatched := 0
	for _, backend := range e.backends {
		if !e.breaker.Allow(backend.Name()) {
			e.metrics.RecordModelCall(backend.Name(), "skipped", 0)
			continue
		}
		dispatched++

		go func(b models.Backend) {
			start := time.Now()
			eval, err := b.Evaluate(ctx, evalReq)
			latency := time.Since(start)

			op := ModelOpinion{
				ModelID: b.Name(),
				Weight:  b.Weight(),
				Latency: latency,
			}
			if err != nil {
				op.Err = err
				if e.breaker.RecordFailure(b.Name()) {
					e.metrics.RecordBreakerTrip(b.Name())
				}
				e.metrics.RecordModelCall(b.Name(), "error", latency)
			} else {
				e.breaker.RecordSuccess(b.Name())
				op.Breakdown = e.scorer.Score(dctx, set, scoring.ModelOutput{
					Score:     eval.Score,
					Reasoning: eval.Reasoning,
				})
				op.ComplianceScore = op.Breakdown.Overall
				op.Reasoning = eval.Reasoning
				e.metrics.RecordModelCall(b.Name(), "ok", latency)
			}

			// The channel is buffered for every dispatched call, so
			// sends never block even after the collector gives up.
			results <- op
		}(backend)
	}

	opinions := make([]ModelOpinion, 0, dispatched)
	for i := 0; i < dispatched; i++ {
		select {
		case op := <-results:
			opinions = append(opinions, op)
		case <-ctx.Done():
			return opinions
		}
	}
	return opinions
}

// gate applies the two-tier compliance gate and assembles the decision.
func (e *Engine) gate(req *DecisionRequest, set *constitution.PrincipleSet, syn *Synthesis, responded []ModelOpinion) *ConsensusDecision {
	contributing := make([]string, 0, len(responded))
	for _, op := range responded {
		contributing = append(contributing, op.ModelID)
	}

	compliant := syn.OverallScore >= e.cfg.ComplianceThreshold
	var violations []scoring.Violation

	if set.Empty() {
		compliant = false
		violations = append(violations, scoring.Violation{
			Threshold: e.cfg.ComplianceThreshold,
			Reason:    "empty principle set: failing closed",
		})
	}

	for _, p := range set.Principles() {
		score, ok := syn.PerPrinciple[p.ID]
		if !ok {
			continue
		}
		if score < e.cfg.ComplianceThreshold {
			violations = append(violations, scoring.Violation{
				PrincipleID: p.ID,
				Score:       score,
				Threshold:   e.cfg.ComplianceThreshold,
				Reason:      "aggregate score below compliance threshold",
			})
		}
		if p.Critical && e.cfg.CriticalFloor >= 0 && score < e.cfg.CriticalFloor {
			compliant = false
			violations = append(violations, scoring.Violation{
				PrincipleID: p.ID,
				Score:       score,
				Threshold:   e.cfg.CriticalFloor,
				Reason:      "critical principle below floor",
			})
		}
	}

	return &ConsensusDecision{
		RequestID:          req.RequestID,
		OverallScore:       syn.OverallScore,
		Compliant:          compliant,
		PerPrinciple:       syn.PerPrinciple,
		Violations:         violations,
		ContributingModels: contributing,
		StrategyUsed:       e.strategy.Name(),
		ConstitutionalHash: set.Hash(),
		SynthesizedAt:      time.Now(),
	}
}

// observe feeds per-model agreement and latency into the performance
// tracker, if one is configured.
func (e *Engine) observe(responded []ModelOpinion, decision *ConsensusDecision) {
	if e.tracker == nil {
		return
	}
	for _, op := range responded {
		agreed := (op.ComplianceScore >= e.cfg.ComplianceThreshold) == decision.Compliant
		e.tracker.Observe(op.ModelID, agreed, op.Latency)
	}
}
