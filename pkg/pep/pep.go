package pep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"acgs-hq/sentinel/pkg/audit"
	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/rollback"
	"acgs-hq/sentinel/pkg/telemetry/metrics"
)

// Synthesizer produces consensus decisions. Implemented by
// *consensus.Engine.
type Synthesizer interface {
	Synthesize(ctx context.Context, req *consensus.DecisionRequest) (*consensus.ConsensusDecision, error)
}

// Config contains enforcement point parameters.
type Config struct {
	// RequestBudget bounds the consensus round per decision.
	RequestBudget time.Duration

	// CacheEnabled turns the decision cache on or off.
	CacheEnabled bool
}

// EnforcementPoint is the single entry path for governance decisions.
type EnforcementPoint struct {
	validator *constitution.Validator
	store     *constitution.Store
	engine    Synthesizer
	cache     *Cache
	fallback  *FallbackStore
	circuit   *rollback.Controller
	recorder  *audit.Recorder
	cfg       Config
	logger    *slog.Logger
	metrics   *metrics.DecisionMetrics
}

// NewEnforcementPoint creates an enforcement point. cache, circuit, and
// recorder may be nil to disable the corresponding stage; metrics may be nil.
func NewEnforcementPoint(
	validator *constitution.Validator,
	store *constitution.Store,
	engine Synthesizer,
	cache *Cache,
	fallback *FallbackStore,
	circuit *rollback.Controller,
	recorder *audit.Recorder,
	cfg Config,
	logger *slog.Logger,
	m *metrics.DecisionMetrics,
) (*EnforcementPoint, error) {
	if validator == nil {
		return nil, fmt.Errorf("a constitutional validator is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("a consensus engine is required")
	}
	if fallback == nil {
		fallback = NewFallbackStore(0)
	}
	if cfg.RequestBudget <= 0 {
		cfg.RequestBudget = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnforcementPoint{
		validator: validator,
		store:     store,
		engine:    engine,
		cache:     cache,
		fallback:  fallback,
		circuit:   circuit,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger.With("component", "pep"),
		metrics:   m,
	}, nil
}

// Purge drops cached and fallback decisions. Wired to principle set reloads
// so no decision outlives the constitution it was made under.
func (p *EnforcementPoint) Purge() {
	if p.cache != nil {
		p.cache.Purge()
	}
	p.fallback.Purge()
}

// Decide runs one request through the enforcement pipeline.
//
// Hash validation failures are returned as errors (the request is rejected
// and audited); all other degradations produce a fallback decision with the
// Degraded flag set, never an error.
func (p *EnforcementPoint) Decide(ctx context.Context, req *consensus.DecisionRequest) (*Decision, error) {
	start := time.Now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if p.circuit != nil {
		if err := p.circuit.Allow(); err != nil {
			p.logger.Warn("circuit open, serving fallback", "request_id", req.RequestID)
			return p.degrade(req, rollback.ErrCircuitOpen, start), nil
		}
	}

	if err := p.validator.Validate(); err != nil {
		p.metrics.RecordHashFailure()
		p.logger.Error("constitutional validation failed",
			"request_id", req.RequestID,
			"error", err,
		)
		p.record(req, nil, audit.OutcomeRejected, false, false, start)
		return nil, fmt.Errorf("request %s rejected: %w", req.RequestID, err)
	}

	var key string
	if p.cache != nil && p.cfg.CacheEnabled {
		key = CacheKey(req.Content, req.Context, req.Category, p.store.Hash())
		if cached, ok := p.cache.Get(key); ok {
			p.metrics.RecordCacheHit()
			// Shallow copy re-keyed to this request; the cached decision
			// keeps the original requester's id for the next hit.
			served := *cached
			served.RequestID = req.RequestID
			decision := &Decision{
				ConsensusDecision: &served,
				Cached:            true,
				Latency:           time.Since(start),
			}
			decision.AuditID = p.record(req, &served, outcome(&served), true, false, start)
			p.metrics.RecordDecision(outcome(&served), decision.Source(), served.OverallScore, decision.Latency)
			return decision, nil
		}
		p.metrics.RecordCacheMiss()
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.RequestBudget)
	synthesized, err := p.engine.Synthesize(cctx, req)
	cancel()

	if err != nil {
		if p.circuit != nil {
			p.circuit.Observe(true, 0, time.Since(start))
		}
		reason := err
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Errorf("%w: %v", ErrBudgetExceeded, err)
		}
		p.logger.Warn("consensus unavailable, serving fallback",
			"request_id", req.RequestID,
			"error", reason,
		)
		return p.degrade(req, reason, start), nil
	}

	if p.circuit != nil {
		p.circuit.Observe(false, synthesized.OverallScore, time.Since(start))
	}
	p.fallback.Remember(req.Category, synthesized)
	if key != "" {
		p.cache.Put(key, synthesized)
	}

	decision := &Decision{
		ConsensusDecision: synthesized,
		Latency:           time.Since(start),
	}
	decision.AuditID = p.record(req, synthesized, outcome(synthesized), false, false, start)
	p.metrics.RecordDecision(outcome(synthesized), decision.Source(), synthesized.OverallScore, decision.Latency)
	return decision, nil
}

// degrade serves the category's last-known-good decision, or default-deny.
func (p *EnforcementPoint) degrade(req *consensus.DecisionRequest, reason error, start time.Time) *Decision {
	base, ok := p.fallback.Get(req.Category)
	if !ok {
		base = p.defaultDeny(req)
	}

	// Shallow copy re-keyed to this request; the stored decision stays
	// untouched for the next degraded request.
	served := *base
	served.RequestID = req.RequestID

	decision := &Decision{
		ConsensusDecision: &served,
		Fallback:          true,
		Degraded:          true,
		Reason:            reason,
		Latency:           time.Since(start),
	}
	decision.AuditID = p.record(req, &served, outcome(&served), false, true, start)
	p.metrics.RecordDecision(outcome(&served), decision.Source(), served.OverallScore, decision.Latency)
	return decision
}

// defaultDeny is the decision of last resort: non-compliant, zero score.
func (p *EnforcementPoint) defaultDeny(req *consensus.DecisionRequest) *consensus.ConsensusDecision {
	return &consensus.ConsensusDecision{
		RequestID:          req.RequestID,
		OverallScore:       0,
		Compliant:          false,
		StrategyUsed:       "default_deny",
		ConstitutionalHash: p.store.Hash(),
		SynthesizedAt:      time.Now(),
	}
}

// record writes the audit entry and returns its id.
func (p *EnforcementPoint) record(req *consensus.DecisionRequest, d *consensus.ConsensusDecision, out string, cached, degraded bool, start time.Time) string {
	if p.recorder == nil {
		return ""
	}
	rec := &audit.Record{
		RequestID:          req.RequestID,
		TenantID:           req.TenantID,
		ConstitutionalHash: p.store.Hash(),
		Category:           req.Category,
		Outcome:            out,
		Cached:             cached,
		Degraded:           degraded,
		LatencyMS:          time.Since(start).Milliseconds(),
	}
	if d != nil {
		rec.Compliant = d.Compliant
		rec.Score = d.OverallScore
		rec.Strategy = d.StrategyUsed
		if len(d.PerPrinciple) > 0 {
			if raw, err := json.Marshal(d.PerPrinciple); err == nil {
				rec.Breakdown = raw
			}
		}
	}
	return p.recorder.Record(rec)
}

func outcome(d *consensus.ConsensusDecision) string {
	if d.Compliant {
		return audit.OutcomeCompliant
	}
	return audit.OutcomeNonCompliant
}
