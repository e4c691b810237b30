package consensus_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/consensus/strategies"
	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/models"
	"acgs-hq/sentinel/pkg/scoring"
)

// fakeBackend returns a fixed score, or fails, and counts invocations.
type fakeBackend struct {
	name   string
	weight float64
	score  float64
	err    error
	delay  time.Duration
	calls  atomic.Int64
}

func (b *fakeBackend) Evaluate(ctx context.Context, _ *models.EvaluationRequest) (*models.Evaluation, error) {
	b.calls.Add(1)
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if b.err != nil {
		return nil, b.err
	}
	return &models.Evaluation{Score: b.score, Reasoning: "fixed"}, nil
}

func (b *fakeBackend) HealthCheck(context.Context) error { return nil }
func (b *fakeBackend) Name() string                      { return b.name }
func (b *fakeBackend) Weight() float64                   { return b.weight }

func newStore(t *testing.T, critical bool) *constitution.Store {
	t.Helper()
	principles := []constitution.Principle{
		{
			ID:       "data_minimization",
			Text:     "Collect only what the decision requires.",
			Category: constitution.CategoryGovernance,
			Priority: 7,
			Keywords: []string{"bulk_collection"},
		},
		{
			ID:       "decision_transparency",
			Text:     "Decisions must carry a reviewable rationale.",
			Category: constitution.CategoryTransparency,
			Priority: 5,
		},
	}
	if critical {
		principles = append(principles, constitution.Principle{
			ID:       "human_oversight_required",
			Text:     "High-impact actions require human sign-off.",
			Category: constitution.CategorySafety,
			Priority: 10,
			Critical: true,
			Keywords: []string{"without_oversight"},
		})
	}
	set, err := constitution.NewPrincipleSet(principles)
	if err != nil {
		t.Fatalf("NewPrincipleSet: %v", err)
	}
	return constitution.NewStore(set, nil)
}

func newEngine(t *testing.T, backends []models.Backend, store *constitution.Store, cfg consensus.Config) *consensus.Engine {
	t.Helper()
	strategy, err := strategies.New(strategies.WeightedAverage, nil)
	if err != nil {
		t.Fatalf("strategies.New: %v", err)
	}
	engine, err := consensus.NewEngine(
		backends,
		scoring.NewScorer(scoring.Config{}),
		store,
		strategy,
		nil,
		cfg,
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine
}

func TestSynthesizeWeightedAverage(t *testing.T) {
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.96},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.94},
		&fakeBackend{name: "m3", weight: 1.0, score: 0.97},
	}
	engine := newEngine(t, backends, newStore(t, false), consensus.Config{
		ComplianceThreshold: 0.95,
		CriticalFloor:       -1,
	})

	decision, err := engine.Synthesize(context.Background(), &consensus.DecisionRequest{
		RequestID: "req-1",
		Content:   "routine report generation",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	want := (0.96 + 0.94 + 0.97) / 3
	if math.Abs(decision.OverallScore-want) > 1e-9 {
		t.Errorf("overall score = %v, want %v", decision.OverallScore, want)
	}
	if !decision.Compliant {
		t.Errorf("decision not compliant at score %v", decision.OverallScore)
	}
	if len(decision.ContributingModels) != 3 {
		t.Errorf("contributing models = %v, want 3", decision.ContributingModels)
	}
	if decision.StrategyUsed != strategies.WeightedAverage {
		t.Errorf("strategy = %q", decision.StrategyUsed)
	}
	if decision.ConstitutionalHash == "" {
		t.Error("decision missing constitutional hash")
	}
}

func TestSynthesizeBelowThreshold(t *testing.T) {
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.90},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.92},
	}
	engine := newEngine(t, backends, newStore(t, false), consensus.Config{
		ComplianceThreshold: 0.95,
		CriticalFloor:       -1,
	})

	decision, err := engine.Synthesize(context.Background(), &consensus.DecisionRequest{
		RequestID: "req-2",
		Content:   "routine report generation",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if decision.Compliant {
		t.Errorf("decision compliant at score %v", decision.OverallScore)
	}
	if len(decision.Violations) == 0 {
		t.Error("expected violations below threshold")
	}
}

func TestSynthesizeCriticalFloor(t *testing.T) {
	// Aggregate clears 0.95 but the critical principle sits below the
	// 0.99 floor, so the second gate must reject.
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.96},
	}
	engine := newEngine(t, backends, newStore(t, true), consensus.Config{
		ComplianceThreshold: 0.95,
		CriticalFloor:       0.99,
	})

	decision, err := engine.Synthesize(context.Background(), &consensus.DecisionRequest{
		RequestID: "req-3",
		Content:   "routine report generation",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if decision.OverallScore < 0.95 {
		t.Fatalf("overall score = %v, want >= 0.95", decision.OverallScore)
	}
	if decision.Compliant {
		t.Error("critical floor breach must not be compliant")
	}

	found := false
	for _, v := range decision.Violations {
		if v.PrincipleID == "human_oversight_required" && v.Threshold == 0.99 {
			found = true
		}
	}
	if !found {
		t.Errorf("violations missing critical floor entry: %+v", decision.Violations)
	}
}

func TestSynthesizeQuorumNotMet(t *testing.T) {
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "m2", weight: 1.0, err: errors.New("boom")},
		&fakeBackend{name: "m3", weight: 1.0, err: errors.New("boom")},
	}
	engine := newEngine(t, backends, newStore(t, false), consensus.Config{
		ComplianceThreshold: 0.95,
		CriticalFloor:       -1,
		MinQuorum:           2,
	})

	_, err := engine.Synthesize(context.Background(), &consensus.DecisionRequest{
		RequestID: "req-4",
		Content:   "routine report generation",
	})
	if !errors.Is(err, consensus.ErrConsensusUnavailable) {
		t.Fatalf("err = %v, want ErrConsensusUnavailable", err)
	}

	var qerr *consensus.QuorumError
	if !errors.As(err, &qerr) {
		t.Fatalf("err = %T, want *QuorumError", err)
	}
	if qerr.Responded != 1 || qerr.Required != 2 || qerr.Dispatched != 3 {
		t.Errorf("quorum error = %+v", qerr)
	}
}

func TestSynthesizeAbandonsStragglers(t *testing.T) {
	backends := []models.Backend{
		&fakeBackend{name: "fast1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "fast2", weight: 1.0, score: 0.96},
		&fakeBackend{name: "slow", weight: 1.0, score: 0.10, delay: 2 * time.Second},
	}
	engine := newEngine(t, backends, newStore(t, false), consensus.Config{
		ComplianceThreshold: 0.95,
		CriticalFloor:       -1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	decision, err := engine.Synthesize(ctx, &consensus.DecisionRequest{
		RequestID: "req-5",
		Content:   "routine report generation",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("synthesis waited on straggler: %v", elapsed)
	}
	if len(decision.ContributingModels) > 3 {
		t.Fatalf("contributing models = %v", decision.ContributingModels)
	}
	for _, m := range decision.ContributingModels {
		if m == "slow" && decision.OverallScore < 0.9 {
			t.Errorf("straggler dragged decision to %v", decision.OverallScore)
		}
	}
}

func TestSynthesizeBreakerSkipsFailingModel(t *testing.T) {
	failing := &fakeBackend{name: "flaky", weight: 1.0, err: errors.New("boom")}
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.96},
		failing,
	}
	engine := newEngine(t, backends, newStore(t, false), consensus.Config{
		ComplianceThreshold:     0.95,
		CriticalFloor:           -1,
		BreakerFailureThreshold: 3,
		BreakerCooldown:         time.Minute,
	})

	req := &consensus.DecisionRequest{RequestID: "req-6", Content: "routine report generation"}
	for i := 0; i < 3; i++ {
		if _, err := engine.Synthesize(context.Background(), req); err != nil {
			t.Fatalf("Synthesize %d: %v", i, err)
		}
	}
	if !engine.Breaker().Tripped("flaky") {
		t.Fatal("breaker not tripped after 3 consecutive failures")
	}

	before := failing.calls.Load()
	decision, err := engine.Synthesize(context.Background(), req)
	if err != nil {
		t.Fatalf("Synthesize after trip: %v", err)
	}
	if failing.calls.Load() != before {
		t.Error("tripped backend was still called")
	}
	if len(decision.ContributingModels) != 2 {
		t.Errorf("contributing models = %v, want healthy pair", decision.ContributingModels)
	}
	if !decision.Compliant {
		t.Errorf("healthy pair should carry the decision, got score %v", decision.OverallScore)
	}
}

func TestSynthesizeKeywordViolation(t *testing.T) {
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.96},
	}
	engine := newEngine(t, backends, newStore(t, true), consensus.Config{
		ComplianceThreshold: 0.95,
		CriticalFloor:       0.99,
	})

	decision, err := engine.Synthesize(context.Background(), &consensus.DecisionRequest{
		RequestID: "req-7",
		Content:   "deploy the change without_oversight tonight",
	})
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if decision.Compliant {
		t.Errorf("keyword-violating request compliant at %v", decision.OverallScore)
	}
	if score := decision.PerPrinciple["human_oversight_required"]; score > 0.5 {
		t.Errorf("oversight score = %v, want penalized", score)
	}
}

func TestNewEngineValidation(t *testing.T) {
	strategy, err := strategies.New(strategies.WeightedAverage, nil)
	if err != nil {
		t.Fatalf("strategies.New: %v", err)
	}
	scorer := scoring.NewScorer(scoring.Config{})
	store := newStore(t, false)

	if _, err := consensus.NewEngine(nil, scorer, store, strategy, nil, consensus.Config{}, nil, nil); err == nil {
		t.Error("expected error for empty backend list")
	}
	backends := []models.Backend{&fakeBackend{name: "m1", weight: 1.0, score: 0.9}}
	if _, err := consensus.NewEngine(backends, scorer, store, nil, nil, consensus.Config{}, nil, nil); err == nil {
		t.Error("expected error for nil strategy")
	}
}

func TestSynthesizeNoActiveSet(t *testing.T) {
	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.96},
	}
	engine := newEngine(t, backends, constitution.NewStore(nil, nil), consensus.Config{})

	_, err := engine.Synthesize(context.Background(), &consensus.DecisionRequest{RequestID: "req-8"})
	if !errors.Is(err, constitution.ErrNoPrinciples) {
		t.Fatalf("err = %v, want ErrNoPrinciples", err)
	}
}

func TestSynthesizePerformanceTrackerObserved(t *testing.T) {
	tracker := consensus.NewPerformanceTracker(0.2, 500*time.Millisecond)
	strategy := strategies.NewAdaptive(tracker)

	backends := []models.Backend{
		&fakeBackend{name: "m1", weight: 1.0, score: 0.97},
		&fakeBackend{name: "m2", weight: 1.0, score: 0.96},
	}
	engine, err := consensus.NewEngine(
		backends,
		scoring.NewScorer(scoring.Config{}),
		newStore(t, false),
		strategy,
		tracker,
		consensus.Config{ComplianceThreshold: 0.95, CriticalFloor: -1},
		nil,
		nil,
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for i := 0; i < 3; i++ {
		req := &consensus.DecisionRequest{
			RequestID: fmt.Sprintf("req-9-%d", i),
			Content:   "routine report generation",
		}
		if _, err := engine.Synthesize(context.Background(), req); err != nil {
			t.Fatalf("Synthesize %d: %v", i, err)
		}
	}

	snap := tracker.Snapshot()
	for _, name := range []string{"m1", "m2"} {
		stats, ok := snap[name]
		if !ok {
			t.Fatalf("tracker has no stats for %s", name)
		}
		if stats.Samples != 3 {
			t.Errorf("%s samples = %d, want 3", name, stats.Samples)
		}
		if stats.AccuracyEMA <= 0 {
			t.Errorf("%s accuracy EMA = %v, want > 0", name, stats.AccuracyEMA)
		}
	}
}
