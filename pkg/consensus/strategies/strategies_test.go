package strategies

import (
	"math"
	"testing"
	"time"

	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/scoring"
)

func opinion(model string, weight, score float64) consensus.ModelOpinion {
	return consensus.ModelOpinion{
		ModelID:         model,
		Weight:          weight,
		ComplianceScore: score,
		Breakdown: scoring.Breakdown{
			PerPrinciple: map[string]float64{"p1": score},
			Overall:      score,
		},
	}
}

func TestNewSelectsStrategy(t *testing.T) {
	tracker := consensus.NewPerformanceTracker(0.2, 500*time.Millisecond)

	tests := []struct {
		name    string
		tracker *consensus.PerformanceTracker
		wantErr bool
	}{
		{WeightedAverage, nil, false},
		{MajorityVote, nil, false},
		{PerformanceAdaptive, tracker, false},
		{PerformanceAdaptive, nil, true},
		{"plurality", nil, true},
		{"", nil, true},
	}
	for _, tt := range tests {
		s, err := New(tt.name, tt.tracker)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q) expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("New(%q): %v", tt.name, err)
			continue
		}
		if s.Name() != tt.name {
			t.Errorf("New(%q).Name() = %q", tt.name, s.Name())
		}
	}
}

func TestWeightedCombine(t *testing.T) {
	s := &Weighted{}
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("m1", 1.0, 0.96),
		opinion("m2", 1.0, 0.94),
		opinion("m3", 1.0, 0.97),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	want := (0.96 + 0.94 + 0.97) / 3
	if math.Abs(syn.OverallScore-want) > 1e-9 {
		t.Errorf("overall = %v, want %v", syn.OverallScore, want)
	}
	if math.Abs(syn.PerPrinciple["p1"]-want) > 1e-9 {
		t.Errorf("per-principle p1 = %v, want %v", syn.PerPrinciple["p1"], want)
	}
}

func TestWeightedCombineUnequalWeights(t *testing.T) {
	s := &Weighted{}
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("heavy", 3.0, 1.0),
		opinion("light", 1.0, 0.0),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if math.Abs(syn.OverallScore-0.75) > 1e-9 {
		t.Errorf("overall = %v, want 0.75", syn.OverallScore)
	}
}

func TestWeightedCombineDefaultsZeroWeight(t *testing.T) {
	s := &Weighted{}
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("m1", 0, 0.8),
		opinion("m2", 0, 0.6),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if math.Abs(syn.OverallScore-0.7) > 1e-9 {
		t.Errorf("overall = %v, want 0.7", syn.OverallScore)
	}
}

func TestMajorityCombine(t *testing.T) {
	s := &Majority{}
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("m1", 1.0, 0.96),
		opinion("m2", 1.0, 0.97),
		opinion("m3", 1.0, 0.10),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	// The dissenting low vote is excluded from the aggregate.
	want := (0.96 + 0.97) / 2
	if math.Abs(syn.OverallScore-want) > 1e-9 {
		t.Errorf("overall = %v, want %v", syn.OverallScore, want)
	}
}

func TestMajorityCombineNonCompliantWins(t *testing.T) {
	s := &Majority{}
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("m1", 1.0, 0.96),
		opinion("m2", 1.0, 0.20),
		opinion("m3", 1.0, 0.30),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if math.Abs(syn.OverallScore-0.25) > 1e-9 {
		t.Errorf("overall = %v, want 0.25", syn.OverallScore)
	}
}

func TestMajorityTieBreaksOnHeaviestModel(t *testing.T) {
	s := &Majority{}
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("heavy", 2.0, 0.96),
		opinion("light1", 1.0, 0.20),
		opinion("light2", 1.0, 0.30),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	// 2.0 for vs 2.0 against; the single heaviest model votes compliant.
	if math.Abs(syn.OverallScore-0.96) > 1e-9 {
		t.Errorf("overall = %v, want heavy model's 0.96", syn.OverallScore)
	}
}

func TestMajorityCombineEmpty(t *testing.T) {
	s := &Majority{}
	if _, err := s.Combine(nil); err == nil {
		t.Error("expected error for empty opinions")
	}
}

func TestAdaptiveScalesByPerformance(t *testing.T) {
	tracker := consensus.NewPerformanceTracker(0.2, 500*time.Millisecond)

	// Build track records: "reliable" always agrees and is fast,
	// "erratic" disagrees and is slow.
	for i := 0; i < 20; i++ {
		tracker.Observe("reliable", true, 50*time.Millisecond)
		tracker.Observe("erratic", false, 2*time.Second)
	}

	s := NewAdaptive(tracker)
	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("reliable", 1.0, 1.0),
		opinion("erratic", 1.0, 0.0),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}

	// The reliable model's multiplier dominates, pulling the aggregate
	// well above the plain mean of 0.5.
	if syn.OverallScore <= 0.9 {
		t.Errorf("overall = %v, want reliable model to dominate", syn.OverallScore)
	}
}

func TestAdaptiveNoHistoryMatchesWeighted(t *testing.T) {
	tracker := consensus.NewPerformanceTracker(0.2, 500*time.Millisecond)
	s := NewAdaptive(tracker)

	syn, err := s.Combine([]consensus.ModelOpinion{
		opinion("m1", 1.0, 0.96),
		opinion("m2", 1.0, 0.94),
	})
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if math.Abs(syn.OverallScore-0.95) > 1e-9 {
		t.Errorf("overall = %v, want plain mean 0.95", syn.OverallScore)
	}
}

func TestCombinePrinciplesSkipsMissing(t *testing.T) {
	a := opinion("m1", 1.0, 0.9)
	b := opinion("m2", 1.0, 0.8)
	b.Breakdown.PerPrinciple = map[string]float64{"p1": 0.8, "p2": 0.6}

	got := combinePrinciples([]consensus.ModelOpinion{a, b}, []float64{1.0, 1.0})
	if math.Abs(got["p1"]-0.85) > 1e-9 {
		t.Errorf("p1 = %v, want 0.85", got["p1"])
	}
	// Only m2 scored p2; m1's absence must not dilute it.
	if math.Abs(got["p2"]-0.6) > 1e-9 {
		t.Errorf("p2 = %v, want 0.6", got["p2"])
	}
}
