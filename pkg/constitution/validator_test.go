package constitution

import (
	"errors"
	"testing"
	"time"
)

func TestValidator_Match(t *testing.T) {
	set := mustSet(t, testPrinciples())
	store := NewStore(set, nil)

	v := NewValidator(store, set.Hash(), time.Minute)
	if err := v.Validate(); err != nil {
		t.Errorf("expected valid hash, got %v", err)
	}
}

func TestValidator_TracksActiveHashWhenUnpinned(t *testing.T) {
	set := mustSet(t, testPrinciples())
	store := NewStore(set, nil)

	v := NewValidator(store, "", time.Minute)
	if v.Pinned() != set.Hash() {
		t.Errorf("Pinned = %q, want %q", v.Pinned(), set.Hash())
	}
	if err := v.Validate(); err != nil {
		t.Errorf("expected valid hash, got %v", err)
	}
}

func TestValidator_UnpinnedSurvivesReload(t *testing.T) {
	set := mustSet(t, testPrinciples())
	store := NewStore(set, nil)

	// TTL 0 disables result reuse so the swap is seen immediately.
	v := NewValidator(store, "", 0)
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate before reload: %v", err)
	}

	next := mustSet(t, testPrinciples()[:2])
	store.Replace(next)

	if err := v.Validate(); err != nil {
		t.Errorf("Validate after reload: %v", err)
	}
	if v.Pinned() != next.Hash() {
		t.Errorf("Pinned = %q, want reloaded hash %q", v.Pinned(), next.Hash())
	}
}

func TestValidator_Mismatch(t *testing.T) {
	set := mustSet(t, testPrinciples())
	store := NewStore(set, nil)

	v := NewValidator(store, "cdd01ef066bc6cf2", 0)
	err := v.Validate()
	if err == nil {
		t.Fatal("expected integrity error, got nil")
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got %v", err)
	}

	var ierr *IntegrityError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *IntegrityError, got %T", err)
	}
	if ierr.Expected != "cdd01ef066bc6cf2" {
		t.Errorf("Expected = %q", ierr.Expected)
	}
	if ierr.Computed != set.Hash() {
		t.Errorf("Computed = %q, want %q", ierr.Computed, set.Hash())
	}
}

func TestValidator_DetectsDriftAfterReplace(t *testing.T) {
	set := mustSet(t, testPrinciples())
	store := NewStore(set, nil)

	// TTL 0 disables result reuse so the drift is seen immediately.
	v := NewValidator(store, set.Hash(), 0)

	store.Replace(mustSet(t, testPrinciples()[:2]))

	err := v.Validate()
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity after unsynchronized replace, got %v", err)
	}
}

func TestValidator_NoPrinciples(t *testing.T) {
	store := NewStore(nil, nil)
	v := NewValidator(store, "cdd01ef066bc6cf2", time.Minute)

	if err := v.Validate(); !errors.Is(err, ErrNoPrinciples) {
		t.Errorf("expected ErrNoPrinciples, got %v", err)
	}
}
