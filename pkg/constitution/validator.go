package constitution

import (
	"sync"
	"time"
)

// Validator guards every decision path against configuration drift by
// comparing an expected constitutional hash with the hash recomputed from
// the principles actually loaded in the Store.
//
// With an explicit pin, any deviation from the pinned fingerprint fails —
// including legitimate reloads; operators who pin a hash opt out of hot
// reload until they update the pin. Without a pin the validator tracks the
// active snapshot: each set is checked against its own stored hash, so
// reloads keep working while a snapshot whose contents no longer match its
// fingerprint is still rejected.
//
// Recomputing the digest on every request would be wasted work on the hot
// path, so a successful validation is reused for up to the configured TTL.
// The TTL bounds staleness and must not exceed config.MaxValidationTTL.
// Any mismatch is fatal for the request and is never retried.
type Validator struct {
	store  *Store
	pinned string // empty means track the active snapshot
	ttl    time.Duration

	mu          sync.Mutex
	lastChecked time.Time
	lastHash    string
}

// NewValidator creates a Validator. An empty pinned hash selects tracking
// mode (reload-safe); a non-empty pin is enforced verbatim. ttl values <= 0
// disable result reuse entirely.
func NewValidator(store *Store, pinned string, ttl time.Duration) *Validator {
	return &Validator{
		store:  store,
		pinned: pinned,
		ttl:    ttl,
	}
}

// Pinned returns the hash the validator currently enforces: the explicit
// pin, or the active snapshot's hash in tracking mode.
func (v *Validator) Pinned() string {
	if v.pinned != "" {
		return v.pinned
	}
	return v.store.Hash()
}

// Validate recomputes the constitutional hash from the active principles
// (at most once per TTL) and compares it against the expected fingerprint.
// Returns an *IntegrityError wrapping ErrIntegrity on mismatch, or
// ErrNoPrinciples if no set is loaded.
func (v *Validator) Validate() error {
	set := v.store.Active()
	if set == nil {
		return ErrNoPrinciples
	}

	computed, err := v.computedHash(set)
	if err != nil {
		return err
	}

	expected := v.pinned
	if expected == "" {
		// Tracking mode: the snapshot vouches for itself. Comparing
		// against the same snapshot's stored hash keeps reloads atomic
		// with their re-pin.
		expected = set.Hash()
	}
	if computed != expected {
		return &IntegrityError{Expected: expected, Computed: computed}
	}
	return nil
}

// computedHash returns the hash recomputed from set's principles, reusing a
// recent result when it is younger than the TTL and belongs to the same
// snapshot. The recomputation deliberately does not trust set.Hash(): the
// point of validation is to detect a snapshot whose stored hash no longer
// matches its contents.
func (v *Validator) computedHash(set *PrincipleSet) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.ttl > 0 && v.lastHash == set.Hash() && time.Since(v.lastChecked) < v.ttl {
		return v.lastHash, nil
	}

	computed, err := ComputeHash(set.Principles())
	if err != nil {
		return "", err
	}

	v.lastChecked = time.Now()
	v.lastHash = computed
	return computed, nil
}
