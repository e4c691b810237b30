package constitution

import (
	"fmt"
	"sort"
	"time"
)

// Category classifies a principle.
type Category string

// Principle categories.
const (
	CategoryGovernance     Category = "governance"
	CategoryEthics         Category = "ethics"
	CategoryTransparency   Category = "transparency"
	CategorySecurity       Category = "security"
	CategorySafety         Category = "safety"
	CategoryFairness       Category = "fairness"
	CategoryAccountability Category = "accountability"
)

// Valid reports whether the category is one of the known values.
func (c Category) Valid() bool {
	switch c {
	case CategoryGovernance, CategoryEthics, CategoryTransparency,
		CategorySecurity, CategorySafety, CategoryFairness, CategoryAccountability:
		return true
	}
	return false
}

// Priority bounds for principles.
const (
	MinPriority = 1
	MaxPriority = 10
)

// Principle is a single constitutional principle. Principles are immutable
// once published; a revision is a new principle whose Supersedes field names
// the id it replaces.
type Principle struct {
	// ID uniquely identifies the principle (e.g., "human_oversight_required").
	ID string `yaml:"id" json:"id"`

	// Text is the normative statement of the principle.
	Text string `yaml:"text" json:"text"`

	// Category classifies the principle.
	Category Category `yaml:"category" json:"category"`

	// Priority is the principle's weight in compliance scoring, 1..10.
	Priority int `yaml:"priority" json:"priority"`

	// Critical marks the principle as subject to the stricter
	// per-principle compliance floor.
	Critical bool `yaml:"critical" json:"critical"`

	// Keywords are context markers whose presence in a decision context
	// indicates a likely violation of this principle.
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`

	// CreatedAt is when the principle was published.
	CreatedAt time.Time `yaml:"created_at" json:"created_at"`

	// Supersedes names the principle id this one replaces, if any.
	Supersedes string `yaml:"supersedes" json:"supersedes,omitempty"`
}

// Validate checks the principle's structural invariants.
func (p *Principle) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("principle id must not be empty")
	}
	if p.Text == "" {
		return fmt.Errorf("principle %q: text must not be empty", p.ID)
	}
	if !p.Category.Valid() {
		return fmt.Errorf("principle %q: unknown category %q", p.ID, p.Category)
	}
	if p.Priority < MinPriority || p.Priority > MaxPriority {
		return fmt.Errorf("principle %q: priority %d outside [%d, %d]", p.ID, p.Priority, MinPriority, MaxPriority)
	}
	return nil
}

// PrincipleSet is an immutable snapshot of the active principles at a point
// in time, sorted by id, together with the constitutional hash derived from
// the canonical serialization of the set.
//
// Construct with NewPrincipleSet; never mutate a published set.
type PrincipleSet struct {
	principles []Principle
	hash       string
	loadedAt   time.Time
}

// NewPrincipleSet builds a snapshot from raw principles. Principles that are
// superseded by another principle in the input are dropped from the active
// set. The remaining principles are validated, sorted by id, and fingerprinted.
func NewPrincipleSet(raw []Principle) (*PrincipleSet, error) {
	superseded := make(map[string]bool)
	for _, p := range raw {
		if p.Supersedes != "" {
			superseded[p.Supersedes] = true
		}
	}

	active := make([]Principle, 0, len(raw))
	ids := make(map[string]bool, len(raw))
	for _, p := range raw {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if superseded[p.ID] {
			continue
		}
		if ids[p.ID] {
			return nil, fmt.Errorf("duplicate principle id %q", p.ID)
		}
		ids[p.ID] = true
		active = append(active, p)
	}

	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	hash, err := ComputeHash(active)
	if err != nil {
		return nil, fmt.Errorf("failed to compute constitutional hash: %w", err)
	}

	return &PrincipleSet{
		principles: active,
		hash:       hash,
		loadedAt:   time.Now(),
	}, nil
}

// Principles returns the active principles sorted by id. The returned slice
// must not be modified.
func (s *PrincipleSet) Principles() []Principle {
	return s.principles
}

// Hash returns the constitutional hash of the set.
func (s *PrincipleSet) Hash() string {
	return s.hash
}

// Len returns the number of active principles.
func (s *PrincipleSet) Len() int {
	return len(s.principles)
}

// Empty reports whether the set has no active principles.
func (s *PrincipleSet) Empty() bool {
	return len(s.principles) == 0
}

// LoadedAt returns when the snapshot was constructed.
func (s *PrincipleSet) LoadedAt() time.Time {
	return s.loadedAt
}

// Critical returns the active principles marked critical.
func (s *PrincipleSet) Critical() []Principle {
	var out []Principle
	for _, p := range s.principles {
		if p.Critical {
			out = append(out, p)
		}
	}
	return out
}
