package constitution

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Source provides principle sets to the Store.
type Source interface {
	// Load reads and constructs the current principle set.
	Load(ctx context.Context) (*PrincipleSet, error)

	// Watch watches for principle changes and sends reloaded sets on the
	// returned channel. The channel is closed when the context is
	// cancelled. Sources that do not support watching may return a nil
	// channel.
	Watch(ctx context.Context) (<-chan *PrincipleSet, error)
}

// principleFile is the YAML document shape for principle files.
type principleFile struct {
	Principles []Principle `yaml:"principles"`
}

// parsePrinciples parses a YAML principle document.
func parsePrinciples(data []byte) ([]Principle, error) {
	var doc principleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse principle document: %w", err)
	}
	return doc.Principles, nil
}

// Run loads the initial set from the source into the store, then consumes
// the source's watch channel (if any), replacing the store's snapshot on
// each reload until the context is cancelled.
func Run(ctx context.Context, src Source, store *Store) error {
	set, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial principle load failed: %w", err)
	}
	store.Replace(set)

	updates, err := src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch principle source: %w", err)
	}
	if updates == nil {
		return nil
	}

	go func() {
		for set := range updates {
			store.Replace(set)
		}
	}()
	return nil
}
