package constitution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileSource loads principles from YAML files on disk.
// The path can be a single file or a directory; for a directory, all .yaml
// and .yml files are loaded and merged into one set.
type FileSource struct {
	path   string
	watch  bool
	logger *slog.Logger
}

// NewFileSource creates a file-based principle source. When watch is true,
// Watch re-loads the set on file change events.
func NewFileSource(path string, watch bool, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:   path,
		watch:  watch,
		logger: logger.With("component", "constitution.file"),
	}
}

// Load reads all principle files under the configured path.
func (s *FileSource) Load(ctx context.Context) (*PrincipleSet, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var raw []Principle
	if info.IsDir() {
		raw, err = s.loadDirectory()
	} else {
		raw, err = s.loadFile(s.path)
	}
	if err != nil {
		return nil, err
	}

	set, err := NewPrincipleSet(raw)
	if err != nil {
		return nil, err
	}

	s.logger.Info("loaded principles",
		"path", s.path,
		"principles", set.Len(),
		"hash", set.Hash(),
	)
	return set, nil
}

// loadDirectory loads all YAML principle files from a directory.
func (s *FileSource) loadDirectory() ([]Principle, error) {
	var raw []Principle
	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		principles, err := s.loadFile(path)
		if err != nil {
			return err
		}
		raw = append(raw, principles...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load principle directory %q: %w", s.path, err)
	}
	return raw, nil
}

// loadFile loads a single principle file.
func (s *FileSource) loadFile(path string) ([]Principle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read principle file %q: %w", path, err)
	}
	principles, err := parsePrinciples(data)
	if err != nil {
		return nil, fmt.Errorf("principle file %q: %w", path, err)
	}
	return principles, nil
}

// Watch watches the path with fsnotify and emits a reloaded set on change.
// Returns a nil channel when watching is disabled. A reload that fails to
// parse or validate is logged and skipped; the previous set stays active.
func (s *FileSource) Watch(ctx context.Context) (<-chan *PrincipleSet, error) {
	if !s.watch {
		return nil, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory containing the path so that editor rename-and-
	// replace saves are observed.
	watchPath := s.path
	if info, err := os.Stat(s.path); err == nil && !info.IsDir() {
		watchPath = filepath.Dir(s.path)
	}
	if err := watcher.Add(watchPath); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", watchPath, err)
	}

	updates := make(chan *PrincipleSet, 1)
	go func() {
		defer close(updates)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				set, err := s.Load(ctx)
				if err != nil {
					s.logger.Error("principle reload failed, keeping previous set",
						"path", event.Name,
						"error", err,
					)
					continue
				}
				select {
				case updates <- set:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("file watcher error", "error", err)
			}
		}
	}()

	return updates, nil
}
