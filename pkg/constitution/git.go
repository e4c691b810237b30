package constitution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitSource loads principles from a git repository, enabling GitOps-style
// principle governance: the constitution lives in version control and the
// engine tracks a branch. Watch polls for new commits at a fixed interval.
type GitSource struct {
	repository string
	branch     string
	path       string
	interval   time.Duration
	localPath  string
	auth       transport.AuthMethod
	logger     *slog.Logger

	repo     *gogit.Repository
	lastHead plumbing.Hash
}

// GitSourceConfig configures a GitSource.
type GitSourceConfig struct {
	// Repository is the clone URL.
	Repository string

	// Branch is the branch to track.
	Branch string

	// Path is the principle file or directory within the repository.
	Path string

	// PollInterval is how often Watch checks for new commits.
	PollInterval time.Duration

	// LocalPath is where the repository is cloned. Defaults to a
	// directory under os.TempDir().
	LocalPath string

	// Token is an optional access token for private repositories.
	Token string
}

// NewGitSource creates a git-based principle source.
func NewGitSource(cfg GitSourceConfig, logger *slog.Logger) (*GitSource, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("git source: repository URL must not be empty")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = filepath.Join(os.TempDir(), "sentinel-constitution")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &GitSource{
		repository: cfg.Repository,
		branch:     cfg.Branch,
		path:       cfg.Path,
		interval:   cfg.PollInterval,
		localPath:  cfg.LocalPath,
		logger:     logger.With("component", "constitution.git"),
	}
	if cfg.Token != "" {
		s.auth = &githttp.BasicAuth{Username: "token", Password: cfg.Token}
	}
	return s, nil
}

// Load clones (or opens) the repository, checks out the tracked branch, and
// loads the principle files from the worktree.
func (s *GitSource) Load(ctx context.Context) (*PrincipleSet, error) {
	if err := s.ensureRepo(ctx); err != nil {
		return nil, err
	}
	return s.loadWorktree(ctx)
}

// Watch polls the remote at the configured interval and emits a reloaded
// set whenever the branch head advances. Pull or reload failures are logged
// and skipped; the previous set stays active.
func (s *GitSource) Watch(ctx context.Context) (<-chan *PrincipleSet, error) {
	updates := make(chan *PrincipleSet, 1)
	go func() {
		defer close(updates)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				changed, err := s.pull(ctx)
				if err != nil {
					s.logger.Error("principle repository pull failed", "error", err)
					continue
				}
				if !changed {
					continue
				}
				set, err := s.loadWorktree(ctx)
				if err != nil {
					s.logger.Error("principle reload failed, keeping previous set", "error", err)
					continue
				}
				select {
				case updates <- set:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return updates, nil
}

// ensureRepo clones the repository if needed and records the branch head.
func (s *GitSource) ensureRepo(ctx context.Context) error {
	if s.repo != nil {
		return nil
	}

	repo, err := gogit.PlainOpen(s.localPath)
	if errors.Is(err, gogit.ErrRepositoryNotExists) {
		s.logger.Info("cloning principle repository",
			"repository", s.repository,
			"branch", s.branch,
			"local_path", s.localPath,
		)
		repo, err = gogit.PlainCloneContext(ctx, s.localPath, false, &gogit.CloneOptions{
			URL:           s.repository,
			ReferenceName: plumbing.NewBranchReferenceName(s.branch),
			SingleBranch:  true,
			Auth:          s.auth,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to open principle repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve repository head: %w", err)
	}

	s.repo = repo
	s.lastHead = head.Hash()
	return nil
}

// pull fetches and fast-forwards the worktree; reports whether the head moved.
func (s *GitSource) pull(ctx context.Context) (bool, error) {
	if err := s.ensureRepo(ctx); err != nil {
		return false, err
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to open worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &gogit.PullOptions{
		ReferenceName: plumbing.NewBranchReferenceName(s.branch),
		SingleBranch:  true,
		Auth:          s.auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return false, fmt.Errorf("pull failed: %w", err)
	}

	head, err := s.repo.Head()
	if err != nil {
		return false, fmt.Errorf("failed to resolve repository head: %w", err)
	}
	if head.Hash() == s.lastHead {
		return false, nil
	}

	s.logger.Info("principle repository updated",
		"previous_commit", s.lastHead.String(),
		"commit", head.Hash().String(),
	)
	s.lastHead = head.Hash()
	return true, nil
}

// loadWorktree loads principle files from the checked-out tree.
func (s *GitSource) loadWorktree(ctx context.Context) (*PrincipleSet, error) {
	fileSrc := NewFileSource(filepath.Join(s.localPath, s.path), false, s.logger)
	return fileSrc.Load(ctx)
}
