package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// pruneTimeout bounds one retention sweep.
const pruneTimeout = time.Minute

// Pruner deletes audit records older than the retention period on a cron
// schedule.
type Pruner struct {
	store     Store
	retention time.Duration
	logger    *slog.Logger
	cron      *cron.Cron
}

// NewPruner creates a Pruner. schedule is a standard cron expression
// (e.g. "0 3 * * *" for daily at 03:00); retentionDays <= 0 disables pruning.
func NewPruner(store Store, retentionDays int, schedule string, logger *slog.Logger) (*Pruner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pruner{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		logger:    logger.With("component", "audit.pruner"),
	}
	if retentionDays <= 0 {
		return p, nil
	}

	p.cron = cron.New()
	if _, err := p.cron.AddFunc(schedule, p.prune); err != nil {
		return nil, err
	}
	return p, nil
}

// Start launches the schedule. No-op when pruning is disabled.
func (p *Pruner) Start() {
	if p.cron == nil {
		return
	}
	p.cron.Start()
	p.logger.Info("audit retention enabled", "retention", p.retention)
}

// Stop halts the schedule and waits for a running sweep to finish.
func (p *Pruner) Stop() {
	if p.cron == nil {
		return
	}
	<-p.cron.Stop().Done()
}

func (p *Pruner) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	cutoff := time.Now().Add(-p.retention)
	removed, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		p.logger.Error("audit prune failed", "error", err)
		return
	}
	if removed > 0 {
		p.logger.Info("audit records pruned", "removed", removed, "cutoff", cutoff)
	}
}
