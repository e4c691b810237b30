package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"acgs-hq/sentinel/pkg/audit"
	"acgs-hq/sentinel/pkg/config"
	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/consensus/strategies"
	"acgs-hq/sentinel/pkg/constitution"
	"acgs-hq/sentinel/pkg/models"
	"acgs-hq/sentinel/pkg/pep"
	"acgs-hq/sentinel/pkg/rollback"
	"acgs-hq/sentinel/pkg/scoring"
	"acgs-hq/sentinel/pkg/server"
	"acgs-hq/sentinel/pkg/telemetry/logging"
	"acgs-hq/sentinel/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the enforcement point server",
	Long: `Start the enforcement point server with the specified configuration.

The server loads the constitutional principles, connects the configured model
backends, and serves governance decisions over HTTP.

Examples:
  # Start with default config
  sentinel run

  # Start with custom config
  sentinel run --config /etc/sentinel/config.yaml

  # Override listen address
  sentinel run --listen 0.0.0.0:8181

  # Validate config without starting
  sentinel run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("configuration valid")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Constitution: load the principle source and keep the store fresh.
	src, err := newPrincipleSource(cfg, logger)
	if err != nil {
		return err
	}
	store := constitution.NewStore(nil, logger)
	if err := constitution.Run(ctx, src, store); err != nil {
		return err
	}
	validator := constitution.NewValidator(store, cfg.Constitution.PinnedHash, cfg.Constitution.ValidationTTL)
	logger.Info("constitution loaded",
		"hash", store.Hash(),
		"principles", store.Active().Len(),
		"pinned", validator.Pinned(),
	)

	// Telemetry.
	var registry *prometheus.Registry
	var decisionMetrics *metrics.DecisionMetrics
	var consensusMetrics *metrics.ConsensusMetrics
	var circuitMetrics *metrics.CircuitMetrics
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		decisionMetrics = metrics.NewDecisionMetrics(cfg.Metrics.Namespace, registry)
		consensusMetrics = metrics.NewConsensusMetrics(cfg.Metrics.Namespace, registry)
		circuitMetrics = metrics.NewCircuitMetrics(cfg.Metrics.Namespace, registry)
	}

	// Model backends and consensus engine.
	backends := make([]models.Backend, 0, len(cfg.Models))
	for _, mc := range cfg.Models {
		backends = append(backends, models.NewBackend(models.BackendConfig{
			Name:        mc.Name,
			Endpoint:    mc.Endpoint,
			Weight:      mc.Weight,
			Timeout:     mc.Timeout,
			APIKey:      mc.APIKey,
			MaxRetries:  mc.MaxRetries,
			StaticScore: mc.StaticScore,
		}))
	}

	tracker := consensus.NewPerformanceTracker(0, 0)
	strategy, err := strategies.New(cfg.Consensus.Strategy, tracker)
	if err != nil {
		return err
	}
	engine, err := consensus.NewEngine(
		backends,
		scoring.NewScorer(scoring.Config{}),
		store,
		strategy,
		tracker,
		consensus.Config{
			ComplianceThreshold:     cfg.Consensus.ComplianceThreshold,
			CriticalFloor:           cfg.Consensus.CriticalFloor,
			MinQuorum:               cfg.Consensus.MinQuorum,
			BreakerFailureThreshold: cfg.Consensus.BreakerFailureThreshold,
			BreakerCooldown:         cfg.Consensus.BreakerCooldown,
		},
		logger,
		consensusMetrics,
	)
	if err != nil {
		return err
	}

	// Rollback circuit.
	var circuit *rollback.Controller
	if cfg.Rollback.Enabled {
		circuit = rollback.NewController(rollback.Config{
			SampleInterval:      cfg.Rollback.SampleInterval,
			EvaluationWindow:    cfg.Rollback.EvaluationWindow,
			ConsecutiveBreaches: cfg.Rollback.ConsecutiveBreaches,
			MaxErrorRate:        cfg.Rollback.MaxErrorRate,
			MinCompliance:       cfg.Rollback.MinCompliance,
			MaxP95Latency:       cfg.Rollback.MaxP95Latency,
			Cooldown:            cfg.Rollback.Cooldown,
		}, logger, circuitMetrics)
		circuit.Start()
		defer circuit.Stop()
	}

	// Audit trail.
	var auditStore audit.Store
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		auditStore, err = newAuditStore(cfg)
		if err != nil {
			return err
		}
		defer auditStore.Close()

		recorder = audit.NewRecorder(auditStore, cfg.Audit.Buffer, logger)
		defer recorder.Close()

		pruner, err := audit.NewPruner(auditStore, cfg.Audit.RetentionDays, cfg.Audit.PruneSchedule, logger)
		if err != nil {
			return fmt.Errorf("failed to configure audit retention: %w", err)
		}
		pruner.Start()
		defer pruner.Stop()
	}

	// Enforcement point.
	var cache *pep.Cache
	if cfg.Cache.Enabled {
		cache = pep.NewCache(cfg.Cache.TTL, cfg.Cache.MaxEntries)
		defer cache.Close()
	}
	fallback := pep.NewFallbackStore(cfg.Cache.FallbackTTL)

	enforcementPoint, err := pep.NewEnforcementPoint(
		validator,
		store,
		engine,
		cache,
		fallback,
		circuit,
		recorder,
		pep.Config{
			RequestBudget: cfg.Consensus.RequestBudget,
			CacheEnabled:  cfg.Cache.Enabled,
		},
		logger,
		decisionMetrics,
	)
	if err != nil {
		return err
	}

	// No decision outlives the constitution it was made under.
	store.Subscribe(func(*constitution.PrincipleSet) {
		enforcementPoint.Purge()
	})

	srv := server.NewServer(cfg.Server, enforcementPoint, store, auditStore, registry, logger)
	logger.Info("sentinel starting",
		"version", Version,
		"listen", cfg.Server.ListenAddress,
		"strategy", cfg.Consensus.Strategy,
		"models", len(backends),
	)
	return srv.Start(ctx)
}

func newPrincipleSource(cfg *config.Config, logger *slog.Logger) (constitution.Source, error) {
	switch cfg.Constitution.Source {
	case "file":
		return constitution.NewFileSource(cfg.Constitution.Path, cfg.Constitution.Watch, logger), nil
	case "git":
		return constitution.NewGitSource(constitution.GitSourceConfig{
			Repository:   cfg.Constitution.Repository,
			Branch:       cfg.Constitution.Branch,
			Path:         cfg.Constitution.Path,
			PollInterval: cfg.Constitution.PollInterval,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown constitution source: %q", cfg.Constitution.Source)
	}
}

func newAuditStore(cfg *config.Config) (audit.Store, error) {
	switch cfg.Audit.Store {
	case "memory":
		return audit.NewMemoryStore(0), nil
	case "sqlite":
		store, err := audit.NewSQLiteStore(cfg.Audit.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown audit store: %q", cfg.Audit.Store)
	}
}
