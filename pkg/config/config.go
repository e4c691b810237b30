package config

import "time"

// Config is the root configuration for the Sentinel engine.
type Config struct {
	// Server configures the HTTP decision API.
	Server ServerConfig `yaml:"server"`

	// Constitution configures the principle source and hash validation.
	Constitution ConstitutionConfig `yaml:"constitution"`

	// Models configures the model backends queried during consensus.
	Models []ModelConfig `yaml:"models"`

	// Consensus configures synthesis strategy, thresholds, and quorum.
	Consensus ConsensusConfig `yaml:"consensus"`

	// Cache configures the decision cache.
	Cache CacheConfig `yaml:"cache"`

	// Rollback configures the circuit-breaker controller.
	Rollback RollbackConfig `yaml:"rollback"`

	// Audit configures the append-only audit trail.
	Audit AuditConfig `yaml:"audit"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metric emission.
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address to bind (e.g., ":8181").
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum keep-alive idle time.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ConstitutionConfig contains principle source and integrity settings.
type ConstitutionConfig struct {
	// Source is the principle source type: "file" or "git".
	Source string `yaml:"source"`

	// Path is the principle file or directory (file source), or the
	// path within the repository (git source).
	Path string `yaml:"path"`

	// Repository is the git repository URL (git source only).
	Repository string `yaml:"repository"`

	// Branch is the git branch to track (git source only).
	Branch string `yaml:"branch"`

	// PollInterval is how often the git source checks for updates.
	PollInterval time.Duration `yaml:"poll_interval"`

	// PinnedHash is the expected constitutional hash. When set, every
	// decision path validates the active set against it. Empty pins to
	// whatever hash the initial load produces.
	PinnedHash string `yaml:"pinned_hash"`

	// ValidationTTL bounds how long a hash validation result may be
	// reused before recomputation. Capped at 60s.
	ValidationTTL time.Duration `yaml:"validation_ttl"`

	// Watch enables hot-reload of principle files (file source only).
	Watch bool `yaml:"watch"`
}

// ModelConfig describes a single model backend.
type ModelConfig struct {
	// Name identifies the backend in logs, metrics, and decisions.
	Name string `yaml:"name"`

	// Endpoint is the backend's evaluation URL. Empty configures a
	// static backend (used for offline validation and probes).
	Endpoint string `yaml:"endpoint"`

	// Weight is the backend's vote weight in consensus. Defaults to 1.0.
	Weight float64 `yaml:"weight"`

	// Timeout is the per-call timeout for this backend.
	Timeout time.Duration `yaml:"timeout"`

	// StaticScore is the fixed compliance score returned by a static
	// backend (endpoint empty).
	StaticScore float64 `yaml:"static_score"`

	// APIKey is an optional bearer token sent to the backend.
	APIKey string `yaml:"api_key"`

	// MaxRetries is the retry count for transient backend errors.
	MaxRetries int `yaml:"max_retries"`
}

// ConsensusConfig contains synthesis settings.
type ConsensusConfig struct {
	// Strategy selects the consensus strategy:
	// "weighted_average", "majority_vote", or "performance_adaptive".
	Strategy string `yaml:"strategy"`

	// ComplianceThreshold is the aggregate score required for a
	// compliant decision.
	ComplianceThreshold float64 `yaml:"compliance_threshold"`

	// CriticalFloor is the per-principle minimum for principles marked
	// critical. A negative value disables the second gate.
	CriticalFloor float64 `yaml:"critical_floor"`

	// MinQuorum is the minimum number of responding backends required
	// to synthesize a decision.
	MinQuorum int `yaml:"min_quorum"`

	// RequestBudget is the hard wall-clock budget for a full decision.
	RequestBudget time.Duration `yaml:"request_budget"`

	// BreakerFailureThreshold is the consecutive-failure count that
	// trips a per-model circuit breaker.
	BreakerFailureThreshold int `yaml:"breaker_failure_threshold"`

	// BreakerCooldown is how long a tripped model is skipped.
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// CacheConfig contains decision cache settings.
type CacheConfig struct {
	// Enabled turns the decision cache on or off.
	Enabled bool `yaml:"enabled"`

	// TTL is the time-to-live for cached decisions.
	TTL time.Duration `yaml:"ttl"`

	// MaxEntries caps the cache size; 0 is unlimited.
	MaxEntries int `yaml:"max_entries"`

	// FallbackTTL is the time-to-live for last-known-good decisions
	// served on the degraded path. Typically longer than TTL.
	FallbackTTL time.Duration `yaml:"fallback_ttl"`
}

// RollbackConfig contains circuit-breaker controller settings.
type RollbackConfig struct {
	// Enabled turns the controller on or off.
	Enabled bool `yaml:"enabled"`

	// SampleInterval is the metric bucket granularity.
	SampleInterval time.Duration `yaml:"sample_interval"`

	// EvaluationWindow is the sliding window over which metrics are
	// aggregated.
	EvaluationWindow time.Duration `yaml:"evaluation_window"`

	// ConsecutiveBreaches is the number of consecutive breached
	// evaluations required to trip the circuit.
	ConsecutiveBreaches int `yaml:"consecutive_breaches"`

	// MaxErrorRate is the error-rate trip threshold (0.01 = 1%).
	MaxErrorRate float64 `yaml:"max_error_rate"`

	// MinCompliance is the mean-compliance trip threshold.
	MinCompliance float64 `yaml:"min_compliance"`

	// MaxP95Latency is the p95 latency trip threshold.
	MaxP95Latency time.Duration `yaml:"max_p95_latency"`

	// Cooldown is how long the circuit stays OPEN before probing.
	Cooldown time.Duration `yaml:"cooldown"`
}

// AuditConfig contains audit trail settings.
type AuditConfig struct {
	// Enabled turns audit recording on or off.
	Enabled bool `yaml:"enabled"`

	// Store selects the audit store: "memory" or "sqlite".
	Store string `yaml:"store"`

	// Path is the SQLite database file path.
	Path string `yaml:"path"`

	// Buffer is the async write channel size.
	Buffer int `yaml:"buffer"`

	// RetentionDays is how long records are kept; 0 keeps forever.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for retention pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled turns metric emission on or off.
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace"`
}
