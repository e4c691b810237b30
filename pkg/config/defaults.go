package config

import "time"

// Default values applied to omitted configuration fields.
const (
	DefaultListenAddress   = ":8181"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultValidationTTL = 60 * time.Second
	DefaultPollInterval  = 60 * time.Second

	DefaultStrategy            = "weighted_average"
	DefaultComplianceThreshold = 0.95
	DefaultCriticalFloor       = 0.99
	DefaultMinQuorum           = 2
	DefaultRequestBudget       = 2 * time.Second
	DefaultBreakerFailures     = 3
	DefaultBreakerCooldown     = 30 * time.Second

	DefaultModelTimeout = 800 * time.Millisecond
	DefaultModelWeight  = 1.0

	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 10000
	DefaultFallbackTTL     = 30 * time.Minute

	DefaultSampleInterval      = 30 * time.Second
	DefaultEvaluationWindow    = 5 * time.Minute
	DefaultConsecutiveBreaches = 3
	DefaultMaxErrorRate        = 0.01
	DefaultMinCompliance       = 0.95
	DefaultMaxP95Latency       = 2 * time.Second
	DefaultRollbackCooldown    = 60 * time.Second

	DefaultAuditStore    = "memory"
	DefaultAuditPath     = "data/audit.db"
	DefaultAuditBuffer   = 1000
	DefaultRetentionDays = 90
	DefaultPruneSchedule = "0 3 * * *"
)

// ApplyDefaults fills zero-valued fields with default values.
// Boolean fields default to enabled via Default(); see that function.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Constitution.Source == "" {
		cfg.Constitution.Source = "file"
	}
	if cfg.Constitution.ValidationTTL == 0 {
		cfg.Constitution.ValidationTTL = DefaultValidationTTL
	}
	if cfg.Constitution.PollInterval == 0 {
		cfg.Constitution.PollInterval = DefaultPollInterval
	}
	if cfg.Constitution.Branch == "" {
		cfg.Constitution.Branch = "main"
	}

	for i := range cfg.Models {
		if cfg.Models[i].Weight == 0 {
			cfg.Models[i].Weight = DefaultModelWeight
		}
		if cfg.Models[i].Timeout == 0 {
			cfg.Models[i].Timeout = DefaultModelTimeout
		}
	}

	if cfg.Consensus.Strategy == "" {
		cfg.Consensus.Strategy = DefaultStrategy
	}
	if cfg.Consensus.ComplianceThreshold == 0 {
		cfg.Consensus.ComplianceThreshold = DefaultComplianceThreshold
	}
	if cfg.Consensus.CriticalFloor == 0 {
		cfg.Consensus.CriticalFloor = DefaultCriticalFloor
	}
	if cfg.Consensus.MinQuorum == 0 {
		cfg.Consensus.MinQuorum = DefaultMinQuorum
	}
	if cfg.Consensus.RequestBudget == 0 {
		cfg.Consensus.RequestBudget = DefaultRequestBudget
	}
	if cfg.Consensus.BreakerFailureThreshold == 0 {
		cfg.Consensus.BreakerFailureThreshold = DefaultBreakerFailures
	}
	if cfg.Consensus.BreakerCooldown == 0 {
		cfg.Consensus.BreakerCooldown = DefaultBreakerCooldown
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Cache.FallbackTTL == 0 {
		cfg.Cache.FallbackTTL = DefaultFallbackTTL
	}

	if cfg.Rollback.SampleInterval == 0 {
		cfg.Rollback.SampleInterval = DefaultSampleInterval
	}
	if cfg.Rollback.EvaluationWindow == 0 {
		cfg.Rollback.EvaluationWindow = DefaultEvaluationWindow
	}
	if cfg.Rollback.ConsecutiveBreaches == 0 {
		cfg.Rollback.ConsecutiveBreaches = DefaultConsecutiveBreaches
	}
	if cfg.Rollback.MaxErrorRate == 0 {
		cfg.Rollback.MaxErrorRate = DefaultMaxErrorRate
	}
	if cfg.Rollback.MinCompliance == 0 {
		cfg.Rollback.MinCompliance = DefaultMinCompliance
	}
	if cfg.Rollback.MaxP95Latency == 0 {
		cfg.Rollback.MaxP95Latency = DefaultMaxP95Latency
	}
	if cfg.Rollback.Cooldown == 0 {
		cfg.Rollback.Cooldown = DefaultRollbackCooldown
	}

	if cfg.Audit.Store == "" {
		cfg.Audit.Store = DefaultAuditStore
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = DefaultAuditPath
	}
	if cfg.Audit.Buffer == 0 {
		cfg.Audit.Buffer = DefaultAuditBuffer
	}
	if cfg.Audit.RetentionDays == 0 {
		cfg.Audit.RetentionDays = DefaultRetentionDays
	}
	if cfg.Audit.PruneSchedule == "" {
		cfg.Audit.PruneSchedule = DefaultPruneSchedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "sentinel"
	}
}

// Default returns a fully-populated configuration with all defaults applied
// and the feature toggles enabled. Useful for tests and the offline CLI.
func Default() *Config {
	cfg := &Config{}
	cfg.Cache.Enabled = true
	cfg.Rollback.Enabled = true
	cfg.Audit.Enabled = true
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
