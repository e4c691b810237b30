package config

import (
	"fmt"
	"time"
)

// MaxValidationTTL caps how long a hash validation result may be reused.
// Longer TTLs would let configuration drift go unnoticed across requests.
const MaxValidationTTL = 60 * time.Second

var validStrategies = map[string]bool{
	"weighted_average":     true,
	"majority_vote":        true,
	"performance_adaptive": true,
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns the first error encountered.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}

	switch cfg.Constitution.Source {
	case "file":
		if cfg.Constitution.Path == "" {
			return fmt.Errorf("constitution.path is required for the file source")
		}
	case "git":
		if cfg.Constitution.Repository == "" {
			return fmt.Errorf("constitution.repository is required for the git source")
		}
	default:
		return fmt.Errorf("constitution.source must be %q or %q, got %q", "file", "git", cfg.Constitution.Source)
	}
	if cfg.Constitution.ValidationTTL > MaxValidationTTL {
		return fmt.Errorf("constitution.validation_ttl %v exceeds maximum %v", cfg.Constitution.ValidationTTL, MaxValidationTTL)
	}

	if len(cfg.Models) == 0 {
		return fmt.Errorf("at least one model backend must be configured")
	}
	seen := make(map[string]bool, len(cfg.Models))
	for i, m := range cfg.Models {
		if m.Name == "" {
			return fmt.Errorf("models[%d].name must not be empty", i)
		}
		if seen[m.Name] {
			return fmt.Errorf("duplicate model name %q", m.Name)
		}
		seen[m.Name] = true
		if m.Weight < 0 {
			return fmt.Errorf("models[%d].weight must not be negative", i)
		}
	}

	if !validStrategies[cfg.Consensus.Strategy] {
		return fmt.Errorf("consensus.strategy %q is not one of weighted_average, majority_vote, performance_adaptive", cfg.Consensus.Strategy)
	}
	if cfg.Consensus.ComplianceThreshold <= 0 || cfg.Consensus.ComplianceThreshold > 1 {
		return fmt.Errorf("consensus.compliance_threshold must be in (0, 1], got %v", cfg.Consensus.ComplianceThreshold)
	}
	if cfg.Consensus.CriticalFloor > 1 {
		return fmt.Errorf("consensus.critical_floor must not exceed 1, got %v", cfg.Consensus.CriticalFloor)
	}
	if cfg.Consensus.MinQuorum < 2 {
		return fmt.Errorf("consensus.min_quorum must be at least 2, got %d", cfg.Consensus.MinQuorum)
	}
	if cfg.Consensus.MinQuorum > len(cfg.Models) {
		return fmt.Errorf("consensus.min_quorum %d exceeds the number of configured models %d", cfg.Consensus.MinQuorum, len(cfg.Models))
	}

	if cfg.Rollback.Enabled {
		if cfg.Rollback.SampleInterval <= 0 {
			return fmt.Errorf("rollback.sample_interval must be positive")
		}
		if cfg.Rollback.EvaluationWindow < cfg.Rollback.SampleInterval {
			return fmt.Errorf("rollback.evaluation_window %v is shorter than sample_interval %v", cfg.Rollback.EvaluationWindow, cfg.Rollback.SampleInterval)
		}
		if cfg.Rollback.MaxErrorRate <= 0 || cfg.Rollback.MaxErrorRate >= 1 {
			return fmt.Errorf("rollback.max_error_rate must be in (0, 1), got %v", cfg.Rollback.MaxErrorRate)
		}
	}

	switch cfg.Audit.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("audit.store must be %q or %q, got %q", "memory", "sqlite", cfg.Audit.Store)
	}
	if cfg.Audit.Store == "sqlite" && cfg.Audit.Path == "" {
		return fmt.Errorf("audit.path is required for the sqlite store")
	}

	return nil
}
