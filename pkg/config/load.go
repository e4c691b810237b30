package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults, and
// validates the result. Environment variables are not consulted; use
// LoadConfigWithEnvOverrides for that behavior.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// SENTINEL_* environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies SENTINEL_SECTION_FIELD environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SENTINEL_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if d := envDuration("SENTINEL_SERVER_READ_TIMEOUT"); d > 0 {
		cfg.Server.ReadTimeout = d
	}
	if d := envDuration("SENTINEL_SERVER_WRITE_TIMEOUT"); d > 0 {
		cfg.Server.WriteTimeout = d
	}

	if val := os.Getenv("SENTINEL_CONSTITUTION_PATH"); val != "" {
		cfg.Constitution.Path = val
	}
	if val := os.Getenv("SENTINEL_CONSTITUTION_PINNED_HASH"); val != "" {
		cfg.Constitution.PinnedHash = val
	}
	if d := envDuration("SENTINEL_CONSTITUTION_VALIDATION_TTL"); d > 0 {
		cfg.Constitution.ValidationTTL = d
	}

	if val := os.Getenv("SENTINEL_CONSENSUS_STRATEGY"); val != "" {
		cfg.Consensus.Strategy = val
	}
	if f, ok := envFloat("SENTINEL_CONSENSUS_COMPLIANCE_THRESHOLD"); ok {
		cfg.Consensus.ComplianceThreshold = f
	}
	if f, ok := envFloat("SENTINEL_CONSENSUS_CRITICAL_FLOOR"); ok {
		cfg.Consensus.CriticalFloor = f
	}
	if n, ok := envInt("SENTINEL_CONSENSUS_MIN_QUORUM"); ok {
		cfg.Consensus.MinQuorum = n
	}
	if d := envDuration("SENTINEL_CONSENSUS_REQUEST_BUDGET"); d > 0 {
		cfg.Consensus.RequestBudget = d
	}

	if d := envDuration("SENTINEL_CACHE_TTL"); d > 0 {
		cfg.Cache.TTL = d
	}

	if val := os.Getenv("SENTINEL_AUDIT_STORE"); val != "" {
		cfg.Audit.Store = val
	}
	if val := os.Getenv("SENTINEL_AUDIT_PATH"); val != "" {
		cfg.Audit.Path = val
	}

	if val := os.Getenv("SENTINEL_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("SENTINEL_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
}

func envDuration(name string) time.Duration {
	val := os.Getenv(name)
	if val == "" {
		return 0
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0
	}
	return d
}

func envFloat(name string) (float64, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(name string) (int, bool) {
	val := os.Getenv(name)
	if val == "" {
		return 0, false
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return n, true
}
