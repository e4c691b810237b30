// Package config provides configuration loading, validation, and defaults
// for the Sentinel constitutional enforcement engine.
//
// Configuration is loaded from a single YAML file, defaults are applied for
// any omitted fields, and SENTINEL_* environment variables may override
// individual values. The final configuration is validated before use.
package config
