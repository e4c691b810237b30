// Package models provides the model backend abstraction used by the
// consensus engine, with an HTTP adapter for remote evaluation services and
// a static adapter for offline validation and degraded-mode probes.
package models
