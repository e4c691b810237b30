// Package logging provides structured logging for the engine, built on
// log/slog with configurable level and output format.
package logging
