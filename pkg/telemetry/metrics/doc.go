// Package metrics provides Prometheus collectors for the engine's
// observability surface: decision outcomes and latency, compliance scores,
// cache effectiveness, per-model consensus calls, and circuit state.
//
// All Record methods are nil-safe so components can run without metrics
// (tests, offline CLI) by passing a nil collector.
package metrics
