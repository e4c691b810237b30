// Package rollback implements the system-wide circuit breaker that guards
// the enforcement point against sustained degradation.
//
// A bucketed sliding window aggregates decision outcomes (errors, compliance
// scores, latency). A background evaluator compares window aggregates to the
// configured thresholds each sample interval; after a configured number of
// consecutive breached evaluations the circuit trips OPEN and decisions are
// refused until a cool-down elapses and probe traffic proves recovery.
//
// This breaker is system-wide and distinct from the per-model breakers in
// the consensus engine: a tripped model breaker degrades one backend, a
// tripped circuit suspends decision synthesis entirely.
package rollback
