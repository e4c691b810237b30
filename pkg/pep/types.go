package pep

import (
	"context"
	"errors"
	"time"

	"acgs-hq/sentinel/pkg/consensus"
	"acgs-hq/sentinel/pkg/rollback"
)

// Reason codes reported to API clients for degraded decisions.
const (
	ReasonBudgetExceeded  = "budget_exceeded"
	ReasonCircuitOpen     = "circuit_open"
	ReasonQuorumLost      = "quorum_lost"
	ReasonConsensusFailed = "consensus_failed"
)

// Decision is the enforcement point's response: the synthesized (or cached,
// or fallback) consensus decision plus provenance flags.
type Decision struct {
	*consensus.ConsensusDecision

	// Cached marks decisions served from the decision cache.
	Cached bool `json:"cached"`

	// Fallback marks decisions served from the last-known-good store or
	// the default-deny path.
	Fallback bool `json:"fallback"`

	// Degraded marks decisions produced while the system was degraded:
	// open circuit, quorum loss, or budget exhaustion.
	Degraded bool `json:"degraded"`

	// Reason carries the degradation cause for fallback decisions:
	// ErrBudgetExceeded, rollback.ErrCircuitOpen, or the consensus error.
	// Nil on the normal path.
	Reason error `json:"-"`

	// AuditID references the audit trail entry for this decision.
	AuditID string `json:"audit_id,omitempty"`

	// Latency is the end-to-end decision latency.
	Latency time.Duration `json:"-"`
}

// ReasonCode maps the degradation cause to a stable API string. Empty for
// decisions served on the normal path.
func (d *Decision) ReasonCode() string {
	switch {
	case d.Reason == nil:
		return ""
	case errors.Is(d.Reason, ErrBudgetExceeded) || errors.Is(d.Reason, context.DeadlineExceeded):
		return ReasonBudgetExceeded
	case errors.Is(d.Reason, rollback.ErrCircuitOpen):
		return ReasonCircuitOpen
	case errors.Is(d.Reason, consensus.ErrConsensusUnavailable):
		return ReasonQuorumLost
	default:
		return ReasonConsensusFailed
	}
}

// Source returns the decision's provenance label for metrics and audit.
func (d *Decision) Source() string {
	switch {
	case d.Cached:
		return "cache"
	case d.Fallback:
		return "fallback"
	default:
		return "consensus"
	}
}
