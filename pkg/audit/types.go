package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Outcome values recorded in the trail.
const (
	OutcomeCompliant    = "compliant"
	OutcomeNonCompliant = "non_compliant"
	OutcomeRejected     = "rejected"
)

// Record is one immutable audit trail entry.
type Record struct {
	// AuditID uniquely identifies the entry.
	AuditID string `json:"audit_id"`

	// RequestID correlates the entry with the originating request.
	RequestID string `json:"request_id"`

	// TenantID identifies the requesting tenant, if any.
	TenantID string `json:"tenant_id,omitempty"`

	// ConstitutionalHash identifies the principle set in force.
	ConstitutionalHash string `json:"constitutional_hash"`

	// Category is the governance category of the request.
	Category string `json:"category,omitempty"`

	// Outcome is "compliant", "non_compliant", or "rejected".
	Outcome string `json:"outcome"`

	// Compliant is the final gate verdict.
	Compliant bool `json:"compliant"`

	// Score is the overall compliance score.
	Score float64 `json:"score"`

	// Breakdown is the serialized per-principle detail, if any.
	Breakdown json.RawMessage `json:"breakdown,omitempty"`

	// Strategy names the consensus strategy that produced the decision.
	Strategy string `json:"strategy,omitempty"`

	// Degraded marks decisions served while the system was degraded
	// (open circuit, quorum loss, budget exhaustion).
	Degraded bool `json:"degraded"`

	// Cached marks decisions served from the decision cache.
	Cached bool `json:"cached"`

	// LatencyMS is the end-to-end decision latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// CreatedAt is when the record was written.
	CreatedAt time.Time `json:"created_at"`
}

// Filter selects records in a Query. Zero-valued fields match everything.
type Filter struct {
	// RequestID matches a single request's records.
	RequestID string

	// TenantID restricts to one tenant.
	TenantID string

	// Outcome restricts to one outcome value.
	Outcome string

	// Since excludes records created before it.
	Since time.Time

	// Until excludes records created at or after it.
	Until time.Time

	// Limit caps the result size; 0 means the store's default cap.
	Limit int
}

// Store is an append-only audit record store. Implementations must be safe
// for concurrent use.
type Store interface {
	// Append writes one record.
	Append(ctx context.Context, rec *Record) error

	// Query returns records matching the filter, newest first.
	Query(ctx context.Context, f Filter) ([]*Record, error)

	// Prune deletes records created before the cutoff and reports how
	// many were removed.
	Prune(ctx context.Context, before time.Time) (int64, error)

	// Close releases store resources.
	Close() error
}
