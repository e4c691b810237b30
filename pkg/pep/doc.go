// Package pep implements the policy enforcement point, the single entry
// path for governance decisions.
//
// Decide runs each request through a fixed pipeline: system circuit check,
// constitutional hash validation, decision cache lookup, consensus synthesis
// under the request budget, and fallback when consensus cannot be reached.
// Hash validation failures reject the request outright; every other
// degradation (open circuit, quorum loss, exhausted budget) is absorbed by
// serving the last-known-good decision for the category, or a default-deny
// decision when none exists. Every outcome is recorded in the audit trail.
package pep
