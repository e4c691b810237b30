// Package server provides the HTTP API for the enforcement point: the
// validation endpoint, health and readiness probes, Prometheus metrics, and
// audit trail queries, behind a request-id / logging / recovery middleware
// chain.
package server
