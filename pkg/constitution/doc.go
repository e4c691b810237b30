// Package constitution manages the versioned set of governance principles
// that every decision is evaluated against.
//
// A PrincipleSet is an immutable snapshot of the active principles, sorted by
// id, carrying a 16-hex-character constitutional hash computed over the
// RFC 8785 canonical JSON serialization of the set. The Store publishes
// snapshots with an atomic pointer swap so in-flight requests never observe a
// torn set. The Validator recomputes the hash on a bounded TTL and rejects
// requests on any mismatch with the pinned fingerprint, which indicates
// unauthorized or unsynchronized configuration drift.
//
// Principles are authored out-of-band; this package only loads them, from a
// YAML file or directory (optionally hot-reloaded via fsnotify) or from a git
// repository polled for new commits.
package constitution
