// Package audit implements the append-only decision audit trail.
//
// Every enforcement decision produces a Record: who asked, which principle
// set was in force, what the verdict was, and how it was produced (consensus,
// cache, or fallback). Records are written asynchronously through a Recorder
// so the decision path never blocks on storage; the Store interface has a
// bounded in-memory implementation for tests and ephemeral deployments and a
// SQLite implementation for durable trails. A cron-driven Pruner enforces the
// retention policy.
package audit
