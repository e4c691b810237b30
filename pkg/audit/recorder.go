package audit

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// appendTimeout bounds a single store write so a stuck store cannot wedge
// the worker.
const appendTimeout = 5 * time.Second

// Recorder decouples the decision path from audit storage. Record enqueues
// onto a bounded channel and returns immediately; a single worker drains the
// channel into the Store. When the channel is full the record is dropped and
// counted, favoring decision latency over trail completeness.
type Recorder struct {
	store  Store
	logger *slog.Logger

	ch      chan *Record
	done    chan struct{}
	dropped atomic.Int64
}

// Dropped returns the number of records discarded because the queue was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// NewRecorder creates a Recorder with the given channel capacity and starts
// its worker.
func NewRecorder(store Store, buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Recorder{
		store:  store,
		logger: logger.With("component", "audit.recorder"),
		ch:     make(chan *Record, buffer),
		done:   make(chan struct{}),
	}
	go r.run()
	return r
}

// Record assigns the entry an audit id and timestamp and enqueues it.
// Returns the audit id. Never blocks; a full queue drops the record.
func (r *Recorder) Record(rec *Record) string {
	rec.AuditID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	select {
	case r.ch <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Warn("audit queue full, record dropped",
			"request_id", rec.RequestID,
			"audit_id", rec.AuditID,
		)
	}
	return rec.AuditID
}

// Close stops accepting records, drains the queue, and waits for the worker.
// The underlying store is not closed.
func (r *Recorder) Close() {
	close(r.ch)
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	for rec := range r.ch {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		if err := r.store.Append(ctx, rec); err != nil {
			r.logger.Error("failed to write audit record",
				"audit_id", rec.AuditID,
				"request_id", rec.RequestID,
				"error", err,
			)
		}
		cancel()
	}
}
