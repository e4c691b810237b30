package rollback

import (
	"sort"
	"sync"
	"time"
)

// maxLatencySamples caps per-bucket latency retention so a traffic burst
// cannot grow the window without bound. The p95 over a capped sample is an
// approximation; at this size the error is negligible for trip decisions.
const maxLatencySamples = 1024

// window is a bucketed sliding window over decision outcomes. Buckets are
// aligned to the sample interval and recycled in place, so memory is fixed
// at windowSize/interval buckets regardless of traffic.
type window struct {
	interval time.Duration
	buckets  []bucket
	now      func() time.Time

	mu sync.Mutex
}

type bucket struct {
	start         time.Time
	requests      int64
	errors        int64
	complianceSum float64
	latencies     []time.Duration
}

// Aggregate is a point-in-time summary of the window.
type Aggregate struct {
	// Requests is the number of decisions observed in the window.
	Requests int64

	// ErrorRate is errors/requests, 0 when the window is empty.
	ErrorRate float64

	// MeanCompliance is the mean overall compliance score of successful
	// decisions, 0 when none completed.
	MeanCompliance float64

	// P95Latency is the 95th-percentile decision latency.
	P95Latency time.Duration
}

func newWindow(size, interval time.Duration) *window {
	n := int(size / interval)
	if n < 1 {
		n = 1
	}
	return &window{
		interval: interval,
		buckets:  make([]bucket, n),
		now:      time.Now,
	}
}

// record adds one decision outcome to the current bucket.
func (w *window) record(failed bool, compliance float64, latency time.Duration) {
	now := w.now()
	start := now.Truncate(w.interval)

	w.mu.Lock()
	defer w.mu.Unlock()

	b := &w.buckets[w.index(start)]
	if !b.start.Equal(start) {
		*b = bucket{start: start, latencies: b.latencies[:0]}
	}

	b.requests++
	if failed {
		b.errors++
	} else {
		b.complianceSum += compliance
	}
	if len(b.latencies) < maxLatencySamples {
		b.latencies = append(b.latencies, latency)
	}
}

// aggregate summarizes all buckets still inside the window.
func (w *window) aggregate() Aggregate {
	now := w.now()
	oldest := now.Add(-w.interval * time.Duration(len(w.buckets)))

	w.mu.Lock()
	defer w.mu.Unlock()

	var agg Aggregate
	var succeeded int64
	var complianceSum float64
	var latencies []time.Duration

	for i := range w.buckets {
		b := &w.buckets[i]
		if b.start.Before(oldest) || b.requests == 0 {
			continue
		}
		agg.Requests += b.requests
		errors := b.errors
		succeeded += b.requests - errors
		complianceSum += b.complianceSum
		agg.ErrorRate += float64(errors)
		latencies = append(latencies, b.latencies...)
	}

	if agg.Requests > 0 {
		agg.ErrorRate /= float64(agg.Requests)
	}
	if succeeded > 0 {
		agg.MeanCompliance = complianceSum / float64(succeeded)
	}
	agg.P95Latency = p95(latencies)
	return agg
}

// reset clears all buckets.
func (w *window) reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.buckets {
		w.buckets[i] = bucket{}
	}
}

func (w *window) index(start time.Time) int {
	return int(start.UnixNano()/int64(w.interval)) % len(w.buckets)
}

// p95 returns the 95th-percentile of the samples, sorting a copy.
func p95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted)*95 + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}
