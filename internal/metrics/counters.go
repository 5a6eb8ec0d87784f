// Package metrics holds the process-wide counters mutated by the
// dispatcher and the streaming writer on job completion and read by
// the external metrics collaborator.
package metrics

import (
	"sync/atomic"
	"time"
)

// Counters is the process-wide mutable record from §3. It is mutated
// by the Dispatcher (buffered jobs) and the stream Writer (streamed
// jobs), and read by whatever exposes /metrics.
type Counters struct {
	totalGenerated uint64
	totalDuration  atomic.Int64 // nanoseconds
	completedJobs  uint64
	abortedJobs    uint64
}

func New() *Counters { return &Counters{} }

// RecordSuccess is called exactly once per successfully completed job.
func (c *Counters) RecordSuccess(delivered int, elapsed time.Duration) {
	atomic.AddUint64(&c.totalGenerated, uint64(delivered))
	c.totalDuration.Add(int64(elapsed))
	atomic.AddUint64(&c.completedJobs, 1)
}

// RecordAborted is called exactly once per cancelled job.
func (c *Counters) RecordAborted() {
	atomic.AddUint64(&c.abortedJobs, 1)
}

// Snapshot is a point-in-time read of all four counters.
type Snapshot struct {
	TotalGenerated   uint64        `json:"totalGenerated"`
	TotalDuration    time.Duration `json:"totalDuration"`
	CompletedJobs    uint64        `json:"completedJobs"`
	AbortedJobs      uint64        `json:"abortedJobs"`
	RecordsPerSecond float64       `json:"recordsPerSecond"`
}

func (c *Counters) Snapshot() Snapshot {
	total := atomic.LoadUint64(&c.totalGenerated)
	dur := time.Duration(c.totalDuration.Load())
	rps := 0.0
	if dur > 0 {
		rps = float64(total) / dur.Seconds()
	}
	return Snapshot{
		TotalGenerated:   total,
		TotalDuration:    dur,
		CompletedJobs:    atomic.LoadUint64(&c.completedJobs),
		AbortedJobs:      atomic.LoadUint64(&c.abortedJobs),
		RecordsPerSecond: rps,
	}
}
