// Package registry maps external job-id <-> internal request-id <->
// cancellation handle, and enumerates active jobs.
package registry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"syntheticdata/internal/workerpool"
)

// Job is a logical unit of work. The Registry exclusively owns Job
// entries; callers hold only a RequestID token.
type Job struct {
	RequestID  int64
	ExternalID string
	TraceID    uuid.UUID
	Count      int
	StartedAt  time.Time
	Handle     *workerpool.CancelHandle
}

// View is the read-only projection returned by List.
type View struct {
	RequestID  int64         `json:"requestId"`
	ExternalID string        `json:"externalJobId,omitempty"`
	Count      int           `json:"count"`
	StartedAt  time.Time     `json:"startedAt"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Registry is process-wide mutable state guarded by a single mutex.
// External callers never hold references to interior Job values.
type Registry struct {
	mu         sync.RWMutex
	byRequest  map[int64]*Job
	byExternal map[string]int64
	nextID     atomic.Int64
}

func New() *Registry {
	return &Registry{
		byRequest:  make(map[int64]*Job),
		byExternal: make(map[string]int64),
	}
}

// Register allocates a monotonically increasing request-id and a
// fresh cancellation handle for a new job. Concurrent registrations
// never collide: the id comes from an atomic counter.
func (r *Registry) Register(externalID string, count int) (int64, *workerpool.CancelHandle) {
	id := r.nextID.Add(1)
	handle := workerpool.NewCancelHandle()
	job := &Job{
		RequestID:  id,
		ExternalID: externalID,
		TraceID:    uuid.New(),
		Count:      count,
		StartedAt:  time.Now(),
		Handle:     handle,
	}

	r.mu.Lock()
	r.byRequest[id] = job
	if externalID != "" {
		r.byExternal[externalID] = id
	}
	r.mu.Unlock()

	return id, handle
}

// Unregister removes a job's entry. Called when the handler returns
// or the handler's caller disconnects.
func (r *Registry) Unregister(requestID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byRequest[requestID]
	if !ok {
		return
	}
	delete(r.byRequest, requestID)
	if job.ExternalID != "" {
		if cur, ok := r.byExternal[job.ExternalID]; ok && cur == requestID {
			delete(r.byExternal, job.ExternalID)
		}
	}
}

// CancelByRequestID signals the job's handle, returning false if the
// request-id is unknown.
func (r *Registry) CancelByRequestID(requestID int64) bool {
	r.mu.RLock()
	job, ok := r.byRequest[requestID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	job.Handle.Cancel()
	return true
}

// CancelByExternalID is a no-op (returns false) when id is unknown.
func (r *Registry) CancelByExternalID(externalID string) bool {
	r.mu.RLock()
	requestID, ok := r.byExternal[externalID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return r.CancelByRequestID(requestID)
}

// CancelAll signals every active job's handle and returns the count
// signaled. The request-id counter is reset only when doing so
// leaves the registry empty; a partial cancel (jobs still registered
// because their handlers haven't unwound yet) must not reset it.
func (r *Registry) CancelAll() int {
	r.mu.RLock()
	jobs := make([]*Job, 0, len(r.byRequest))
	for _, j := range r.byRequest {
		jobs = append(jobs, j)
	}
	r.mu.RUnlock()

	for _, j := range jobs {
		j.Handle.Cancel()
	}

	r.mu.Lock()
	if len(r.byRequest) == 0 {
		r.nextID.Store(0)
	}
	r.mu.Unlock()

	return len(jobs)
}

// List enumerates active jobs.
func (r *Registry) List() []View {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]View, 0, len(r.byRequest))
	now := time.Now()
	for _, j := range r.byRequest {
		out = append(out, View{
			RequestID:  j.RequestID,
			ExternalID: j.ExternalID,
			Count:      j.Count,
			StartedAt:  j.StartedAt,
			Elapsed:    now.Sub(j.StartedAt),
		})
	}
	return out
}

// ActiveCount returns the number of currently registered jobs.
func (r *Registry) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRequest)
}
