package workerpool

import "sync"

// CancelHandle is a single-producer/multi-consumer cancellation
// signal shared by every task belonging to one job. Signaling is
// idempotent: re-signaling an already-cancelled handle is a no-op.
// Observation is a cheap channel-close check, cheap enough to poll
// between every generated record.
type CancelHandle struct {
	once sync.Once
	ch   chan struct{}
}

// NewCancelHandle returns a fresh, unsignaled handle.
func NewCancelHandle() *CancelHandle {
	return &CancelHandle{ch: make(chan struct{})}
}

// Cancel signals the handle. Safe to call multiple times or
// concurrently; only the first call has an effect.
func (h *CancelHandle) Cancel() {
	h.once.Do(func() { close(h.ch) })
}

// Done returns a channel closed once Cancel has been called.
func (h *CancelHandle) Done() <-chan struct{} {
	return h.ch
}

// IsCancelled reports whether Cancel has been called. Cheap, safe to
// call on every record boundary inside a running task.
func (h *CancelHandle) IsCancelled() bool {
	select {
	case <-h.ch:
		return true
	default:
		return false
	}
}
