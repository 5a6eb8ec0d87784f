// Package workerpool implements the fixed/elastic pool of executors
// that run generation tasks, exposing a run-with-cancel primitive.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"syntheticdata/internal/generator"
	"syntheticdata/internal/schemaprep"
)

// ErrCancelled is returned by Run when the task's handle was signaled
// either before the task started or mid-execution.
var ErrCancelled = errors.New("workerpool: task cancelled")

// DefaultIdleTimeout matches §4.3: idle executors above minThreads
// time out after 60s and the pool scales back down.
const DefaultIdleTimeout = 60 * time.Second

// Task is the stateless-beyond-its-arguments unit of work described
// in §3: a prepared schema, a chunk count, and generation options.
type Task struct {
	Prepared        *schemaprep.Prepared
	Count           int
	Fuzz            bool
	ChunkBufferSize int
	Faker           generator.Faker
	Seed            int64
}

type queueItem struct {
	task     *Task
	handle   *CancelHandle
	resultCh chan runOutcome
}

type runOutcome struct {
	records []map[string]any
	err     error
}

// Pool is a bounded pool of executors, minThreads <= n <= maxThreads.
// Each executor runs at most one task at a time.
type Pool struct {
	minThreads  int
	maxThreads  int
	idleTimeout time.Duration
	logger      *zap.Logger

	tasks chan *queueItem

	sizeMu  sync.Mutex
	size    int
	active  atomic.Int64
	busy    atomic.Int64
	done    atomic.Uint64
	closed  atomic.Bool
	wg      sync.WaitGroup
	closeCh chan struct{}
}

// New builds a pool with the given thread bounds. maxQueue bounds how
// many tasks may be waiting (FIFO); excess Run calls block until a
// slot frees up, which is the "queue" in §4.3's observable state.
func New(minThreads, maxThreads, maxQueue int, idleTimeout time.Duration, logger *zap.Logger) *Pool {
	if minThreads <= 0 {
		minThreads = 1
	}
	if maxThreads < minThreads {
		maxThreads = minThreads
	}
	if maxQueue <= 0 {
		maxQueue = 1024
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		minThreads:  minThreads,
		maxThreads:  maxThreads,
		idleTimeout: idleTimeout,
		logger:      logger,
		tasks:       make(chan *queueItem, maxQueue),
		closeCh:     make(chan struct{}),
	}
	for i := 0; i < minThreads; i++ {
		p.spawn(false)
	}
	logger.Info("worker pool started", zap.Int("min_threads", minThreads), zap.Int("max_threads", maxThreads))
	return p
}

// Run submits a task and blocks until it completes, the handle is
// cancelled, or ctx is done. If the handle is already signaled before
// the task starts, the pool skips execution and returns ErrCancelled
// immediately.
func (p *Pool) Run(ctx context.Context, task *Task, handle *CancelHandle) ([]map[string]any, error) {
	if handle.IsCancelled() {
		return nil, ErrCancelled
	}
	if p.closed.Load() {
		return nil, fmt.Errorf("workerpool: pool is shut down")
	}

	p.maybeScaleUp()

	it := &queueItem{task: task, handle: handle, resultCh: make(chan runOutcome, 1)}
	select {
	case p.tasks <- it:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-handle.Done():
		return nil, ErrCancelled
	}

	select {
	case out := <-it.resultCh:
		return out.records, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) maybeScaleUp() {
	if len(p.tasks) == 0 {
		return
	}
	p.sizeMu.Lock()
	defer p.sizeMu.Unlock()
	if p.size >= p.maxThreads {
		return
	}
	p.size++
	p.wg.Add(1)
	go p.worker(true)
}

func (p *Pool) spawn(elastic bool) {
	p.sizeMu.Lock()
	p.size++
	p.wg.Add(1)
	p.sizeMu.Unlock()
	go p.worker(elastic)
}

func (p *Pool) worker(elastic bool) {
	defer p.wg.Done()
	p.active.Add(1)
	defer p.active.Add(-1)
	defer func() {
		p.sizeMu.Lock()
		p.size--
		p.sizeMu.Unlock()
	}()

	idleTimer := time.NewTimer(p.idleTimeout)
	defer idleTimer.Stop()

	for {
		select {
		case it, ok := <-p.tasks:
			if !ok {
				return
			}
			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			p.busy.Add(1)
			p.execute(it)
			p.busy.Add(-1)
			p.done.Add(1)
			idleTimer.Reset(p.idleTimeout)
		case <-idleTimer.C:
			if elastic {
				p.sizeMu.Lock()
				above := p.size > p.minThreads
				p.sizeMu.Unlock()
				if above {
					return
				}
			}
			idleTimer.Reset(p.idleTimeout)
		case <-p.closeCh:
			return
		}
	}
}

// execute runs one task, checking cancellation at each record
// boundary. Sub-record granularity is not required: a task is
// observed between generated records, never inside the per-record
// faker call.
func (p *Pool) execute(it *queueItem) {
	if it.handle.IsCancelled() {
		it.resultCh <- runOutcome{err: ErrCancelled}
		return
	}

	task := it.task
	rng := rand.New(rand.NewSource(task.Seed))
	records := make([]map[string]any, 0, task.Count)
	for i := 0; i < task.Count; i++ {
		if it.handle.IsCancelled() {
			it.resultCh <- runOutcome{records: records, err: ErrCancelled}
			return
		}
		rec, err := generator.One(task.Prepared, task.Fuzz, task.Faker, rng)
		if err != nil {
			p.logger.Warn("generation task failed", zap.Error(err))
			it.resultCh <- runOutcome{err: fmt.Errorf("generation failed: %w", err)}
			return
		}
		records = append(records, rec)
	}
	it.resultCh <- runOutcome{records: records}
}

// Stats is the observable state consumed by metrics.
type Stats struct {
	Active    int64 `json:"active"`
	QueueLen  int   `json:"queue_len"`
	Completed uint64 `json:"completed"`
	MinThreads int   `json:"min_threads"`
	MaxThreads int   `json:"max_threads"`
}

func (p *Pool) Stats() Stats {
	return Stats{
		Active:     p.active.Load(),
		QueueLen:   len(p.tasks),
		Completed:  p.done.Load(),
		MinThreads: p.minThreads,
		MaxThreads: p.maxThreads,
	}
}

// ActiveCount is used by the dispatcher's fan-out sizing formula
// (workerCount = min(5*T, ceil(count/25))).
func (p *Pool) ActiveCount() int {
	n := p.active.Load()
	if n <= 0 {
		return p.minThreads
	}
	return int(n)
}

// Shutdown stops accepting new workers and waits (bounded by ctx) for
// in-flight executors to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(p.closeCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
