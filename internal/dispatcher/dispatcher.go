// Package dispatcher decides main-thread vs pool execution for a
// single generation job, splits large counts into parallel chunks,
// and aggregates results in submission order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"syntheticdata/internal/generator"
	"syntheticdata/internal/metrics"
	"syntheticdata/internal/schemaprep"
	"syntheticdata/internal/workerpool"
)

// InlineThreshold is the count below which a non-streaming job runs
// inline on the caller's goroutine instead of fanning out.
const InlineThreshold = 300

// OverSubscriptionFactor is the intentional over-subscription that
// keeps the pool queue non-empty while executors steal work.
const OverSubscriptionFactor = 5

// ChunkDivisor controls how many records one fanned-out chunk
// targets before rounding up to a worker count.
const ChunkDivisor = 25

var ErrCancelled = workerpool.ErrCancelled

// Options carries the per-job generation flags.
type Options struct {
	Fuzz      bool
	Streaming bool
}

// Result is the aggregated outcome of one dispatched job.
type Result struct {
	Records  []map[string]any
	Delivered int
	Elapsed  time.Duration
}

// Dispatcher wires the schema preparer, worker pool and counters
// together to execute buffered (non-streaming) generation jobs.
// Streaming jobs bypass this type entirely — see internal/stream.
type Dispatcher struct {
	pool     *workerpool.Pool
	preparer *schemaprep.Preparer
	counters *metrics.Counters
	faker    generator.Faker
	logger   *zap.Logger
}

func New(pool *workerpool.Pool, preparer *schemaprep.Preparer, counters *metrics.Counters, faker generator.Faker, logger *zap.Logger) *Dispatcher {
	if faker == nil {
		faker = generator.BuiltinFaker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{pool: pool, preparer: preparer, counters: counters, faker: faker, logger: logger}
}

// Dispatch runs one buffered job end to end: prepares the schema,
// decides inline vs fan-out, executes, and updates the counters
// according to the outcome (success, cancellation, or failure).
func (d *Dispatcher) Dispatch(ctx context.Context, schema map[string]any, count int, opts Options, handle *workerpool.CancelHandle) (Result, error) {
	mode := schemaprep.ModeStrict
	if opts.Fuzz {
		mode = schemaprep.ModeFuzz
	}
	prepared, err := d.preparer.Prepare(schema, mode)
	if err != nil {
		return Result{}, fmt.Errorf("prepare schema: %w", err)
	}

	start := time.Now()
	var records []map[string]any

	if count < InlineThreshold && !opts.Streaming {
		records, err = d.runInline(prepared, count, opts.Fuzz, handle)
	} else {
		records, err = d.runFanOut(ctx, prepared, count, opts.Fuzz, handle)
	}
	elapsed := time.Since(start)

	switch {
	case errors.Is(err, ErrCancelled):
		d.counters.RecordAborted()
		return Result{Records: records, Delivered: len(records), Elapsed: elapsed}, err
	case err != nil:
		return Result{}, err
	default:
		d.counters.RecordSuccess(len(records), elapsed)
		return Result{Records: records, Delivered: len(records), Elapsed: elapsed}, nil
	}
}

func (d *Dispatcher) runInline(prepared *schemaprep.Prepared, count int, fuzz bool, handle *workerpool.CancelHandle) ([]map[string]any, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	records := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		if handle.IsCancelled() {
			return records, ErrCancelled
		}
		rec, err := generator.One(prepared, fuzz, d.faker, rng)
		if err != nil {
			return nil, fmt.Errorf("generation failed: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// runFanOut splits count into workerCount chunks per §4.5's
// over-subscription formula, submits them concurrently via errgroup,
// and concatenates the results preserving submission order regardless
// of executor completion order.
func (d *Dispatcher) runFanOut(ctx context.Context, prepared *schemaprep.Prepared, count int, fuzz bool, handle *workerpool.CancelHandle) ([]map[string]any, error) {
	activeExecutors := d.pool.ActiveCount()
	workerCount := min(OverSubscriptionFactor*activeExecutors, ceilDiv(count, ChunkDivisor))
	if workerCount < 1 {
		workerCount = 1
	}
	chunkSize := ceilDiv(count, workerCount)

	chunks := make([][]map[string]any, workerCount)
	g, gctx := errgroup.WithContext(ctx)

	remaining := count
	for i := 0; i < workerCount; i++ {
		idx := i
		n := chunkSize
		if n > remaining {
			n = remaining
		}
		remaining -= n
		if n <= 0 {
			continue
		}
		task := &workerpool.Task{
			Prepared: prepared,
			Count:    n,
			Fuzz:     fuzz,
			Faker:    d.faker,
			Seed:     time.Now().UnixNano() + int64(idx),
		}
		g.Go(func() error {
			recs, err := d.pool.Run(gctx, task, handle)
			chunks[idx] = recs
			return err
		})
	}

	err := g.Wait()

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]map[string]any, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}

	if err != nil {
		if errors.Is(err, workerpool.ErrCancelled) {
			return out, ErrCancelled
		}
		return nil, err
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return int(math.Ceil(float64(a) / float64(b)))
}
