// Package stream emits newline-delimited JSON chunks over HTTP with
// progress reporting and mid-stream abort handling.
//
// Streaming uses exactly one pool task per chunk, awaited before the
// chunk is flushed — this bounds memory to one chunk's worth of
// records and is the reason parallel pre-generation was rejected
// (§4.6 of the spec).
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"syntheticdata/internal/generator"
	"syntheticdata/internal/metrics"
	"syntheticdata/internal/schemaprep"
	"syntheticdata/internal/workerpool"
)

// Clamp bounds for chunk size: single-schema vs multi-schema streams
// use different ranges per §4.6.
const (
	SingleMinChunk = 500
	SingleMaxChunk = 5000
	MultiMinChunk  = 50
	MultiMaxChunk  = 1000
)

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Writer drives one NDJSON response body, one pool-task chunk at a
// time.
type Writer struct {
	pool     *workerpool.Pool
	preparer *schemaprep.Preparer
	faker    generator.Faker
	counters *metrics.Counters
	logger   *zap.Logger
}

func New(pool *workerpool.Pool, preparer *schemaprep.Preparer, faker generator.Faker, counters *metrics.Counters, logger *zap.Logger) *Writer {
	if faker == nil {
		faker = generator.BuiltinFaker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{pool: pool, preparer: preparer, faker: faker, counters: counters, logger: logger}
}

type chunkProgress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type chunkStats struct {
	Size     int   `json:"size"`
	Duration int64 `json:"duration"`
}

type chunkRecord struct {
	Chunk      int           `json:"chunk"`
	Data       []map[string]any `json:"data"`
	Progress   chunkProgress `json:"progress"`
	ChunkStats chunkStats    `json:"chunkStats"`
}

type doneStats struct {
	TotalRecords     int     `json:"totalRecords"`
	ChunksStreamed   int     `json:"chunksStreamed"`
	Duration         int64   `json:"duration"`
	RecordsPerSecond float64 `json:"recordsPerSecond"`
	AvgChunkDuration float64 `json:"avgChunkDuration"`
}

type doneRecord struct {
	Done  bool      `json:"done"`
	Stats doneStats `json:"stats"`
}

type abortRecord struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Completed int    `json:"completed"`
}

type failureRecord struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Completed int    `json:"completed"`
}

type collectionCompleteRecord struct {
	CollectionComplete bool   `json:"collectionComplete"`
	Collection         string `json:"collection"`
	RecordsSent        int    `json:"recordsSent"`
}

func writeLine(w http.ResponseWriter, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// WriteSingle streams one schema's worth of count records at a
// clamped chunk size.
func (s *Writer) WriteSingle(ctx context.Context, w http.ResponseWriter, schema map[string]any, count int, fuzz bool, chunkSize int, handle *workerpool.CancelHandle) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Accel-Buffering", "no")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	chunkSize = clamp(chunkSize, SingleMinChunk, SingleMaxChunk)

	mode := schemaprep.ModeStrict
	if fuzz {
		mode = schemaprep.ModeFuzz
	}
	prepared, err := s.preparer.Prepare(schema, mode)
	if err != nil {
		return writeLine(w, failureRecord{Error: "generation_failed", Message: err.Error()})
	}

	totalChunks := int(math.Ceil(float64(count) / float64(chunkSize)))
	completed := 0
	start := time.Now()
	var chunkDurations time.Duration

	for chunk := 0; chunk < totalChunks; chunk++ {
		if handle.IsCancelled() {
			s.counters.RecordAborted()
			return writeLine(w, abortRecord{Error: "aborted", Message: "Job stopped by user", Completed: completed})
		}

		n := chunkSize
		if remaining := count - completed; n > remaining {
			n = remaining
		}

		chunkStart := time.Now()
		task := &workerpool.Task{Prepared: prepared, Count: n, Fuzz: fuzz, Faker: s.faker, Seed: time.Now().UnixNano() + int64(chunk)}
		records, err := s.pool.Run(ctx, task, handle)
		dur := time.Since(chunkStart)
		chunkDurations += dur

		if err != nil {
			if errors.Is(err, workerpool.ErrCancelled) {
				s.counters.RecordAborted()
				return writeLine(w, abortRecord{Error: "aborted", Message: "Job stopped by user", Completed: completed})
			}
			return writeLine(w, failureRecord{Error: "generation_failed", Message: err.Error(), Completed: completed})
		}

		completed += len(records)
		pct := int(float64(completed) / float64(count) * 100)
		if err := writeLine(w, chunkRecord{
			Chunk: chunk,
			Data:  records,
			Progress: chunkProgress{Completed: completed, Total: count, Percentage: pct},
			ChunkStats: chunkStats{Size: len(records), Duration: dur.Milliseconds()},
		}); err != nil {
			return err
		}
	}

	total := time.Since(start)
	avg := 0.0
	if totalChunks > 0 {
		avg = float64(chunkDurations.Milliseconds()) / float64(totalChunks)
	}
	rps := 0.0
	if total > 0 {
		rps = float64(completed) / total.Seconds()
	}
	s.counters.RecordSuccess(completed, total)
	return writeLine(w, doneRecord{Done: true, Stats: doneStats{
		TotalRecords:     completed,
		ChunksStreamed:   totalChunks,
		Duration:         total.Milliseconds(),
		RecordsPerSecond: rps,
		AvgChunkDuration: avg,
	}})
}

// SchemaRequest is one entry of a multi-schema stream request.
type SchemaRequest struct {
	Schema     map[string]any
	Collection string
	Count      int
}

// WriteMulti iterates schemas sequentially (never in parallel),
// emitting a collectionComplete marker between schemas.
func (s *Writer) WriteMulti(ctx context.Context, w http.ResponseWriter, schemas []SchemaRequest, fuzz bool, chunkSize int, handle *workerpool.CancelHandle) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Accel-Buffering", "no")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	chunkSize = clamp(chunkSize, MultiMinChunk, MultiMaxChunk)

	start := time.Now()
	totalSent := 0
	for _, sr := range schemas {
		if handle.IsCancelled() {
			s.counters.RecordAborted()
			return writeLine(w, abortRecord{Error: "aborted", Message: "Job stopped by user", Completed: totalSent})
		}
		sent, status, err := s.streamOneCollection(ctx, w, sr, fuzz, chunkSize, handle)
		totalSent += sent
		if err != nil {
			return err
		}
		switch status {
		case statusAborted:
			s.counters.RecordAborted()
			return nil
		case statusFailed:
			// Neither counter changes on a plain generation failure.
			return nil
		}
		if err := writeLine(w, collectionCompleteRecord{CollectionComplete: true, Collection: sr.Collection, RecordsSent: sent}); err != nil {
			return err
		}
	}
	s.counters.RecordSuccess(totalSent, time.Since(start))
	return nil
}

// collectionStatus reports how one schema's stream within a multi-
// schema job ended, so the caller can update counters at most once and
// decide whether to keep iterating to the next schema.
type collectionStatus int

const (
	statusDone collectionStatus = iota
	statusAborted
	statusFailed
)

// streamOneCollection streams one schema's chunks and reports how many
// records were sent and how the stream ended. writeErr is only ever an
// I/O error from writing to w; a generation failure or cancellation is
// reported via status, with the terminal record already written.
func (s *Writer) streamOneCollection(ctx context.Context, w http.ResponseWriter, sr SchemaRequest, fuzz bool, chunkSize int, handle *workerpool.CancelHandle) (completed int, status collectionStatus, writeErr error) {
	mode := schemaprep.ModeStrict
	if fuzz {
		mode = schemaprep.ModeFuzz
	}
	prepared, err := s.preparer.Prepare(sr.Schema, mode)
	if err != nil {
		return 0, statusFailed, writeLine(w, failureRecord{Error: "generation_failed", Message: err.Error()})
	}

	totalChunks := int(math.Ceil(float64(sr.Count) / float64(chunkSize)))
	for chunk := 0; chunk < totalChunks; chunk++ {
		if handle.IsCancelled() {
			return completed, statusAborted, writeLine(w, abortRecord{Error: "aborted", Message: "Job stopped by user", Completed: completed})
		}
		n := chunkSize
		if remaining := sr.Count - completed; n > remaining {
			n = remaining
		}
		chunkStart := time.Now()
		task := &workerpool.Task{Prepared: prepared, Count: n, Fuzz: fuzz, Faker: s.faker, Seed: time.Now().UnixNano() + int64(chunk)}
		records, err := s.pool.Run(ctx, task, handle)
		dur := time.Since(chunkStart)
		if err != nil {
			if errors.Is(err, workerpool.ErrCancelled) {
				return completed, statusAborted, writeLine(w, abortRecord{Error: "aborted", Message: "Job stopped by user", Completed: completed})
			}
			return completed, statusFailed, writeLine(w, failureRecord{Error: "generation_failed", Message: err.Error(), Completed: completed})
		}
		completed += len(records)
		pct := int(float64(completed) / float64(sr.Count) * 100)
		if err := writeLine(w, chunkRecord{
			Chunk:    chunk,
			Data:     records,
			Progress: chunkProgress{Completed: completed, Total: sr.Count, Percentage: pct},
			ChunkStats: chunkStats{Size: len(records), Duration: dur.Milliseconds()},
		}); err != nil {
			return completed, statusDone, err
		}
	}
	return completed, statusDone, nil
}
