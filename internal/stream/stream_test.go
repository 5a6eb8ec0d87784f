package stream

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntheticdata/internal/metrics"
	"syntheticdata/internal/schemaprep"
	"syntheticdata/internal/workerpool"
)

func testWriter() (*Writer, *workerpool.Pool, *metrics.Counters) {
	pool := workerpool.New(1, 2, 8, 0, nil)
	preparer := schemaprep.New(16, time.Minute)
	counters := metrics.New()
	return New(pool, preparer, nil, counters, nil), pool, counters
}

func objectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "integer"}},
	}
}

func TestWriteSingleRecordsSuccessOnCompletion(t *testing.T) {
	w, pool, counters := testWriter()
	defer pool.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	handle := workerpool.NewCancelHandle()
	err := w.WriteSingle(context.Background(), rec, objectSchema(), 600, false, SingleMinChunk, handle)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(1), snap.CompletedJobs)
	assert.Equal(t, uint64(0), snap.AbortedJobs)
}

func TestWriteSingleRecordsAbortOnCancellation(t *testing.T) {
	w, pool, counters := testWriter()
	defer pool.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	handle := workerpool.NewCancelHandle()
	handle.Cancel()
	err := w.WriteSingle(context.Background(), rec, objectSchema(), 600, false, SingleMinChunk, handle)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(0), snap.CompletedJobs)
	assert.Equal(t, uint64(1), snap.AbortedJobs)
	assert.Contains(t, rec.Body.String(), `"error":"aborted"`)
}

func TestWriteMultiRecordsSuccessAcrossSchemas(t *testing.T) {
	w, pool, counters := testWriter()
	defer pool.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	handle := workerpool.NewCancelHandle()
	schemas := []SchemaRequest{
		{Schema: objectSchema(), Collection: "a", Count: MultiMinChunk},
		{Schema: objectSchema(), Collection: "b", Count: MultiMinChunk},
	}
	err := w.WriteMulti(context.Background(), rec, schemas, false, MultiMinChunk, handle)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(1), snap.CompletedJobs)
	assert.Equal(t, uint64(0), snap.AbortedJobs)
}

func TestWriteMultiRecordsAbortOnceWhenCancelled(t *testing.T) {
	w, pool, counters := testWriter()
	defer pool.Shutdown(context.Background())

	rec := httptest.NewRecorder()
	handle := workerpool.NewCancelHandle()
	handle.Cancel()
	schemas := []SchemaRequest{
		{Schema: objectSchema(), Collection: "a", Count: MultiMinChunk},
		{Schema: objectSchema(), Collection: "b", Count: MultiMinChunk},
	}
	err := w.WriteMulti(context.Background(), rec, schemas, false, MultiMinChunk, handle)
	require.NoError(t, err)

	snap := counters.Snapshot()
	assert.Equal(t, uint64(0), snap.CompletedJobs)
	assert.Equal(t, uint64(1), snap.AbortedJobs)
}
