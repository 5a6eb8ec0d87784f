package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntheticdata/internal/metrics"
	"syntheticdata/internal/schemaprep"
	"syntheticdata/internal/workerpool"
)

func newTestDispatcher() (*Dispatcher, *workerpool.Pool) {
	pool := workerpool.New(2, 4, 64, 0, nil)
	preparer := schemaprep.New(16, time.Minute)
	counters := metrics.New()
	return New(pool, preparer, counters, nil, nil), pool
}

func simpleSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": map[string]any{"type": "integer"}},
	}
}

func TestDispatchInlineBelowThreshold(t *testing.T) {
	d, pool := newTestDispatcher()
	defer pool.Shutdown(context.Background())

	handle := workerpool.NewCancelHandle()
	res, err := d.Dispatch(context.Background(), simpleSchema(), 10, Options{}, handle)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Delivered)
	assert.Len(t, res.Records, 10)
}

func TestDispatchFanOutDeliversFullCount(t *testing.T) {
	d, pool := newTestDispatcher()
	defer pool.Shutdown(context.Background())

	handle := workerpool.NewCancelHandle()
	// Above InlineThreshold forces the fan-out path.
	res, err := d.Dispatch(context.Background(), simpleSchema(), InlineThreshold+50, Options{}, handle)
	require.NoError(t, err)
	assert.Equal(t, InlineThreshold+50, res.Delivered)
	assert.Len(t, res.Records, InlineThreshold+50)
}

func TestDispatchCancelledReturnsPartialAndErrCancelled(t *testing.T) {
	d, pool := newTestDispatcher()
	defer pool.Shutdown(context.Background())

	handle := workerpool.NewCancelHandle()
	handle.Cancel()
	res, err := d.Dispatch(context.Background(), simpleSchema(), 10, Options{}, handle)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, 0, res.Delivered)
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, 4, ceilDiv(10, 3))
	assert.Equal(t, 1, ceilDiv(1, 3))
	assert.Equal(t, 0, ceilDiv(0, 3))
}
