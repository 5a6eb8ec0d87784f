package workerpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"syntheticdata/internal/schemaprep"
)

func testSchema() *schemaprep.Prepared {
	return &schemaprep.Prepared{
		Mode: schemaprep.ModeStrict,
		Raw: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"additionalProperties": false,
		},
	}
}

func TestRunReturnsRequestedRecordCount(t *testing.T) {
	p := New(1, 2, 8, 0, nil)
	defer p.Shutdown(context.Background())

	handle := NewCancelHandle()
	task := &Task{Prepared: testSchema(), Count: 5}
	records, err := p.Run(context.Background(), task, handle)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestRunRejectsAlreadyCancelledHandle(t *testing.T) {
	p := New(1, 2, 8, 0, nil)
	defer p.Shutdown(context.Background())

	handle := NewCancelHandle()
	handle.Cancel()
	_, err := p.Run(context.Background(), &Task{Prepared: testSchema(), Count: 5}, handle)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestCancelHandleIsIdempotent(t *testing.T) {
	h := NewCancelHandle()
	h.Cancel()
	h.Cancel()
	assert.True(t, h.IsCancelled())
}

func TestShutdownDrainsInFlightWork(t *testing.T) {
	p := New(1, 1, 8, 0, nil)
	handle := NewCancelHandle()

	done := make(chan struct{})
	go func() {
		_, _ = p.Run(context.Background(), &Task{Prepared: testSchema(), Count: 1000}, handle)
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := p.Shutdown(ctx)
	require.NoError(t, err)
	<-done
}
