package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsMonotonicIDs(t *testing.T) {
	r := New()
	id1, _ := r.Register("", 10)
	id2, _ := r.Register("", 10)
	assert.Less(t, id1, id2)
}

func TestCancelByExternalID(t *testing.T) {
	r := New()
	id, handle := r.Register("job-abc", 100)
	require.False(t, handle.IsCancelled())

	ok := r.CancelByExternalID("job-abc")
	assert.True(t, ok)
	assert.True(t, handle.IsCancelled())

	ok = r.CancelByExternalID("does-not-exist")
	assert.False(t, ok)

	r.Unregister(id)
}

func TestCancelAllResetsCounterOnlyWhenEmpty(t *testing.T) {
	r := New()
	id1, _ := r.Register("", 1)
	_, handle2 := r.Register("", 1)

	// id1's job has already unregistered by the time CancelAll runs,
	// but id2's job is still registered: the counter must not reset.
	r.Unregister(id1)
	n := r.CancelAll()
	assert.Equal(t, 1, n)
	assert.True(t, handle2.IsCancelled())

	idAfterPartialCancel, _ := r.Register("", 1)
	assert.Greater(t, idAfterPartialCancel, int64(2))
	r.Unregister(idAfterPartialCancel)
	r.Unregister(2) // job2, registered above as the second Register call

	// Now the registry is fully empty: CancelAll resets the counter.
	r.CancelAll()
	idAfterEmpty, _ := r.Register("", 1)
	assert.Equal(t, int64(1), idAfterEmpty)
}

func TestListReflectsActiveJobs(t *testing.T) {
	r := New()
	id1, _ := r.Register("ext-1", 5)
	id2, _ := r.Register("", 7)

	views := r.List()
	assert.Len(t, views, 2)
	assert.Equal(t, 2, r.ActiveCount())

	r.Unregister(id1)
	r.Unregister(id2)
	assert.Equal(t, 0, r.ActiveCount())
}
