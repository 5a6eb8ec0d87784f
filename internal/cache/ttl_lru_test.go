package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddAndGet(t *testing.T) {
	c := New[string, int](4, time.Minute)
	c.Add("a", 1)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestGetMissAfterTTLExpires(t *testing.T) {
	c := New[string, int](4, time.Millisecond)
	c.Add("a", 1)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestEvictsLeastRecentlyUsedBeyondMax(t *testing.T) {
	c := New[string, int](2, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // refresh a's recency
	c.Add("c", 3)

	_, okB := c.Get("b")
	_, okA := c.Get("a")
	_, okC := c.Get("c")
	assert.False(t, okB)
	assert.True(t, okA)
	assert.True(t, okC)
}

func TestClearEmptiesCache(t *testing.T) {
	c := New[string, int](4, time.Minute)
	c.Add("a", 1)
	c.Clear()
	assert.Equal(t, 0, c.Stats().Size)
}
