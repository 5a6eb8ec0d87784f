// Package cache wraps hashicorp/golang-lru with a soft TTL: entries
// evicted by age are treated the same as entries evicted by
// recency, and a successful Get refreshes both.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TTLCache is a bounded, strict-LRU cache with a soft time-to-live.
// Reads extend an entry's age; there is no background sweep, expiry
// is checked lazily on Get.
type TTLCache[K comparable, V any] struct {
	mu  sync.Mutex
	lru *lru.Cache[K, entry[V]]
	ttl time.Duration
	max int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// New builds a TTLCache bounded to max entries with the given TTL.
func New[K comparable, V any](max int, ttl time.Duration) *TTLCache[K, V] {
	if max <= 0 {
		max = 1
	}
	c, err := lru.New[K, entry[V]](max)
	if err != nil {
		// lru.New only fails for size <= 0, already guarded above.
		panic(err)
	}
	return &TTLCache[K, V]{lru: c, ttl: ttl, max: max}
}

// Get returns the cached value and true if present and unexpired. A
// hit refreshes both LRU recency (via the underlying Get) and the TTL
// clock (by re-adding with a fresh expiry).
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.lru.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		var zero V
		return zero, false
	}
	e.expiresAt = time.Now().Add(c.ttl)
	c.lru.Add(key, e)
	return e.value, true
}

// Add inserts or replaces a value, resetting its TTL.
func (c *TTLCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry[V]{value: value, expiresAt: time.Now().Add(c.ttl)})
}

// Clear empties the cache.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
}

// Stats reports current size and configured maximum.
type Stats struct {
	Size int `json:"size"`
	Max  int `json:"max"`
}

func (c *TTLCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: c.lru.Len(), Max: c.max}
}
