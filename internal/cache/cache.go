// Package cache provides the in-process TTL cache that sits in front of
// every upstream call. The cache is an explicitly constructed value injected
// into whichever component needs it, never package-level state.
package cache

import (
	"fmt"
	"sync"
	"time"

	"cryptotools/internal/metrics"
)

type entry struct {
	ts    time.Time
	value interface{}
}

// Cache maps opaque string keys to timestamped values. Keys are a small
// fixed set plus one key per distinct search query; nothing is evicted
// beyond overwrite-on-refresh.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// SetClock replaces the cache's time source. Test use only.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// GetOrCompute returns the cached value for key when it is younger than ttl,
// otherwise invokes compute, stores its result unconditionally and returns
// it. compute runs outside the lock, so concurrent callers racing an expired
// entry may each invoke it; reads are idempotent and the stampede is an
// accepted trade for never blocking readers behind network I/O.
func (c *Cache) GetOrCompute(key string, ttl time.Duration, compute func() interface{}) interface{} {
	c.mu.RLock()
	hit, ok := c.entries[key]
	fresh := ok && c.now().Sub(hit.ts) < ttl
	c.mu.RUnlock()

	metrics.RecordCache(key, fresh)
	if fresh {
		return hit.value
	}

	value := compute()

	c.mu.Lock()
	c.entries[key] = entry{ts: c.now(), value: value}
	c.mu.Unlock()

	return value
}

// Snapshot reports the age of every entry as a human-readable "Ns ago"
// string, keyed by cache key. Diagnostic view for the admin surface.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]string, len(c.entries))
	now := c.now()
	for key, hit := range c.entries {
		snapshot[key] = fmt.Sprintf("%ds ago", int(now.Sub(hit.ts).Seconds()))
	}
	return snapshot
}
