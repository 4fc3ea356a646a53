// Package fetchcache memoizes fetch results by normalized request key for
// the lifetime of one run. Concurrent misses for the same key coalesce onto
// a single underlying fetch, bounding total request volume.
package fetchcache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/propscout/propscout/internal/model"
)

// Cache is a run-scoped, unbounded, concurrency-safe fetch-result map.
// No eviction: the run is bounded and single-shot.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]model.FetchResult
	group   singleflight.Group
	hits    atomic.Int64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]model.FetchResult)}
}

// Get returns the memoized result for key, counting a cache hit on success.
func (c *Cache) Get(key string) (model.FetchResult, bool) {
	res, ok := c.lookup(key)
	if ok {
		c.hits.Add(1)
	}
	return res, ok
}

// Put stores a result under key if the result is cacheable. Network errors
// and timeouts are never stored; they must be retried fresh.
func (c *Cache) Put(key string, res model.FetchResult) {
	if !res.Cacheable() {
		return
	}
	c.mu.Lock()
	c.entries[key] = res
	c.mu.Unlock()
}

// GetOrFetch returns the memoized result for key, or invokes fetch to
// produce it. Concurrent callers for an in-flight key share the outcome of
// the first call instead of issuing duplicate fetches; sharing callers are
// counted as cache hits.
func (c *Cache) GetOrFetch(key string, fetch func() model.FetchResult) model.FetchResult {
	if res, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return res
	}

	executed := false
	v, _, _ := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: an earlier flight may have stored it.
		if res, ok := c.lookup(key); ok {
			return res, nil
		}
		executed = true
		res := fetch()
		c.Put(key, res)
		return res, nil
	})
	if !executed {
		c.hits.Add(1)
	}
	return v.(model.FetchResult)
}

// Hits returns the number of cache hits so far.
func (c *Cache) Hits() int64 {
	return c.hits.Load()
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) lookup(key string) (model.FetchResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res, ok := c.entries[key]
	return res, ok
}
