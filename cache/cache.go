// Package cache provides a small TTL-governed LRU cache shared by the
// embedder client, the hybrid search engine, and the reranker (spec §5
// "Shared resources: Cache", §4.C/§4.F.3/§4.G.1), built on hashicorp/golang-lru.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type entry struct {
	value   any
	expires time.Time
}

// TTLCache wraps an LRU cache with a fixed per-entry time-to-live. A cache
// whose Get returns a value that has expired is treated as a miss and is
// evicted lazily on the next Get: stale values expire by TTL regardless of
// LRU pressure (§5).
type TTLCache struct {
	mu    sync.Mutex
	lru   *lru.Cache
	ttl   time.Duration
}

// New builds a TTLCache holding at most size entries, each valid for ttl.
func New(size int, ttl time.Duration) (*TTLCache, error) {
	if size <= 0 {
		size = 1024
	}
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &TTLCache{lru: l, ttl: ttl}, nil
}

// Get returns the cached value for key and true, or (nil, false) on a miss
// or an expired entry.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if time.Now().After(e.expires) {
		c.lru.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with this cache's configured TTL.
func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(key, entry{value: value, expires: time.Now().Add(c.ttl)})
}

// Len reports the number of entries currently held (including any not yet
// lazily evicted despite having expired).
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
