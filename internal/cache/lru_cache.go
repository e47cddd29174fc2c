package cache

import (
	"context"
	"sync"
	"time"

	lru "github.com/zyedidia/generic/cache"
)

type lruEntry struct {
	value   []byte
	expires time.Time // zero means never
}

// LRUCache is an in-process CacheRepo bounded by entry count.
// It is used when Redis is not configured and in tests.
type LRUCache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, lruEntry]
	now     func() time.Time
	metrics CacheMetrics
}

// NewLRUCache creates a cache holding at most capacity entries.
func NewLRUCache(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 4096
	}
	return &LRUCache{
		entries: lru.New[string, lruEntry](capacity),
		now:     time.Now,
	}
}

func (c *LRUCache) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metrics.TotalRequests++
	e, ok := c.entries.Get(key)
	if ok && !e.expires.IsZero() && c.now().After(e.expires) {
		c.entries.Remove(key)
		ok = false
	}
	if !ok {
		c.metrics.CacheMisses++
		return nil, ErrCacheMiss
	}
	c.metrics.CacheHits++
	return e.value, nil
}

func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	e := lruEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.entries.Put(key, e)
	c.mu.Unlock()
	return nil
}

func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	c.entries.Remove(key)
	c.mu.Unlock()
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Size()
}

func (c *LRUCache) Close() error { return nil }

func (c *LRUCache) GetMetrics() *CacheMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.metrics
	if total := m.CacheHits + m.CacheMisses; total > 0 {
		m.HitRatio = float64(m.CacheHits) / float64(total)
	}
	m.LastUpdate = c.now()
	return &m
}
