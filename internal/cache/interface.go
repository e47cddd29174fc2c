package cache

import (
	"context"
	"errors"
	"time"
)

// CacheRepo is a byte-oriented key/value cache.
//
// Usage:
//
//	c, err := NewRedisCache(cfg)
//	data, err := c.Get(ctx, "room/0/3/4")
//	err = c.Set(ctx, "room/0/3/4", data, time.Minute)
type CacheRepo interface {
	// Get returns ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error

	// GetMetrics returns a snapshot of the hit counters.
	GetMetrics() *CacheMetrics
}

// CacheMetrics holds cache performance counters.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	HitRatio      float64 `json:"hit_ratio"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	LastUpdate time.Time `json:"last_update"`
}

// CacheConfig configures the Redis cache.
type CacheConfig struct {
	RedisURL      string
	RedisPassword string
	RedisDB       int

	DefaultTTL     time.Duration
	MaxTTL         time.Duration
	MaxConnections int
	PoolTimeout    time.Duration
}

var (
	ErrCacheMiss  = errors.New("cache miss")
	ErrInvalidKey = errors.New("invalid key")
)

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
