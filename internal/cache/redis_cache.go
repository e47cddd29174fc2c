package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/mmo-worldgen/internal/logging"
)

// RedisCache implements CacheRepo on top of Redis.
type RedisCache struct {
	client *redis.Client
	config *CacheConfig

	metrics      *CacheMetrics
	metricsMutex sync.RWMutex

	latencySum   int64 // nanoseconds
	latencyCount int64
	maxLatency   int64
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(config *CacheConfig) (*RedisCache, error) {
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.MaxTTL == 0 {
		config.MaxTTL = 24 * time.Hour
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis cache initialized: %s", config.RedisURL)
	return &RedisCache{
		client:  rdb,
		config:  config,
		metrics: &CacheMetrics{LastUpdate: time.Now()},
	}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	start := time.Now()
	defer r.recordLatency(start)

	atomic.AddInt64(&r.metrics.TotalRequests, 1)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		atomic.AddInt64(&r.metrics.CacheHits, 1)
		r.updateHitRatio()
		return val, nil
	}

	atomic.AddInt64(&r.metrics.CacheMisses, 1)
	r.updateHitRatio()

	if err != redis.Nil {
		logging.Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}
	return nil, ErrCacheMiss
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrInvalidKey
	}
	start := time.Now()
	defer r.recordLatency(start)

	if ttl == 0 {
		ttl = r.config.DefaultTTL
	}
	if ttl > r.config.MaxTTL {
		ttl = r.config.MaxTTL
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	start := time.Now()
	defer r.recordLatency(start)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Error("Redis Delete error for key %s: %v", key, err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	if err := r.client.Close(); err != nil {
		logging.Error("Error closing Redis connection: %v", err)
		return err
	}
	logging.Info("Redis cache closed")
	return nil
}

func (r *RedisCache) GetMetrics() *CacheMetrics {
	r.updateLatencyMetrics()

	r.metricsMutex.RLock()
	defer r.metricsMutex.RUnlock()

	return &CacheMetrics{
		TotalRequests: atomic.LoadInt64(&r.metrics.TotalRequests),
		CacheHits:     atomic.LoadInt64(&r.metrics.CacheHits),
		CacheMisses:   atomic.LoadInt64(&r.metrics.CacheMisses),
		HitRatio:      r.metrics.HitRatio,
		AvgLatencyMs:  r.metrics.AvgLatencyMs,
		MaxLatencyMs:  r.metrics.MaxLatencyMs,
		LastUpdate:    time.Now(),
	}
}

func (r *RedisCache) recordLatency(start time.Time) {
	latency := time.Since(start).Nanoseconds()

	atomic.AddInt64(&r.latencySum, latency)
	atomic.AddInt64(&r.latencyCount, 1)

	for {
		current := atomic.LoadInt64(&r.maxLatency)
		if latency <= current || atomic.CompareAndSwapInt64(&r.maxLatency, current, latency) {
			break
		}
	}
}

func (r *RedisCache) updateLatencyMetrics() {
	count := atomic.LoadInt64(&r.latencyCount)
	if count == 0 {
		return
	}

	sum := atomic.LoadInt64(&r.latencySum)
	max := atomic.LoadInt64(&r.maxLatency)

	r.metricsMutex.Lock()
	r.metrics.AvgLatencyMs = float64(sum) / float64(count) / 1e6
	r.metrics.MaxLatencyMs = float64(max) / 1e6
	r.metricsMutex.Unlock()
}

func (r *RedisCache) updateHitRatio() {
	hits := atomic.LoadInt64(&r.metrics.CacheHits)
	misses := atomic.LoadInt64(&r.metrics.CacheMisses)
	total := hits + misses

	if total > 0 {
		r.metricsMutex.Lock()
		r.metrics.HitRatio = float64(hits) / float64(total)
		r.metricsMutex.Unlock()
	}
}
