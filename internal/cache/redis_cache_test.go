package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("WORLD_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rc, err := NewRedisCache(&CacheConfig{RedisURL: addr, DefaultTTL: 10 * time.Second})
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	t.Cleanup(func() { rc.Close() })
	return rc
}

func TestRedisCache_BasicOperations(t *testing.T) {
	rc := newTestRedis(t)
	ctx := context.Background()

	key := "worldgen:test:" + t.Name()
	require.NoError(t, rc.Set(ctx, key, []byte("room"), 5*time.Second))

	got, err := rc.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("room"), got)

	require.NoError(t, rc.Delete(ctx, key))
	_, err = rc.Get(ctx, key)
	assert.True(t, IsCacheMiss(err))

	_, err = rc.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRedisCache_Metrics(t *testing.T) {
	rc := newTestRedis(t)
	ctx := context.Background()

	key := "worldgen:test:" + t.Name()
	require.NoError(t, rc.Set(ctx, key, []byte("v"), time.Second))
	defer rc.Delete(ctx, key)

	_, _ = rc.Get(ctx, key)
	_, _ = rc.Get(ctx, key+":missing")

	m := rc.GetMetrics()
	assert.EqualValues(t, 2, m.TotalRequests)
	assert.EqualValues(t, 1, m.CacheHits)
	assert.EqualValues(t, 1, m.CacheMisses)
	assert.InDelta(t, 0.5, m.HitRatio, 1e-9)
	assert.Greater(t, m.MaxLatencyMs, 0.0)
}
