package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(8)

	_, err := c.Get(ctx, "a")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	m := c.GetMetrics()
	assert.EqualValues(t, 3, m.TotalRequests)
	assert.EqualValues(t, 1, m.CacheHits)
	assert.InDelta(t, 1.0/3.0, m.HitRatio, 1e-9)
}

func TestLRUCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(8)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(2 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLRUCache_Evicts(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache(2)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, c.Len())
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLRUCache_InvalidKey(t *testing.T) {
	c := NewLRUCache(1)
	assert.ErrorIs(t, c.Set(context.Background(), "", nil, 0), ErrInvalidKey)
}
