package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/annel0/mmo-worldgen/internal/cache"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// CachedWorldStore puts a read-through, write-through room cache in front of a Store.
// Rooms never change once carved, so entries only expire by TTL.
// Misses are not cached: a wall today may be carved tomorrow.
type CachedWorldStore struct {
	world.Store
	cache cache.CacheRepo
	ttl   time.Duration
}

// NewCachedWorldStore wraps store. Cache failures are logged and fall through to store.
func NewCachedWorldStore(store world.Store, c cache.CacheRepo, ttl time.Duration) *CachedWorldStore {
	return &CachedWorldStore{
		Store: store,
		cache: c,
		ttl:   ttl,
	}
}

func roomCacheKey(x, y, z int) string {
	return fmt.Sprintf("worldgen:room:%d:%d:%d", z, x, y)
}

func (s *CachedWorldStore) FindRoom(ctx context.Context, x, y, z int) (*world.Room, error) {
	key := roomCacheKey(x, y, z)

	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var room world.Room
		if err := json.Unmarshal(data, &room); err == nil {
			return &room, nil
		}
		logging.Warn("corrupt cache entry %s, dropping it", key)
		_ = s.cache.Delete(ctx, key)
	case !cache.IsCacheMiss(err):
		logging.Warn("room cache get %s: %v", key, err)
	}

	room, err := s.Store.FindRoom(ctx, x, y, z)
	if err != nil || room == nil {
		return room, err
	}
	s.put(ctx, *room)
	return room, nil
}

func (s *CachedWorldStore) SaveRooms(ctx context.Context, rooms []world.Room) ([]world.Room, error) {
	saved, err := s.Store.SaveRooms(ctx, rooms)
	if err != nil {
		return nil, err
	}
	for _, r := range saved {
		s.put(ctx, r)
	}
	return saved, nil
}

func (s *CachedWorldStore) put(ctx context.Context, r world.Room) {
	data, err := json.Marshal(r)
	if err != nil {
		logging.Warn("encode room %s for cache: %v", r.Location, err)
		return
	}
	key := roomCacheKey(r.Location.X, r.Location.Y, r.Location.Z)
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		logging.Warn("room cache set %s: %v", key, err)
	}
}

// Close closes the cache and then the underlying store.
func (s *CachedWorldStore) Close() error {
	if err := s.cache.Close(); err != nil {
		logging.Warn("close room cache: %v", err)
	}
	return s.Store.Close()
}
