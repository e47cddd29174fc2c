package storage

import (
	"context"
	"fmt"

	"github.com/annel0/mmo-worldgen/internal/cache"
	"github.com/annel0/mmo-worldgen/internal/config"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// Storage drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverBadger = "badger"
	DriverMaria  = "maria"
	DriverMongo  = "mongo"
)

// Open builds the world store selected by cfg.Storage, wraps it with the room
// cache when enabled and seeds the reference data.
func Open(ctx context.Context, cfg *config.Config) (world.Store, error) {
	var (
		store world.Store
		err   error
	)

	switch cfg.Storage.Driver {
	case DriverMemory, "":
		store = NewMemoryWorldStore()
	case DriverBadger:
		store, err = NewBadgerWorldStore(cfg.Storage.BadgerPath)
	case DriverMaria:
		store, err = NewMariaWorldStore(cfg.Storage.GetMariaDSN())
	case DriverMongo:
		store, err = NewMongoWorldStore(MongoConfig{URI: cfg.Storage.GetMongoURI(), Database: cfg.Storage.MongoDB})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	logging.Info("World store ready: %s", cfg.Storage.Driver)

	switch {
	case cfg.Cache.Enabled:
		rc, err := cache.NewRedisCache(&cache.CacheConfig{
			RedisURL:      cfg.Cache.GetAddr(),
			RedisPassword: cfg.Cache.Password,
			RedisDB:       cfg.Cache.DB,
			DefaultTTL:    cfg.Cache.TTL,
		})
		if err != nil {
			store.Close()
			return nil, err
		}
		store = NewCachedWorldStore(store, rc, cfg.Cache.TTL)
	case cfg.Cache.LocalSize > 0 && cfg.Storage.Driver != DriverMemory && cfg.Storage.Driver != "":
		store = NewCachedWorldStore(store, cache.NewLRUCache(cfg.Cache.LocalSize), cfg.Cache.TTL)
		logging.Info("Room cache: in-process LRU, %d entries", cfg.Cache.LocalSize)
	}

	if err := SeedReferenceData(ctx, store); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// OpenPositions builds the position repository matching cfg.Storage.
// Redis takes precedence when the cache is enabled; Mongo falls back to memory.
func OpenPositions(cfg *config.Config) (PositionRepo, error) {
	if cfg.Cache.Enabled {
		return NewRedisPositionRepository(&RedisConfig{
			Addr:     cfg.Cache.GetAddr(),
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
	}
	switch cfg.Storage.Driver {
	case DriverMaria:
		return NewMariaPositionRepo(cfg.Storage.GetMariaDSN())
	case DriverBadger:
		return NewBadgerPositionRepo(cfg.Storage.BadgerPath)
	}
	return NewMemoryPositionRepo(), nil
}
