package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/vec"
)

// RedisPositionRepository keeps entity positions in Redis.
// Each entity is a JSON string key; each occupied room is a set of entity IDs.
type RedisPositionRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration // zero keeps positions forever
}

func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:      "localhost:6379",
		KeyPrefix: "worldgen:pos:",
	}
}

// NewRedisPositionRepository connects and verifies the connection.
func NewRedisPositionRepository(config *RedisConfig) (*RedisPositionRepository, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "worldgen:pos:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Position repository connected to Redis at %s", config.Addr)
	return &RedisPositionRepository{
		client:    client,
		keyPrefix: config.KeyPrefix,
		ttl:       config.TTL,
	}, nil
}

func (r *RedisPositionRepository) entityKey(id string) string {
	return r.keyPrefix + "entity:" + id
}

func (r *RedisPositionRepository) roomKey(loc vec.Vec3) string {
	return fmt.Sprintf("%sroom:%d:%d:%d", r.keyPrefix, loc.Z, loc.X, loc.Y)
}

func (r *RedisPositionRepository) Save(ctx context.Context, p EntityPosition) error {
	if p.EntityID == "" {
		return fmt.Errorf("invalid entity id %q", p.EntityID)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}

	old, found, err := r.Load(ctx, p.EntityID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal position: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.entityKey(p.EntityID), data, r.ttl)
		if found && old.Location != p.Location {
			pipe.SRem(ctx, r.roomKey(old.Location), p.EntityID)
		}
		pipe.SAdd(ctx, r.roomKey(p.Location), p.EntityID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save position of %s: %w", p.EntityID, err)
	}
	return nil
}

func (r *RedisPositionRepository) Load(ctx context.Context, entityID string) (EntityPosition, bool, error) {
	data, err := r.client.Get(ctx, r.entityKey(entityID)).Bytes()
	if err == redis.Nil {
		return EntityPosition{}, false, nil
	}
	if err != nil {
		return EntityPosition{}, false, fmt.Errorf("failed to get position: %w", err)
	}

	var p EntityPosition
	if err := json.Unmarshal(data, &p); err != nil {
		return EntityPosition{}, false, fmt.Errorf("failed to unmarshal position: %w", err)
	}
	return p, true, nil
}

func (r *RedisPositionRepository) Delete(ctx context.Context, entityID string) error {
	p, found, err := r.Load(ctx, entityID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("entity %s: %w", entityID, ErrPositionNotFound)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.entityKey(entityID))
		pipe.SRem(ctx, r.roomKey(p.Location), entityID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	return nil
}

func (r *RedisPositionRepository) FindAt(ctx context.Context, loc vec.Vec3) ([]EntityPosition, error) {
	ids, err := r.client.SMembers(ctx, r.roomKey(loc)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list occupants of %s: %w", loc, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, r.entityKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	out := make([]EntityPosition, 0, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			// Entities expired by TTL stay in the room set; skip them.
			continue
		}
		var p EntityPosition
		if err := json.Unmarshal(data, &p); err != nil {
			logging.Warn("Failed to unmarshal position for %s: %v", ids[i], err)
			continue
		}
		if p.Location == loc {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out, nil
}

// ActiveCount counts stored entities with SCAN.
func (r *RedisPositionRepository) ActiveCount(ctx context.Context) (int64, error) {
	var count int64
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"entity:*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count entities: %w", err)
	}
	return count, nil
}

func (r *RedisPositionRepository) Close() error {
	return r.client.Close()
}
