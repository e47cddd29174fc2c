package storage

import (
	"context"
	"errors"
	"time"

	"github.com/annel0/mmo-worldgen/internal/vec"
)

// ErrPositionNotFound is returned by Delete for an unknown entity.
var ErrPositionNotFound = errors.New("position not found")

// EntityPosition is where an entity currently stands.
type EntityPosition struct {
	EntityID  string    `json:"entity_id"`
	Name      string    `json:"name"`
	Location  vec.Vec3  `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PositionRepo persists entity positions.
// Positions are keyed by entity ID and indexed by room so occupants can be listed.
type PositionRepo interface {
	// Save inserts or replaces the position of p.EntityID.
	Save(ctx context.Context, p EntityPosition) error

	// Load returns false when the entity has no stored position.
	Load(ctx context.Context, entityID string) (EntityPosition, bool, error)

	Delete(ctx context.Context, entityID string) error

	// FindAt lists the entities standing at loc, ordered by entity ID.
	FindAt(ctx context.Context, loc vec.Vec3) ([]EntityPosition, error)

	Close() error
}
