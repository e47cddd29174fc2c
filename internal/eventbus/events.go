package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrBusClosed is returned when publishing to a closed bus.
var ErrBusClosed = errors.New("event bus closed")

// Event types emitted by the world service.
const (
	EventZoneCreated = "ZoneCreated"
	EventRoomsCarved = "RoomsCarved"
	EventEntityMoved = "EntityMoved"
)

// ZoneCreated is published once per zone.
type ZoneCreated struct {
	ZoneID    string `json:"zone_id"`
	Z         int    `json:"z"`
	MinX      int    `json:"min_x"`
	MinY      int    `json:"min_y"`
	MaxX      int    `json:"max_x"`
	MaxY      int    `json:"max_y"`
	Biome     string `json:"biome"`
	Elevation int    `json:"elevation"`
	Moisture  int    `json:"moisture"`
}

// RoomsCarved is published after a zone maze is persisted.
type RoomsCarved struct {
	ZoneID   string `json:"zone_id"`
	Rooms    int    `json:"rooms"`
	Strategy string `json:"strategy"`
	SeedX    int    `json:"seed_x"`
	SeedY    int    `json:"seed_y"`
	SeedZ    int    `json:"seed_z"`
}

// EntityMoved is published when an entity enters a room.
type EntityMoved struct {
	EntityID  string `json:"entity_id"`
	RoomID    string `json:"room_id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Z         int    `json:"z"`
	Direction string `json:"direction,omitempty"` // empty when placed
}

// NewEnvelope wraps payload as JSON with a fresh ID and UTC timestamp.
func NewEnvelope(source, eventType string, payload interface{}) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   data,
	}, nil
}

// Decode unmarshals the envelope payload into v.
func (e *Envelope) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.EventType, err)
	}
	return nil
}

// Emit builds and publishes an event. A nil bus is a no-op.
func Emit(ctx context.Context, bus EventBus, source, eventType string, payload interface{}) error {
	if bus == nil {
		return nil
	}
	ev, err := NewEnvelope(source, eventType, payload)
	if err != nil {
		return err
	}
	return bus.Publish(ctx, ev)
}
