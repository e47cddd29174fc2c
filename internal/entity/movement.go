package entity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/storage"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// EventSource is the Source of envelopes published by this package.
const EventSource = "movement"

// World generates rooms on demand. *world.Generator implements it.
type World interface {
	EnsureRoom(ctx context.Context, c vec.Vec3) (*world.Room, *world.Zone, error)
}

// MovementService tracks where entities stand.
// Moves of the same entity are serialized; different entities move concurrently.
type MovementService struct {
	world     World
	positions storage.PositionRepo
	bus       eventbus.EventBus
	log       *logging.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMovementService wires the service. bus may be nil.
func NewMovementService(w World, positions storage.PositionRepo, bus eventbus.EventBus, log *logging.Logger) *MovementService {
	if log == nil {
		log = logging.GetLoggerManager().MustGetLogger("movement")
	}
	return &MovementService{
		world:     w,
		positions: positions,
		bus:       bus,
		log:       log,
		locks:     make(map[string]*sync.Mutex),
	}
}

func (s *MovementService) lock(id string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[id] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// enter generates the room at c, translating a wall into ErrCannotGo.
func (s *MovementService) enter(ctx context.Context, c vec.Vec3) (*world.Room, *world.Zone, error) {
	room, zone, err := s.world.EnsureRoom(ctx, c)
	if errors.Is(err, world.ErrNoSuchRoom) {
		return nil, zone, ErrCannotGo
	}
	if err != nil {
		return nil, nil, fmt.Errorf("enter %s: %w", c, err)
	}
	return room, zone, nil
}

// Put creates an entity named name in the room at c.
func (s *MovementService) Put(ctx context.Context, name string, c vec.Vec3) (*Placement, error) {
	room, zone, err := s.enter(ctx, c)
	if err != nil {
		return nil, err
	}

	e := Entity{ID: uuid.NewString(), Name: name, Location: c}
	if err := s.save(ctx, e); err != nil {
		return nil, err
	}

	s.log.Info("%s (%s) appears at %s in %s", e.Name, e.ID, c, zone.Biome.Name)
	s.publish(ctx, e, room, "")
	return &Placement{Entity: e, Room: room, Zone: zone}, nil
}

// Move steps the entity one room in the named direction.
// ErrCannotGo leaves the entity where it was.
func (s *MovementService) Move(ctx context.Context, id, direction string) (*Placement, error) {
	dir, err := vec.DirectionByName(direction)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(id)
	defer unlock()

	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	to := e.Location.Step(dir)
	room, zone, err := s.enter(ctx, to)
	if err != nil {
		if errors.Is(err, ErrCannotGo) {
			s.log.Debug("%s bumps into a wall going %s from %s", e.ID, dir.Name, e.Location)
		}
		return nil, err
	}

	e.Location = to
	if err := s.save(ctx, *e); err != nil {
		return nil, err
	}

	s.publish(ctx, *e, room, dir.Name)
	return &Placement{Entity: *e, Room: room, Zone: zone}, nil
}

// Get returns the entity with the given ID.
func (s *MovementService) Get(ctx context.Context, id string) (*Entity, error) {
	p, found, err := s.positions.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load entity %s: %w", id, err)
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownEntity)
	}
	e := fromPosition(p)
	return &e, nil
}

// Remove takes the entity out of the world.
func (s *MovementService) Remove(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	err := s.positions.Delete(ctx, id)
	if errors.Is(err, storage.ErrPositionNotFound) {
		return fmt.Errorf("%s: %w", id, ErrUnknownEntity)
	}
	if err != nil {
		return err
	}

	s.locksMu.Lock()
	delete(s.locks, id)
	s.locksMu.Unlock()
	return nil
}

// Occupants lists the entities in the room at c.
func (s *MovementService) Occupants(ctx context.Context, c vec.Vec3) ([]Entity, error) {
	found, err := s.positions.FindAt(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("occupants of %s: %w", c, err)
	}
	out := make([]Entity, len(found))
	for i, p := range found {
		out[i] = fromPosition(p)
	}
	return out, nil
}

func (s *MovementService) save(ctx context.Context, e Entity) error {
	err := s.positions.Save(ctx, storage.EntityPosition{
		EntityID:  e.ID,
		Name:      e.Name,
		Location:  e.Location,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("save entity %s: %w", e.ID, err)
	}
	return nil
}

func (s *MovementService) publish(ctx context.Context, e Entity, room *world.Room, direction string) {
	err := eventbus.Emit(ctx, s.bus, EventSource, eventbus.EventEntityMoved, eventbus.EntityMoved{
		EntityID:  e.ID,
		RoomID:    room.ID,
		X:         e.Location.X,
		Y:         e.Location.Y,
		Z:         e.Location.Z,
		Direction: direction,
	})
	if err != nil {
		s.log.Warn("publish EntityMoved for %s: %v", e.ID, err)
	}
}
