package entity

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/storage"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// fakeWorld has rooms exactly at the listed coordinates.
type fakeWorld struct {
	mu    sync.Mutex
	rooms map[vec.Vec3]bool
	calls int
}

func newFakeWorld(open ...vec.Vec3) *fakeWorld {
	w := &fakeWorld{rooms: make(map[vec.Vec3]bool)}
	for _, c := range open {
		w.rooms[c] = true
	}
	return w
}

func (w *fakeWorld) EnsureRoom(_ context.Context, c vec.Vec3) (*world.Room, *world.Zone, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++

	zone := &world.Zone{ID: "z1", Rect: world.Rect{MinX: -10, MinY: -10, MaxX: 10, MaxY: 10}}
	if !w.rooms[c] {
		return nil, zone, fmt.Errorf("%s: %w", c, world.ErrNoSuchRoom)
	}
	return &world.Room{ID: c.String(), Location: c, ZoneID: zone.ID}, zone, nil
}

func newService(t *testing.T, w World, bus eventbus.EventBus) *MovementService {
	t.Helper()
	log := logging.NewWriterLogger("movement", &bytes.Buffer{}, logging.ERROR)
	return NewMovementService(w, storage.NewMemoryPositionRepo(), bus, log)
}

func TestPut(t *testing.T) {
	ctx := context.Background()
	origin := vec.Vec3{}
	svc := newService(t, newFakeWorld(origin), nil)

	p, err := svc.Put(ctx, "alice", origin)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Entity.ID)
	assert.Equal(t, origin, p.Entity.Location)
	assert.Equal(t, "z1", p.Zone.ID)

	got, err := svc.Get(ctx, p.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Entity, *got)
}

func TestPut_Wall(t *testing.T) {
	svc := newService(t, newFakeWorld(), nil)

	_, err := svc.Put(context.Background(), "bob", vec.Vec3{X: 3})
	assert.ErrorIs(t, err, ErrCannotGo)
	assert.Equal(t, "Alas, you cannot go that way.", ErrCannotGo.Error())
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	origin := vec.Vec3{}
	north := vec.Vec3{Y: 1}
	svc := newService(t, newFakeWorld(origin, north), nil)

	p, err := svc.Put(ctx, "alice", origin)
	require.NoError(t, err)

	moved, err := svc.Move(ctx, p.Entity.ID, "n")
	require.NoError(t, err)
	assert.Equal(t, north, moved.Entity.Location)
	assert.Equal(t, north, moved.Room.Location)

	_, err = svc.Move(ctx, p.Entity.ID, "east")
	assert.ErrorIs(t, err, ErrCannotGo)

	got, err := svc.Get(ctx, p.Entity.ID)
	require.NoError(t, err)
	assert.Equal(t, north, got.Location, "a failed move keeps the entity in place")
}

func TestMove_BadInput(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newFakeWorld(vec.Vec3{}), nil)

	_, err := svc.Move(ctx, "missing", "north")
	assert.ErrorIs(t, err, ErrUnknownEntity)

	p, err := svc.Put(ctx, "alice", vec.Vec3{})
	require.NoError(t, err)
	_, err = svc.Move(ctx, p.Entity.ID, "up")
	assert.Error(t, err)
}

func TestOccupantsAndRemove(t *testing.T) {
	ctx := context.Background()
	origin := vec.Vec3{}
	svc := newService(t, newFakeWorld(origin), nil)

	a, err := svc.Put(ctx, "alice", origin)
	require.NoError(t, err)
	b, err := svc.Put(ctx, "bob", origin)
	require.NoError(t, err)

	occ, err := svc.Occupants(ctx, origin)
	require.NoError(t, err)
	assert.Len(t, occ, 2)

	require.NoError(t, svc.Remove(ctx, a.Entity.ID))
	occ, err = svc.Occupants(ctx, origin)
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, b.Entity.ID, occ[0].ID)

	assert.ErrorIs(t, svc.Remove(ctx, a.Entity.ID), ErrUnknownEntity)
}

func TestMove_PublishesEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()

	got := make(chan eventbus.EntityMoved, 4)
	_, err := bus.Subscribe(ctx, eventbus.Filter{Types: []string{eventbus.EventEntityMoved}}, func(_ context.Context, ev *eventbus.Envelope) {
		var m eventbus.EntityMoved
		if ev.Decode(&m) == nil {
			got <- m
		}
	})
	require.NoError(t, err)

	svc := newService(t, newFakeWorld(vec.Vec3{}, vec.Vec3{X: 1}), bus)
	p, err := svc.Put(ctx, "alice", vec.Vec3{})
	require.NoError(t, err)
	_, err = svc.Move(ctx, p.Entity.ID, "east")
	require.NoError(t, err)

	first, second := <-got, <-got
	assert.Equal(t, "", first.Direction)
	assert.Equal(t, "east", second.Direction)
	assert.Equal(t, 1, second.X)
	assert.Equal(t, p.Entity.ID, second.EntityID)
}
