package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-worldgen/internal/config"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/storage"
	"github.com/annel0/mmo-worldgen/internal/vec"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Extent = 256
	cfg.World.RandomSeed = 42
	return cfg
}

func TestNew_EnsureRoomIsIdempotent(t *testing.T) {
	logging.LogDir = t.TempDir()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	a, err := New(ctx, testConfig(), reg)
	require.NoError(t, err)
	defer a.Close()

	origin := vec.Vec3{}
	room, zone, err := a.Generator.EnsureRoom(ctx, origin)
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.True(t, zone.Contains(origin))

	mem, ok := a.Store.(*storage.MemoryWorldStore)
	require.True(t, ok)
	writes := mem.Writes()

	again, zoneAgain, err := a.Generator.EnsureRoom(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, room.ID, again.ID)
	assert.Equal(t, zone.ID, zoneAgain.ID)
	assert.Equal(t, writes, mem.Writes(), "a second request must not write")

	count, err := testutil.GatherAndCount(reg, "worldgen_zones_created_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNew_MovementWalksGeneratedRooms(t *testing.T) {
	logging.LogDir = t.TempDir()
	ctx := context.Background()

	a, err := New(ctx, testConfig(), nil)
	require.NoError(t, err)
	defer a.Close()

	p, err := a.Movement.Put(ctx, "walker", vec.Vec3{})
	require.NoError(t, err)

	// The seed cell always has at least one carved neighbour unless the zone is a single cell.
	if p.Zone.Rect.Area() == 1 {
		t.Skip("single-cell zone")
	}
	moved := false
	for _, d := range vec.Directions {
		if _, err := a.Movement.Move(ctx, p.Entity.ID, d.Name); err == nil {
			moved = true
			break
		}
	}
	assert.True(t, moved, "some neighbour of the seed must be a room")
}

func TestBuildGenerator_RequiresSeededTable(t *testing.T) {
	_, err := BuildGenerator(context.Background(), testConfig(), storage.NewMemoryWorldStore())
	assert.Error(t, err)
}
