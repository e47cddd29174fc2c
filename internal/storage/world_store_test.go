package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/cache"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// exerciseStore runs the behaviour every world.Store backend must share.
func exerciseStore(t *testing.T, store world.Store) {
	ctx := context.Background()

	t.Run("zones", func(t *testing.T) {
		saved, err := store.SaveZone(ctx, &world.Zone{
			Z:         0,
			Rect:      world.Rect{MinX: 0, MinY: 0, MaxX: 9, MaxY: 4},
			Elevation: 2,
			Moisture:  3,
			Biome:     biome.Biome{Name: "Grassland", Color: 0x88aa55, CellSelection: biome.SelectRandom},
		})
		require.NoError(t, err)
		require.NotEmpty(t, saved.ID)

		found, err := store.FindZoneContaining(ctx, 9, 4, 0)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, saved.ID, found.ID)
		assert.Equal(t, "Grassland", found.Biome.Name)

		missing, err := store.FindZoneContaining(ctx, 10, 4, 0)
		require.NoError(t, err)
		assert.Nil(t, missing)

		other, err := store.FindZoneContaining(ctx, 1, 1, 1)
		require.NoError(t, err)
		assert.Nil(t, other, "zones are per plane")

		overlapping, err := store.FindZonesOverlapping(ctx, world.Rect{MinX: 9, MinY: -5, MaxX: 20, MaxY: 0}, 0)
		require.NoError(t, err)
		assert.Len(t, overlapping, 1)

		none, err := store.FindZonesOverlapping(ctx, world.Rect{MinX: 10, MinY: 0, MaxX: 20, MaxY: 4}, 0)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("rooms", func(t *testing.T) {
		rooms := []world.Room{
			{Location: vec.Vec3{X: 1, Y: 1}, ZoneID: "z"},
			{Location: vec.Vec3{X: 1, Y: 2}, ZoneID: "z"},
			{Location: vec.Vec3{X: 12, Y: 2}, ZoneID: "z"},
			{Location: vec.Vec3{X: 1, Y: 1, Z: -1}, ZoneID: "z"},
		}
		saved, err := store.SaveRooms(ctx, rooms)
		require.NoError(t, err)
		require.Len(t, saved, 4)
		for _, r := range saved {
			assert.NotEmpty(t, r.ID)
		}

		got, err := store.FindRoom(ctx, 1, 2, 0)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, saved[1].ID, got.ID)

		wall, err := store.FindRoom(ctx, 2, 2, 0)
		require.NoError(t, err)
		assert.Nil(t, wall)

		inRect, err := store.FindRoomsInRect(ctx, world.Rect{MinX: 0, MinY: 0, MaxX: 5, MaxY: 5}, 0)
		require.NoError(t, err)
		assert.Len(t, inRect, 2)
	})

	t.Run("reference data", func(t *testing.T) {
		require.NoError(t, SeedReferenceData(ctx, store))
		require.NoError(t, SeedReferenceData(ctx, store), "seeding twice is a no-op")

		biomes, err := store.FindAllBiomes(ctx)
		require.NoError(t, err)
		assert.Len(t, biomes, len(biome.DefaultBiomes()))

		grid, ocean, err := LoadGrid(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, biome.Ocean, ocean.Name)
		assert.Equal(t, len(biome.DefaultGridEntries(biome.DefaultBiomes())), grid.Len())
	})
}

func TestMemoryWorldStore(t *testing.T) {
	exerciseStore(t, NewMemoryWorldStore())
}

func TestBadgerWorldStore(t *testing.T) {
	store, err := NewBadgerWorldStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestBadgerWorldStore_Closed(t *testing.T) {
	store, err := NewBadgerWorldStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.FindRoom(context.Background(), 0, 0, 0)
	assert.ErrorIs(t, err, errStoreClosed)
}

func TestLoadGrid_EmptyTable(t *testing.T) {
	_, _, err := LoadGrid(context.Background(), NewMemoryWorldStore())
	assert.ErrorIs(t, err, world.ErrEmptyBiomeTable)
}

// countingStore counts FindRoom calls reaching the backend.
type countingStore struct {
	world.Store
	finds int
}

func (c *countingStore) FindRoom(ctx context.Context, x, y, z int) (*world.Room, error) {
	c.finds++
	return c.Store.FindRoom(ctx, x, y, z)
}

func TestCachedWorldStore(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{Store: NewMemoryWorldStore()}
	lru := cache.NewLRUCache(16)
	store := NewCachedWorldStore(backend, lru, time.Minute)

	saved, err := store.SaveRooms(ctx, []world.Room{{Location: vec.Vec3{X: 3, Y: 4}, ZoneID: "z"}})
	require.NoError(t, err)
	assert.Equal(t, 1, lru.Len(), "saved rooms are written through")

	got, err := store.FindRoom(ctx, 3, 4, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved[0].ID, got.ID)
	assert.Zero(t, backend.finds, "served from cache")

	wall, err := store.FindRoom(ctx, 5, 5, 0)
	require.NoError(t, err)
	assert.Nil(t, wall)
	_, err = store.FindRoom(ctx, 5, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.finds, "walls are not cached")

	require.NoError(t, lru.Delete(ctx, roomCacheKey(3, 4, 0)))
	_, err = store.FindRoom(ctx, 3, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, backend.finds)
	assert.Equal(t, 1, lru.Len(), "read-through refills the cache")
}

func TestCachedWorldStore_DropsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryWorldStore()
	lru := cache.NewLRUCache(16)
	store := NewCachedWorldStore(backend, lru, time.Minute)

	_, err := backend.SaveRooms(ctx, []world.Room{{ID: "r1", Location: vec.Vec3{X: 1, Y: 1}}})
	require.NoError(t, err)
	require.NoError(t, lru.Set(ctx, roomCacheKey(1, 1, 0), []byte("{not json"), 0))

	got, err := store.FindRoom(ctx, 1, 1, 0)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)

	data, err := lru.Get(ctx, roomCacheKey(1, 1, 0))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"r1"`)
}
