package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/noise"
)

func newTestTiler(store *fakeStore, rec Recorder, cfg TilerConfig, seed int64) *ZoneTiler {
	grid, ocean := defaultGrid()
	return NewZoneTiler(store, grid, ocean, nil, NewLockedRand(seed), cfg,
		WithLogger(quietLogger()), WithRecorder(rec))
}

func TestRectGeometry(t *testing.T) {
	r := Rect{MinX: 0, MinY: 0, MaxX: 9, MaxY: 4}
	assert.Equal(t, 10, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.Equal(t, 50, r.Area())
	assert.True(t, r.Contains(9, 4))
	assert.False(t, r.Contains(10, 4))

	touching := Rect{MinX: 10, MinY: 0, MaxX: 12, MaxY: 2}
	assert.False(t, r.Overlaps(touching), "edge-adjacent rectangles share no cell")
	assert.True(t, r.Grow(1).Overlaps(touching), "grown rectangle reaches the neighbour")
	assert.True(t, r.Overlaps(Rect{MinX: 9, MinY: 4, MaxX: 20, MaxY: 20}))

	cx, cy := r.Center()
	assert.Equal(t, 4, cx)
	assert.Equal(t, 2, cy)
}

func TestZoneAtIsIdempotentAndCovers(t *testing.T) {
	store := newFakeStore()
	tiler := newTestTiler(store, NopRecorder(), DefaultTilerConfig(), 7)
	ctx := context.Background()

	first, err := tiler.ZoneAt(ctx, 3, -4, 0)
	require.NoError(t, err)
	assert.True(t, first.Rect.Contains(3, -4))
	assert.Equal(t, 0, first.Z)

	again, err := tiler.ZoneAt(ctx, 3, -4, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, store.zoneWrites, "second call must not create a zone")

	other, err := tiler.ZoneAt(ctx, 3, -4, 1)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID, "planes are tiled independently")
}

func TestZonesNeverOverlap(t *testing.T) {
	store := newFakeStore()
	tiler := newTestTiler(store, NopRecorder(), DefaultTilerConfig(), 11)
	ctx := context.Background()

	rng := NewLockedRand(99)
	for i := 0; i < 300; i++ {
		x, y := rng.Intn(200)-100, rng.Intn(200)-100
		zone, err := tiler.ZoneAt(ctx, x, y, 0)
		require.NoError(t, err)
		require.True(t, zone.Rect.Contains(x, y), "zone %s must cover (%d,%d)", zone.Rect, x, y)
	}

	zones := store.zoneList()
	for i := range zones {
		for j := i + 1; j < len(zones); j++ {
			assert.False(t, zones[i].Rect.Overlaps(zones[j].Rect),
				"zones %s and %s overlap", zones[i].Rect, zones[j].Rect)
		}
	}
}

func TestIsolatedZoneReachesMinimumSize(t *testing.T) {
	store := newFakeStore()
	rec := newCountingRecorder()
	cfg := DefaultTilerConfig()
	cfg.MaxTries = 1000
	tiler := newTestTiler(store, rec, cfg, 3)

	zone, err := tiler.ZoneAt(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, zone.Rect.Width(), 10)
	assert.GreaterOrEqual(t, zone.Rect.Height(), 10)
	assert.Equal(t, 0, rec.count(WarnExpansionExhausted))
}

func TestExpansionExhaustedInDenseNeighbourhood(t *testing.T) {
	store := newFakeStore()
	// A ring of zones leaves a single free cell at the origin.
	store.zones = []Zone{
		{ID: "n", Rect: Rect{MinX: -5, MinY: 1, MaxX: 5, MaxY: 5}, Elevation: 2, Moisture: 2},
		{ID: "s", Rect: Rect{MinX: -5, MinY: -5, MaxX: 5, MaxY: -1}, Elevation: 2, Moisture: 2},
		{ID: "e", Rect: Rect{MinX: 1, MinY: 0, MaxX: 5, MaxY: 0}, Elevation: 2, Moisture: 2},
		{ID: "w", Rect: Rect{MinX: -5, MinY: 0, MaxX: -1, MaxY: 0}, Elevation: 2, Moisture: 2},
	}
	rec := newCountingRecorder()
	tiler := newTestTiler(store, rec, DefaultTilerConfig(), 5)

	zone, err := tiler.ZoneAt(context.Background(), 0, 0, 0)
	require.NoError(t, err, "exhaustion is not an error")
	assert.Equal(t, PointRect(0, 0), zone.Rect)
	assert.Equal(t, 1, rec.count(WarnExpansionExhausted))
	assert.Equal(t, 25, rec.count(WarnCollision), "every attempt collides")
}

func TestCompatibleEntries(t *testing.T) {
	grid, _ := defaultGrid()
	neighbors := []Zone{{Elevation: 2, Moisture: 3}}

	got := CompatibleEntries(grid.Entries(), neighbors)
	require.NotEmpty(t, got)
	for _, e := range got {
		de, dm := abs(e.Elevation-2), abs(e.Moisture-3)
		assert.True(t, de <= 1 && dm <= 1, "entry (%d,%d)", e.Elevation, e.Moisture)
		assert.False(t, de == 0 && dm == 0, "identical entry must be excluded")
	}
	assert.Len(t, got, 8, "all eight surrounding pairs are mapped")

	conflicting := []Zone{{Elevation: 1, Moisture: 1}, {Elevation: 4, Moisture: 6}}
	assert.Empty(t, CompatibleEntries(grid.Entries(), conflicting))
}

func TestBiomeFallbackOnConflictingNeighbours(t *testing.T) {
	store := newFakeStore()
	store.zones = []Zone{
		{ID: "a", Rect: Rect{MinX: -10, MinY: -10, MaxX: -1, MaxY: 10}, Elevation: 1, Moisture: 1},
		{ID: "b", Rect: Rect{MinX: 1, MinY: -10, MaxX: 10, MaxY: 10}, Elevation: 4, Moisture: 6},
	}
	rec := newCountingRecorder()
	tiler := newTestTiler(store, rec, DefaultTilerConfig(), 8)

	zone, err := tiler.ZoneAt(context.Background(), 0, 0, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, zone.Biome.Name)
	assert.Equal(t, 1, rec.count(WarnBiomeFallback))
}

func TestAdjacentZonesRespectBiomeConstraint(t *testing.T) {
	store := newFakeStore()
	rec := newCountingRecorder()
	tiler := newTestTiler(store, rec, DefaultTilerConfig(), 21)
	ctx := context.Background()

	for x := -60; x <= 60; x += 4 {
		for y := -60; y <= 60; y += 4 {
			_, err := tiler.ZoneAt(ctx, x, y, 0)
			require.NoError(t, err)
		}
	}

	zones := store.zoneList()
	violating := 0
	for j := range zones {
		for i := 0; i < j; i++ {
			if !zones[j].Rect.Grow(1).Overlaps(zones[i].Rect) {
				continue
			}
			de := abs(zones[i].Elevation - zones[j].Elevation)
			dm := abs(zones[i].Moisture - zones[j].Moisture)
			if de > 1 || dm > 1 || (de == 0 && dm == 0) {
				violating++
				break
			}
		}
	}
	assert.LessOrEqual(t, violating, rec.count(WarnBiomeFallback),
		"every violation must come from a logged fallback")
}

func TestIsolatedZoneUsesTerrain(t *testing.T) {
	field, err := noise.NewField(noise.FieldConfig{
		ElevationSeed: 1, MoistureSeed: 2, Extent: 256, Frequency: 0.007, Octaves: 8,
	})
	require.NoError(t, err)

	store := newFakeStore()
	rec := newCountingRecorder()
	grid, ocean := defaultGrid()
	tiler := NewZoneTiler(store, grid, ocean, field, NewLockedRand(4), DefaultTilerConfig(),
		WithLogger(quietLogger()), WithRecorder(rec))

	// Far outside the extent the falloff forces elevation 0.
	zone, err := tiler.ZoneAt(context.Background(), 5000, 5000, 0)
	require.NoError(t, err)
	assert.Equal(t, biome.Ocean, zone.Biome.Name)
	assert.Equal(t, 0, zone.Elevation)
	assert.Equal(t, 1, rec.count(WarnNoBiomeMapped))

	cx, cy := zone.Rect.Center()
	assert.Equal(t, field.Moisture(cx, cy), zone.Moisture)
}

func TestZoneAtHonoursCancellation(t *testing.T) {
	tiler := newTestTiler(newFakeStore(), NopRecorder(), DefaultTilerConfig(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tiler.ZoneAt(ctx, 0, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
