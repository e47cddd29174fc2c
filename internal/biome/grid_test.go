package biome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableShape(t *testing.T) {
	biomes := DefaultBiomes()
	assert.Len(t, biomes, 14)

	g, err := NewGrid(DefaultGridEntries(biomes))
	require.NoError(t, err)
	assert.Equal(t, 24, g.Len())

	for e := 1; e <= 4; e++ {
		for m := 1; m <= 6; m++ {
			_, err := g.Lookup(e, m)
			assert.NoError(t, err, "(%d,%d) must be mapped", e, m)
		}
	}
}

func TestLookup(t *testing.T) {
	g, err := NewGrid(DefaultGridEntries(DefaultBiomes()))
	require.NoError(t, err)

	b, err := g.Lookup(4, 6)
	require.NoError(t, err)
	assert.Equal(t, Snow, b.Name)
	assert.Equal(t, "#ffffff", b.HexColor())

	b, err = g.Lookup(1, 1)
	require.NoError(t, err)
	assert.Equal(t, SubtropicalDesert, b.Name)

	_, err = g.Lookup(0, 3)
	assert.True(t, errors.Is(err, ErrNoBiomeMapped), "elevation 0 is unmapped")

	_, err = g.Lookup(5, 1)
	assert.ErrorIs(t, err, ErrNoBiomeMapped)
}

func TestNewGridRejectsDuplicates(t *testing.T) {
	_, err := NewGrid([]GridEntry{
		{Elevation: 1, Moisture: 1, Biome: Biome{Name: "a"}},
		{Elevation: 1, Moisture: 1, Biome: Biome{Name: "b"}},
	})
	assert.Error(t, err)
}

func TestEntriesIsACopy(t *testing.T) {
	g, err := NewGrid(DefaultGridEntries(DefaultBiomes()))
	require.NoError(t, err)

	entries := g.Entries()
	entries[0].Biome.Name = "mutated"

	b, err := g.Lookup(entries[0].Elevation, entries[0].Moisture)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", b.Name)
}

func TestFindByName(t *testing.T) {
	ocean, ok := FindByName(DefaultBiomes(), Ocean)
	require.True(t, ok)
	assert.Equal(t, uint32(0x444471), ocean.Color)

	_, ok = FindByName(DefaultBiomes(), "Lava")
	assert.False(t, ok)
}
