package biome

import "fmt"

type gridKey struct {
	elevation int
	moisture  int
}

// Grid is an immutable Whittaker table. Safe for concurrent use.
type Grid struct {
	entries []GridEntry
	index   map[gridKey]Biome
}

// NewGrid indexes entries. Duplicate pairs are rejected.
func NewGrid(entries []GridEntry) (*Grid, error) {
	g := &Grid{
		entries: make([]GridEntry, len(entries)),
		index:   make(map[gridKey]Biome, len(entries)),
	}
	copy(g.entries, entries)

	for _, e := range entries {
		k := gridKey{e.Elevation, e.Moisture}
		if prev, dup := g.index[k]; dup {
			return nil, fmt.Errorf("duplicate grid entry (%d,%d): %s and %s",
				e.Elevation, e.Moisture, prev.Name, e.Biome.Name)
		}
		g.index[k] = e.Biome
	}
	return g, nil
}

// Lookup returns the biome for the pair or ErrNoBiomeMapped.
func (g *Grid) Lookup(elevation, moisture int) (Biome, error) {
	b, ok := g.index[gridKey{elevation, moisture}]
	if !ok {
		return Biome{}, fmt.Errorf("elevation %d moisture %d: %w", elevation, moisture, ErrNoBiomeMapped)
	}
	return b, nil
}

// Entries returns a copy of the table in insertion order.
func (g *Grid) Entries() []GridEntry {
	out := make([]GridEntry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Len returns the number of mapped pairs.
func (g *Grid) Len() int {
	return len(g.entries)
}
