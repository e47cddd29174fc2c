package world

import (
	"github.com/annel0/mmo-worldgen/internal/biome"
)

// CellSelectionStrategy picks the next frontier cell to grow from.
// The frontier is ordered by insertion, is never empty, and must not be modified.
type CellSelectionStrategy interface {
	Select(frontier []Cell) Cell
}

// RandomSelection picks uniformly, which yields a Prim-like maze.
type RandomSelection struct {
	Rand Random
}

func (s RandomSelection) Select(frontier []Cell) Cell {
	return frontier[s.Rand.Intn(len(frontier))]
}

// NewestSelection always grows from the most recently added cell (depth-first).
type NewestSelection struct{}

func (NewestSelection) Select(frontier []Cell) Cell {
	return frontier[len(frontier)-1]
}

// OldestSelection grows from the earliest added cell.
type OldestSelection struct{}

func (OldestSelection) Select(frontier []Cell) Cell {
	return frontier[0]
}

// MixedSelection picks the newest cell with probability Newest, otherwise a random one.
type MixedSelection struct {
	Rand   Random
	Newest float64
}

func (s MixedSelection) Select(frontier []Cell) Cell {
	if s.Rand.Float64() < s.Newest {
		return frontier[len(frontier)-1]
	}
	return frontier[s.Rand.Intn(len(frontier))]
}

// Strategies maps biome cell-selection tags to strategies.
// Built once at startup and read-only afterwards.
type Strategies map[string]CellSelectionStrategy

// DefaultStrategies registers the stock strategies.
func DefaultStrategies(rng Random, mixedNewest float64) Strategies {
	return Strategies{
		biome.SelectRandom: RandomSelection{Rand: rng},
		biome.SelectNewest: NewestSelection{},
		biome.SelectOldest: OldestSelection{},
		biome.SelectMixed:  MixedSelection{Rand: rng, Newest: mixedNewest},
	}
}
