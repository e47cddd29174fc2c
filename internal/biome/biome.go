// Package biome holds the static biome catalogue and the Whittaker lookup
// table mapping discrete (elevation, moisture) pairs to biomes.
package biome

import (
	"errors"
	"fmt"
)

// Cell selection tags understood by the maze carver.
const (
	SelectRandom = "random"
	SelectNewest = "newest"
	SelectOldest = "oldest"
	SelectMixed  = "mixed"
)

// ErrNoBiomeMapped is returned by Grid.Lookup for pairs outside the table.
var ErrNoBiomeMapped = errors.New("no biome mapped")

// Biome is static reference data.
type Biome struct {
	ID            string `json:"id" bson:"_id,omitempty"`
	Name          string `json:"name" bson:"name"`
	Color         uint32 `json:"color" bson:"color"`
	CellSelection string `json:"cell_selection" bson:"cell_selection"`
}

// HexColor renders Color as #rrggbb.
func (b Biome) HexColor() string {
	return fmt.Sprintf("#%06x", b.Color&0xffffff)
}

// GridEntry binds one (elevation, moisture) pair to a biome.
type GridEntry struct {
	ID        string `json:"id" bson:"_id,omitempty"`
	Elevation int    `json:"elevation" bson:"elevation"`
	Moisture  int    `json:"moisture" bson:"moisture"`
	Biome     Biome  `json:"biome" bson:"biome"`
}
