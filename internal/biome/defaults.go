package biome

const (
	Ocean                    = "Ocean"
	Snow                     = "Snow"
	Tundra                   = "Tundra"
	Bare                     = "Bare"
	Scorched                 = "Scorched"
	Taiga                    = "Taiga"
	Shrubland                = "Shrubland"
	TemperateDesert          = "Temperate Desert"
	TemperateRainForest      = "Temperate Rain Forest"
	TemperateDeciduousForest = "Temperate Deciduous Forest"
	Grassland                = "Grassland"
	SubtropicalDesert        = "Subtropical Desert"
	TropicalRainForest       = "Tropical Rain Forest"
	TropicalSeasonalForest   = "Tropical Seasonal Forest"
)

// DefaultBiomes returns the stock catalogue, Ocean included.
func DefaultBiomes() []Biome {
	return []Biome{
		{Name: Ocean, Color: 0x444471, CellSelection: SelectRandom},
		{Name: Snow, Color: 0xffffff, CellSelection: SelectRandom},
		{Name: Tundra, Color: 0xbbbbaa, CellSelection: SelectRandom},
		{Name: Bare, Color: 0x888888, CellSelection: SelectOldest},
		{Name: Scorched, Color: 0x555555, CellSelection: SelectOldest},
		{Name: Taiga, Color: 0x99aa77, CellSelection: SelectMixed},
		{Name: Shrubland, Color: 0x889977, CellSelection: SelectRandom},
		{Name: TemperateDesert, Color: 0xc9d29b, CellSelection: SelectRandom},
		{Name: TemperateRainForest, Color: 0x448855, CellSelection: SelectNewest},
		{Name: TemperateDeciduousForest, Color: 0x679459, CellSelection: SelectMixed},
		{Name: Grassland, Color: 0x88aa55, CellSelection: SelectRandom},
		{Name: SubtropicalDesert, Color: 0xd2b98b, CellSelection: SelectRandom},
		{Name: TropicalRainForest, Color: 0x337755, CellSelection: SelectNewest},
		{Name: TropicalSeasonalForest, Color: 0x559944, CellSelection: SelectMixed},
	}
}

// defaultRows lists biomes for moisture 1..6 at elevations 1..4.
// Elevation 0 is left unmapped and resolves to Ocean.
var defaultRows = [4][6]string{
	{SubtropicalDesert, Grassland, TropicalSeasonalForest, TropicalSeasonalForest, TropicalRainForest, TropicalRainForest},
	{TemperateDesert, Grassland, Grassland, TemperateDeciduousForest, TemperateDeciduousForest, TemperateRainForest},
	{TemperateDesert, TemperateDesert, Shrubland, Shrubland, Taiga, Taiga},
	{Scorched, Bare, Tundra, Snow, Snow, Snow},
}

// DefaultGridEntries builds the stock table against the given catalogue.
// Names missing from biomes are skipped.
func DefaultGridEntries(biomes []Biome) []GridEntry {
	byName := make(map[string]Biome, len(biomes))
	for _, b := range biomes {
		byName[b.Name] = b
	}

	entries := make([]GridEntry, 0, 24)
	for i, row := range defaultRows {
		for j, name := range row {
			b, ok := byName[name]
			if !ok {
				continue
			}
			entries = append(entries, GridEntry{
				Elevation: i + 1,
				Moisture:  j + 1,
				Biome:     b,
			})
		}
	}
	return entries
}

// FindByName returns the named biome from a catalogue.
func FindByName(biomes []Biome, name string) (Biome, bool) {
	for _, b := range biomes {
		if b.Name == name {
			return b, true
		}
	}
	return Biome{}, false
}
