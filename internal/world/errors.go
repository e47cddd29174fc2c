package world

import "errors"

var (
	// ErrNoSuchRoom means the coordinate is a wall of an already carved zone.
	ErrNoSuchRoom = errors.New("no room at this location")
	// ErrOutsideZone is returned when a coordinate is handed to the wrong zone.
	ErrOutsideZone = errors.New("coordinate outside zone")
	// ErrEmptyBiomeTable means zone creation has nothing to choose from.
	ErrEmptyBiomeTable = errors.New("biome table is empty")
)

// Warning kinds raised during generation. They are logged and counted,
// never returned to callers.
const (
	WarnExpansionExhausted = "zone_expansion_exhausted"
	WarnCollision          = "collision_detected"
	WarnBiomeFallback      = "biome_fallback"
	WarnNoBiomeMapped      = "no_biome_mapped"
	WarnUnknownStrategy    = "unknown_strategy"
)
