package world

import (
	"context"

	"github.com/annel0/mmo-worldgen/internal/biome"
)

// ZoneRepository persists zones. Find methods return (nil, nil) when nothing matches.
type ZoneRepository interface {
	FindZoneContaining(ctx context.Context, x, y, z int) (*Zone, error)
	FindZonesOverlapping(ctx context.Context, rect Rect, z int) ([]Zone, error)
	SaveZone(ctx context.Context, zone *Zone) (*Zone, error)
}

// RoomRepository persists rooms.
type RoomRepository interface {
	FindRoom(ctx context.Context, x, y, z int) (*Room, error)
	FindRoomsInRect(ctx context.Context, rect Rect, z int) ([]Room, error)
	SaveRooms(ctx context.Context, rooms []Room) ([]Room, error)
}

// BiomeRepository persists the biome catalogue and the Whittaker table.
type BiomeRepository interface {
	FindBiomeByName(ctx context.Context, name string) (*biome.Biome, error)
	FindAllBiomes(ctx context.Context) ([]biome.Biome, error)
	FindGridEntries(ctx context.Context) ([]biome.GridEntry, error)
	SaveBiomes(ctx context.Context, biomes []biome.Biome) ([]biome.Biome, error)
	SaveGridEntries(ctx context.Context, entries []biome.GridEntry) ([]biome.GridEntry, error)
}

// Store groups the repositories a storage backend provides.
type Store interface {
	ZoneRepository
	RoomRepository
	BiomeRepository
	Close() error
}
