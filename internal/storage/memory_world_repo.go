package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// MemoryWorldStore keeps the whole world in process memory.
// Used for local development and tests; data is lost on restart.
type MemoryWorldStore struct {
	mu     sync.RWMutex
	zones  map[int][]world.Zone // plane -> zones
	rooms  map[vec.Vec3]world.Room
	biomes []biome.Biome
	grid   []biome.GridEntry
	writes int
}

// NewMemoryWorldStore creates an empty store.
func NewMemoryWorldStore() *MemoryWorldStore {
	return &MemoryWorldStore{
		zones: make(map[int][]world.Zone),
		rooms: make(map[vec.Vec3]world.Room),
	}
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (s *MemoryWorldStore) FindZoneContaining(ctx context.Context, x, y, z int) (*world.Zone, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, zone := range s.zones[z] {
		if zone.Rect.Contains(x, y) {
			found := zone
			return &found, nil
		}
	}
	return nil, nil
}

func (s *MemoryWorldStore) FindZonesOverlapping(ctx context.Context, rect world.Rect, z int) ([]world.Zone, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []world.Zone
	for _, zone := range s.zones[z] {
		if zone.Rect.Overlaps(rect) {
			out = append(out, zone)
		}
	}
	return out, nil
}

func (s *MemoryWorldStore) SaveZone(ctx context.Context, zone *world.Zone) (*world.Zone, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *zone
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	s.zones[saved.Z] = append(s.zones[saved.Z], saved)
	s.writes++
	return &saved, nil
}

func (s *MemoryWorldStore) FindRoom(ctx context.Context, x, y, z int) (*world.Room, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.rooms[vec.Vec3{X: x, Y: y, Z: z}]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *MemoryWorldStore) FindRoomsInRect(ctx context.Context, rect world.Rect, z int) ([]world.Room, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []world.Room
	for x := rect.MinX; x <= rect.MaxX; x++ {
		for y := rect.MinY; y <= rect.MaxY; y++ {
			if r, ok := s.rooms[vec.Vec3{X: x, Y: y, Z: z}]; ok {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

func (s *MemoryWorldStore) SaveRooms(ctx context.Context, rooms []world.Room) ([]world.Room, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]world.Room, len(rooms))
	for i, r := range rooms {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.rooms[r.Location] = r
		out[i] = r
	}
	s.writes++
	return out, nil
}

func (s *MemoryWorldStore) FindBiomeByName(ctx context.Context, name string) (*biome.Biome, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := biome.FindByName(s.biomes, name); ok {
		return &b, nil
	}
	return nil, nil
}

func (s *MemoryWorldStore) FindAllBiomes(ctx context.Context) ([]biome.Biome, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]biome.Biome(nil), s.biomes...), nil
}

func (s *MemoryWorldStore) FindGridEntries(ctx context.Context) ([]biome.GridEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]biome.GridEntry(nil), s.grid...), nil
}

func (s *MemoryWorldStore) SaveBiomes(ctx context.Context, biomes []biome.Biome) ([]biome.Biome, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]biome.Biome, len(biomes))
	for i, b := range biomes {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.biomes = append(s.biomes, b)
		out[i] = b
	}
	s.writes++
	return out, nil
}

func (s *MemoryWorldStore) SaveGridEntries(ctx context.Context, entries []biome.GridEntry) ([]biome.GridEntry, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]biome.GridEntry, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		s.grid = append(s.grid, e)
		out[i] = e
	}
	s.writes++
	return out, nil
}

// Writes returns the number of persisting calls made so far (for tests).
func (s *MemoryWorldStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Stats summarizes the stored world per plane.
func (s *MemoryWorldStore) Stats() (zones map[int]int, rooms int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	zones = make(map[int]int, len(s.zones))
	for z, list := range s.zones {
		zones[z] = len(list)
	}
	return zones, len(s.rooms)
}

func (s *MemoryWorldStore) Close() error { return nil }
