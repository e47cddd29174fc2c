package world

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/vec"
)

// fakeStore is a minimal in-memory ZoneRepository and RoomRepository.
type fakeStore struct {
	mu         sync.Mutex
	zones      []Zone
	rooms      map[vec.Vec3]Room
	roomWrites int
	zoneWrites int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[vec.Vec3]Room)}
}

func (s *fakeStore) FindZoneContaining(ctx context.Context, x, y, z int) (*Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.zones {
		if s.zones[i].Z == z && s.zones[i].Rect.Contains(x, y) {
			zone := s.zones[i]
			return &zone, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindZonesOverlapping(ctx context.Context, rect Rect, z int) ([]Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Zone
	for _, zone := range s.zones {
		if zone.Z == z && zone.Rect.Overlaps(rect) {
			out = append(out, zone)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveZone(ctx context.Context, zone *Zone) (*Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *zone
	saved.ID = fmt.Sprintf("zone-%d", len(s.zones)+1)
	s.zones = append(s.zones, saved)
	s.zoneWrites++
	return &saved, nil
}

func (s *fakeStore) FindRoom(ctx context.Context, x, y, z int) (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[vec.Vec3{X: x, Y: y, Z: z}]; ok {
		return &r, nil
	}
	return nil, nil
}

func (s *fakeStore) FindRoomsInRect(ctx context.Context, rect Rect, z int) ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Room
	for loc, r := range s.rooms {
		if loc.Z == z && rect.Contains(loc.X, loc.Y) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) SaveRooms(ctx context.Context, rooms []Room) ([]Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Room, len(rooms))
	for i, r := range rooms {
		r.ID = fmt.Sprintf("room-%d", len(s.rooms)+1)
		s.rooms[r.Location] = r
		out[i] = r
	}
	s.roomWrites++
	return out, nil
}

func (s *fakeStore) zoneList() []Zone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Zone, len(s.zones))
	copy(out, s.zones)
	return out
}

// countingRecorder tallies warnings by kind.
type countingRecorder struct {
	mu       sync.Mutex
	warnings map[string]int
	zones    int
	carved   int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{warnings: make(map[string]int)}
}

func (r *countingRecorder) ZoneCreated(string, int) {
	r.mu.Lock()
	r.zones++
	r.mu.Unlock()
}

func (r *countingRecorder) Warning(kind string) {
	r.mu.Lock()
	r.warnings[kind]++
	r.mu.Unlock()
}

func (r *countingRecorder) RoomsCarved(_ string, n int, _ time.Duration) {
	r.mu.Lock()
	r.carved += n
	r.mu.Unlock()
}

func (r *countingRecorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings[kind]
}

func quietLogger() *logging.Logger {
	return logging.NewWriterLogger("world", io.Discard, logging.ERROR)
}

func defaultGrid() (*biome.Grid, biome.Biome) {
	biomes := biome.DefaultBiomes()
	grid, err := biome.NewGrid(biome.DefaultGridEntries(biomes))
	if err != nil {
		panic(err)
	}
	ocean, _ := biome.FindByName(biomes, biome.Ocean)
	return grid, ocean
}
