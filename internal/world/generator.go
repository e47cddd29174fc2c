package world

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/annel0/mmo-worldgen/internal/vec"
)

// Generator is the entry point used by movement: it resolves the zone owning a
// coordinate and makes sure a room exists there.
//
// Zone creation is serialized per plane, so two requests can never tile
// overlapping zones. Carving is serialized per zone and concurrent requests for
// the same zone share one carve.
type Generator struct {
	zones   ZoneRepository
	rooms   RoomRepository
	tiler   *ZoneTiler
	carver  *MazeCarver
	timeout time.Duration

	planesMu sync.Mutex
	planes   map[int]*sync.Mutex
	carving  singleflight.Group
}

// NewGenerator combines a tiler and a carver. timeout bounds every call; zero disables it.
func NewGenerator(zones ZoneRepository, rooms RoomRepository, tiler *ZoneTiler, carver *MazeCarver, timeout time.Duration) *Generator {
	return &Generator{
		zones:   zones,
		rooms:   rooms,
		tiler:   tiler,
		carver:  carver,
		timeout: timeout,
		planes:  make(map[int]*sync.Mutex),
	}
}

func (g *Generator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Generator) planeLock(z int) *sync.Mutex {
	g.planesMu.Lock()
	defer g.planesMu.Unlock()
	mu, ok := g.planes[z]
	if !ok {
		mu = &sync.Mutex{}
		g.planes[z] = mu
	}
	return mu
}

// PeekZone returns the zone covering c without creating one.
func (g *Generator) PeekZone(ctx context.Context, c vec.Vec3) (*Zone, error) {
	zone, err := g.zones.FindZoneContaining(ctx, c.X, c.Y, c.Z)
	if err != nil {
		return nil, fmt.Errorf("find zone at %s: %w", c, err)
	}
	return zone, nil
}

// ZoneAt returns the zone covering c, creating it when absent.
func (g *Generator) ZoneAt(ctx context.Context, c vec.Vec3) (*Zone, error) {
	ctx, cancel := g.withDeadline(ctx)
	defer cancel()
	return g.zoneAt(ctx, c)
}

func (g *Generator) zoneAt(ctx context.Context, c vec.Vec3) (*Zone, error) {
	zone, err := g.PeekZone(ctx, c)
	if err != nil || zone != nil {
		return zone, err
	}

	mu := g.planeLock(c.Z)
	mu.Lock()
	defer mu.Unlock()

	// ZoneAt looks again under the lock.
	return g.tiler.ZoneAt(ctx, c.X, c.Y, c.Z)
}

// EnsureRoom returns the room at c and its zone, generating both on demand.
// ErrNoSuchRoom means c is a wall.
func (g *Generator) EnsureRoom(ctx context.Context, c vec.Vec3) (*Room, *Zone, error) {
	ctx, cancel := g.withDeadline(ctx)
	defer cancel()

	room, err := g.rooms.FindRoom(ctx, c.X, c.Y, c.Z)
	if err != nil {
		return nil, nil, fmt.Errorf("find room at %s: %w", c, err)
	}

	zone, err := g.zoneAt(ctx, c)
	if err != nil {
		return nil, nil, err
	}
	if room != nil {
		return room, zone, nil
	}

	for attempt := 0; ; attempt++ {
		v, err, shared := g.carving.Do(zone.ID, func() (interface{}, error) {
			return g.carver.EnsureRoom(ctx, zone, c)
		})
		if err == nil {
			// A shared carve returns the room of whichever caller ran it.
			if r := v.(*Room); r.Location == c {
				return r, zone, nil
			}
			break
		}
		if shared && attempt == 0 && isContextErr(err) && ctx.Err() == nil {
			continue
		}
		if shared && errors.Is(err, ErrNoSuchRoom) {
			break
		}
		return nil, zone, err
	}

	room, err = g.rooms.FindRoom(ctx, c.X, c.Y, c.Z)
	if err != nil {
		return nil, zone, fmt.Errorf("find room at %s: %w", c, err)
	}
	if room == nil {
		return nil, zone, fmt.Errorf("%s in zone %s: %w", c, zone.ID, ErrNoSuchRoom)
	}
	return room, zone, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// FindRoom returns the room at c without generating anything.
func (g *Generator) FindRoom(ctx context.Context, c vec.Vec3) (*Room, error) {
	return g.rooms.FindRoom(ctx, c.X, c.Y, c.Z)
}
