package world

import (
	"context"
	"fmt"
	"time"

	"github.com/zyedidia/generic/mapset"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/vec"
)

// cancellation is polled every this many carve steps.
const carveCheckEvery = 256

// CarverConfig tunes maze carving.
type CarverConfig struct {
	MaxNeighbors    int    // carved-or-frontier neighbours a new cell may touch
	DefaultStrategy string // used when a biome names an unknown strategy
}

// DefaultCarverConfig returns the reference settings.
func DefaultCarverConfig() CarverConfig {
	return CarverConfig{MaxNeighbors: 1, DefaultStrategy: biome.SelectRandom}
}

// Maze is the result of one carve.
type Maze struct {
	// Cells in the order they were finalized.
	Cells []Cell
	// Order in which cells entered the frontier; the seed comes first.
	Order []Cell
}

// Carve runs the growing-tree algorithm inside rect from seed.
// Cells in blocked are never entered. The result is a spanning tree of the
// reachable cells, so every carved cell is connected to the seed.
func Carve(ctx context.Context, rect Rect, seed Cell, strategy CellSelectionStrategy, rng Random, maxNeighbors int, blocked mapset.Set[Cell]) (*Maze, error) {
	if !rect.Contains(seed.X, seed.Y) {
		return nil, fmt.Errorf("seed (%d, %d): %w", seed.X, seed.Y, ErrOutsideZone)
	}

	c := &carving{
		rect:     rect,
		max:      maxNeighbors,
		queued:   mapset.New[Cell](),
		carved:   mapset.New[Cell](),
		blocked:  blocked,
		frontier: []Cell{seed},
	}
	c.queued.Put(seed)

	maze := &Maze{Order: []Cell{seed}}
	dirs := vec.Directions

	for steps := 0; len(c.frontier) > 0; steps++ {
		if steps%carveCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		cell := strategy.Select(c.frontier)
		rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		next, ok := Cell{}, false
		for _, d := range dirs {
			if n := cell.Step(d); c.open(n) {
				next, ok = n, true
				break
			}
		}

		if ok {
			c.frontier = append(c.frontier, next)
			c.queued.Put(next)
			maze.Order = append(maze.Order, next)
			continue
		}

		c.finalize(cell)
		maze.Cells = append(maze.Cells, cell)
	}
	return maze, nil
}

type carving struct {
	rect     Rect
	max      int
	frontier []Cell
	queued   mapset.Set[Cell]
	carved   mapset.Set[Cell]
	blocked  mapset.Set[Cell]
}

// open reports whether n may join the frontier.
func (c *carving) open(n Cell) bool {
	if !c.rect.Contains(n.X, n.Y) || c.carved.Has(n) || c.queued.Has(n) {
		return false
	}
	if c.blocked.Size() > 0 && c.blocked.Has(n) {
		return false
	}

	touching := 0
	for _, d := range vec.Directions {
		m := n.Step(d)
		if c.rect.Contains(m.X, m.Y) && (c.carved.Has(m) || c.queued.Has(m)) {
			touching++
		}
	}
	return touching <= c.max
}

// finalize moves cell from the frontier to the carved set.
func (c *carving) finalize(cell Cell) {
	for i := len(c.frontier) - 1; i >= 0; i-- {
		if c.frontier[i] == cell {
			c.frontier = append(c.frontier[:i], c.frontier[i+1:]...)
			break
		}
	}
	c.queued.Remove(cell)
	c.carved.Put(cell)
}

// MazeCarver turns zones into rooms.
// Callers must serialize EnsureRoom per zone; Generator does this.
type MazeCarver struct {
	rooms      RoomRepository
	strategies Strategies
	rng        Random
	cfg        CarverConfig
	options
}

// NewMazeCarver wires the carver.
func NewMazeCarver(rooms RoomRepository, strategies Strategies, rng Random, cfg CarverConfig, opts ...Option) *MazeCarver {
	return &MazeCarver{
		rooms:      rooms,
		strategies: strategies,
		rng:        rng,
		cfg:        cfg,
		options:    applyOptions(opts),
	}
}

// StrategyFor resolves the biome's selection tag, falling back to the default strategy.
func (m *MazeCarver) StrategyFor(b biome.Biome) (CellSelectionStrategy, string) {
	if s, ok := m.strategies[b.CellSelection]; ok {
		return s, b.CellSelection
	}
	m.rec.Warning(WarnUnknownStrategy)
	m.log.Warn("biome %s names unknown cell selection %q, using %s", b.Name, b.CellSelection, m.cfg.DefaultStrategy)
	if s, ok := m.strategies[m.cfg.DefaultStrategy]; ok {
		return s, m.cfg.DefaultStrategy
	}
	return RandomSelection{Rand: m.rng}, biome.SelectRandom
}

// EnsureRoom returns the room at `at`, carving the zone first when it has no rooms yet.
// A coordinate left as a wall in an already carved zone yields ErrNoSuchRoom.
func (m *MazeCarver) EnsureRoom(ctx context.Context, zone *Zone, at vec.Vec3) (*Room, error) {
	if !zone.Contains(at) {
		return nil, fmt.Errorf("%s not in zone %s %s: %w", at, zone.ID, zone.Rect, ErrOutsideZone)
	}

	room, err := m.rooms.FindRoom(ctx, at.X, at.Y, at.Z)
	if err != nil {
		return nil, fmt.Errorf("find room at %s: %w", at, err)
	}
	if room != nil {
		return room, nil
	}

	existing, err := m.rooms.FindRoomsInRect(ctx, zone.Rect, zone.Z)
	if err != nil {
		return nil, fmt.Errorf("find rooms in zone %s: %w", zone.ID, err)
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%s in zone %s: %w", at, zone.ID, ErrNoSuchRoom)
	}

	return m.carveZone(ctx, zone, at)
}

func (m *MazeCarver) carveZone(ctx context.Context, zone *Zone, at vec.Vec3) (*Room, error) {
	strategy, name := m.StrategyFor(zone.Biome)

	start := time.Now()
	maze, err := Carve(ctx, zone.Rect, CellOf(at), strategy, m.rng, m.cfg.MaxNeighbors, mapset.New[Cell]())
	if err != nil {
		return nil, fmt.Errorf("carve zone %s: %w", zone.ID, err)
	}

	rooms := make([]Room, len(maze.Cells))
	for i, c := range maze.Cells {
		rooms[i] = Room{Location: c.Vec3(), ZoneID: zone.ID}
	}

	saved, err := m.rooms.SaveRooms(ctx, rooms)
	if err != nil {
		return nil, fmt.Errorf("save %d rooms of zone %s: %w", len(rooms), zone.ID, err)
	}
	took := time.Since(start)

	m.rec.RoomsCarved(name, len(saved), took)
	m.log.Debug("zone %s carved: %d rooms of %d cells with %s in %s", zone.ID, len(saved), zone.Rect.Area(), name, took)

	if err := eventbus.Emit(ctx, m.bus, EventSource, eventbus.EventRoomsCarved, eventbus.RoomsCarved{
		ZoneID:   zone.ID,
		Rooms:    len(saved),
		Strategy: name,
		SeedX:    at.X,
		SeedY:    at.Y,
		SeedZ:    at.Z,
	}); err != nil {
		m.log.Warn("publish RoomsCarved for %s: %v", zone.ID, err)
	}

	for i := range saved {
		if saved[i].Location == at {
			return &saved[i], nil
		}
	}
	return nil, fmt.Errorf("carved zone %s lacks its seed %s", zone.ID, at)
}
