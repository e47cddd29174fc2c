package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/noise"
)

// Edges a growing rectangle can be pushed out on.
const (
	edgeRight  = iota // +x
	edgeTop           // +y
	edgeLeft          // -x
	edgeBottom        // -y
)

// TilerConfig bounds zone growth.
type TilerConfig struct {
	MinSize      int  // both dimensions should reach this
	MaxTries     int  // growth attempts, successful or not
	MaxExtension int  // cells added per attempt, chosen in [1, MaxExtension]
	NoiseSeeded  bool // isolated zones sample the terrain field
}

// DefaultTilerConfig returns the reference bounds.
func DefaultTilerConfig() TilerConfig {
	return TilerConfig{MinSize: 10, MaxTries: 25, MaxExtension: 3, NoiseSeeded: true}
}

// ZoneTiler partitions each plane into non-overlapping biome zones on demand.
// Callers must serialize ZoneAt per plane; Generator does this.
type ZoneTiler struct {
	zones ZoneRepository
	grid  *biome.Grid
	ocean biome.Biome
	field *noise.Field
	rng   Random
	cfg   TilerConfig
	options
}

// NewZoneTiler wires the tiler. field may be nil, which disables noise seeding.
// ocean is assigned to isolated zones whose terrain has no grid entry.
func NewZoneTiler(zones ZoneRepository, grid *biome.Grid, ocean biome.Biome, field *noise.Field, rng Random, cfg TilerConfig, opts ...Option) *ZoneTiler {
	return &ZoneTiler{
		zones:   zones,
		grid:    grid,
		ocean:   ocean,
		field:   field,
		rng:     rng,
		cfg:     cfg,
		options: applyOptions(opts),
	}
}

// ZoneAt returns the zone covering (x, y, z), creating it when absent.
func (t *ZoneTiler) ZoneAt(ctx context.Context, x, y, z int) (*Zone, error) {
	zone, err := t.zones.FindZoneContaining(ctx, x, y, z)
	if err != nil {
		return nil, fmt.Errorf("find zone at (%d, %d, %d): %w", x, y, z, err)
	}
	if zone != nil {
		return zone, nil
	}
	return t.createZone(ctx, x, y, z)
}

func (t *ZoneTiler) createZone(ctx context.Context, x, y, z int) (*Zone, error) {
	rect, err := t.expand(ctx, x, y, z)
	if err != nil {
		return nil, err
	}

	elevation, moisture, b, err := t.selectBiome(ctx, rect, z)
	if err != nil {
		return nil, err
	}

	saved, err := t.zones.SaveZone(ctx, &Zone{
		Z:         z,
		Rect:      rect,
		Elevation: elevation,
		Moisture:  moisture,
		Biome:     b,
	})
	if err != nil {
		return nil, fmt.Errorf("save zone %s: %w", rect, err)
	}

	t.rec.ZoneCreated(b.Name, rect.Area())
	t.log.Debug("zone %s created at %s z=%d biome=%s (e=%d m=%d)", saved.ID, rect, z, b.Name, elevation, moisture)

	if err := eventbus.Emit(ctx, t.bus, EventSource, eventbus.EventZoneCreated, eventbus.ZoneCreated{
		ZoneID:    saved.ID,
		Z:         z,
		MinX:      rect.MinX,
		MinY:      rect.MinY,
		MaxX:      rect.MaxX,
		MaxY:      rect.MaxY,
		Biome:     b.Name,
		Elevation: elevation,
		Moisture:  moisture,
	}); err != nil {
		t.log.Warn("publish ZoneCreated for %s: %v", saved.ID, err)
	}
	return saved, nil
}

func (t *ZoneTiler) bigEnough(r Rect) bool {
	return r.Width() >= t.cfg.MinSize && r.Height() >= t.cfg.MinSize
}

// expand grows a 1x1 seed at (x, y) by random edge pushes, undoing any push
// that would overlap an existing zone.
func (t *ZoneTiler) expand(ctx context.Context, x, y, z int) (Rect, error) {
	rect := PointRect(x, y)

	for tries := 0; !t.bigEnough(rect) && tries < t.cfg.MaxTries; tries++ {
		if err := ctx.Err(); err != nil {
			return Rect{}, err
		}

		grown := pushEdge(rect, t.rng.Intn(4), t.rng.Intn(t.cfg.MaxExtension)+1)
		overlapping, err := t.zones.FindZonesOverlapping(ctx, grown, z)
		if err != nil {
			return Rect{}, fmt.Errorf("find zones overlapping %s: %w", grown, err)
		}
		if len(overlapping) > 0 {
			t.rec.Warning(WarnCollision)
			continue
		}
		rect = grown
	}

	if !t.bigEnough(rect) {
		t.rec.Warning(WarnExpansionExhausted)
		t.log.Warn("zone at (%d, %d, %d) stopped growing at %dx%d after %d tries",
			x, y, z, rect.Width(), rect.Height(), t.cfg.MaxTries)
	}
	return rect, nil
}

func pushEdge(r Rect, edge, amount int) Rect {
	switch edge {
	case edgeRight:
		r.MaxX += amount
	case edgeTop:
		r.MaxY += amount
	case edgeLeft:
		r.MinX -= amount
	case edgeBottom:
		r.MinY -= amount
	}
	return r
}

// selectBiome picks a table entry compatible with every zone bordering rect.
// A zone with no neighbours takes the terrain at its centre when noise seeding is on.
func (t *ZoneTiler) selectBiome(ctx context.Context, rect Rect, z int) (int, int, biome.Biome, error) {
	neighbors, err := t.zones.FindZonesOverlapping(ctx, rect.Grow(1), z)
	if err != nil {
		return 0, 0, biome.Biome{}, fmt.Errorf("find neighbours of %s: %w", rect, err)
	}

	if len(neighbors) == 0 && t.cfg.NoiseSeeded && t.field != nil {
		cx, cy := rect.Center()
		e, m := t.field.Sample(cx, cy)
		b, err := t.grid.Lookup(e, m)
		if errors.Is(err, biome.ErrNoBiomeMapped) {
			t.rec.Warning(WarnNoBiomeMapped)
			t.log.Trace("terrain (%d, %d) at %d,%d unmapped, using %s", e, m, cx, cy, t.ocean.Name)
			return e, m, t.ocean, nil
		}
		return e, m, b, nil
	}

	entries := t.grid.Entries()
	if len(entries) == 0 {
		return 0, 0, biome.Biome{}, ErrEmptyBiomeTable
	}

	candidates := CompatibleEntries(entries, neighbors)
	if len(candidates) == 0 {
		t.rec.Warning(WarnBiomeFallback)
		t.log.Warn("no biome fits the %d neighbours of %s z=%d, choosing from the full table", len(neighbors), rect, z)
		candidates = entries
	}

	pick := candidates[t.rng.Intn(len(candidates))]
	return pick.Elevation, pick.Moisture, pick.Biome, nil
}

// CompatibleEntries keeps the entries that, against every neighbour, differ by
// exactly one step on at least one axis, by at most one on both, and are not identical.
func CompatibleEntries(entries []biome.GridEntry, neighbors []Zone) []biome.GridEntry {
	out := make([]biome.GridEntry, 0, len(entries))
	for _, e := range entries {
		if compatible(e, neighbors) {
			out = append(out, e)
		}
	}
	return out
}

func compatible(e biome.GridEntry, neighbors []Zone) bool {
	for _, n := range neighbors {
		de := abs(e.Elevation - n.Elevation)
		dm := abs(e.Moisture - n.Moisture)
		if de > 1 || dm > 1 {
			return false
		}
		if de == 0 && dm == 0 {
			return false
		}
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
