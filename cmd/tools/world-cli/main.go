package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/annel0/mmo-worldgen/internal/app"
	"github.com/annel0/mmo-worldgen/internal/config"
	"github.com/annel0/mmo-worldgen/internal/entity"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/vec"
	"github.com/annel0/mmo-worldgen/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (defaults to $WORLD_CONFIG)")
		command    = flag.String("cmd", "room", "Command: zone, room, map, walk")
		x          = flag.Int("x", 0, "X coordinate")
		y          = flag.Int("y", 0, "Y coordinate")
		z          = flag.Int("z", 0, "Z coordinate")
		path       = flag.String("path", "n,e,s,w", "walk: comma-separated directions")
		name       = flag.String("name", "wanderer", "walk: entity name")
		timeout    = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.SetDefaultLogger(logging.NewWriterLogger("world-cli", os.Stderr, logging.WARN))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		log.Fatalf("open world: %v", err)
	}
	defer a.Close()

	at := vec.Vec3{X: *x, Y: *y, Z: *z}
	out := os.Stdout

	switch *command {
	case "zone":
		err = showZone(ctx, out, a.Generator, at)
	case "room":
		err = showRoom(ctx, out, a.Generator, at)
	case "map":
		err = drawZone(ctx, out, a.Generator, a.Store, at)
	case "walk":
		err = walk(ctx, out, a.Movement, *name, at, parseStringList(*path))
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}
	if err != nil {
		a.Close()
		log.Fatalf("%s: %v", *command, err)
	}
}

func showZone(ctx context.Context, w io.Writer, gen *world.Generator, at vec.Vec3) error {
	zone, err := gen.ZoneAt(ctx, at)
	if err != nil {
		return err
	}
	printZone(w, zone)
	return nil
}

func printZone(w io.Writer, zone *world.Zone) {
	fmt.Fprintf(w, "zone %s\n", zone.ID)
	fmt.Fprintf(w, "  plane:     %d\n", zone.Z)
	fmt.Fprintf(w, "  bounds:    %s (%dx%d)\n", zone.Rect, zone.Rect.Width(), zone.Rect.Height())
	fmt.Fprintf(w, "  biome:     %s %s\n", zone.Biome.Name, zone.Biome.HexColor())
	fmt.Fprintf(w, "  terrain:   elevation=%d moisture=%d\n", zone.Elevation, zone.Moisture)
	fmt.Fprintf(w, "  selection: %s\n", zone.Biome.CellSelection)
}

func showRoom(ctx context.Context, w io.Writer, gen *world.Generator, at vec.Vec3) error {
	room, zone, err := gen.EnsureRoom(ctx, at)
	if errors.Is(err, world.ErrNoSuchRoom) {
		fmt.Fprintf(w, "%s is solid rock in %s\n", at, zone.Biome.Name)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "room %s at %s\n", room.ID, room.Location)
	printZone(w, zone)
	return nil
}

// drawZone renders the zone containing at: '.' is a room, '#' a wall, '@' the requested cell.
func drawZone(ctx context.Context, w io.Writer, gen *world.Generator, store world.RoomRepository, at vec.Vec3) error {
	if _, _, err := gen.EnsureRoom(ctx, at); err != nil && !errors.Is(err, world.ErrNoSuchRoom) {
		return err
	}
	zone, err := gen.PeekZone(ctx, at)
	if err != nil {
		return err
	}
	rooms, err := store.FindRoomsInRect(ctx, zone.Rect, zone.Z)
	if err != nil {
		return err
	}
	open := make(map[[2]int]bool, len(rooms))
	for _, r := range rooms {
		open[[2]int{r.Location.X, r.Location.Y}] = true
	}

	printZone(w, zone)
	fmt.Fprintf(w, "  rooms:     %d/%d\n\n", len(rooms), zone.Rect.Area())

	var sb strings.Builder
	for y := zone.Rect.MaxY; y >= zone.Rect.MinY; y-- { // north up
		for x := zone.Rect.MinX; x <= zone.Rect.MaxX; x++ {
			switch {
			case x == at.X && y == at.Y:
				sb.WriteByte('@')
			case open[[2]int{x, y}]:
				sb.WriteByte('.')
			default:
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	_, err = io.WriteString(w, sb.String())
	return err
}

func walk(ctx context.Context, w io.Writer, moves *entity.MovementService, name string, start vec.Vec3, path []string) error {
	p, err := moves.Put(ctx, name, start)
	if err != nil {
		return err
	}
	id := p.Entity.ID
	defer moves.Remove(context.Background(), id)

	fmt.Fprintf(w, "%s appears at %s (%s)\n", name, p.Entity.Location, p.Zone.Biome.Name)
	biomeName := p.Zone.Biome.Name

	for _, dir := range path {
		next, err := moves.Move(ctx, id, dir)
		if errors.Is(err, entity.ErrCannotGo) {
			fmt.Fprintf(w, "%s: %v\n", dir, err)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: now at %s\n", dir, next.Entity.Location)
		if next.Zone.Biome.Name != biomeName {
			biomeName = next.Zone.Biome.Name
			fmt.Fprintf(w, "  you enter %s\n", biomeName)
		}
	}
	return nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
