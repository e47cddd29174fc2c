// Package app assembles the world service from configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/config"
	"github.com/annel0/mmo-worldgen/internal/entity"
	"github.com/annel0/mmo-worldgen/internal/eventbus"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/noise"
	"github.com/annel0/mmo-worldgen/internal/storage"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// App holds the wired components. Close releases them in reverse order.
type App struct {
	Config    *config.Config
	Store     world.Store
	Positions storage.PositionRepo
	Bus       eventbus.EventBus
	Field     *noise.Field
	Grid      *biome.Grid
	Generator *world.Generator
	Movement  *entity.MovementService
}

// New opens storage and the event bus and builds the generator.
// Generation metrics are registered with reg; nil disables them.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	a := &App{Config: cfg}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Store = store

	if a.Positions, err = storage.OpenPositions(cfg); err != nil {
		a.Close()
		return nil, fmt.Errorf("open positions: %w", err)
	}

	if a.Bus, err = NewEventBus(cfg.EventBus); err != nil {
		a.Close()
		return nil, err
	}

	opts := []world.Option{
		world.WithLogger(logging.GetWorldLogger()),
		world.WithEventBus(a.Bus),
	}
	if reg != nil {
		opts = append(opts, world.WithRecorder(world.NewPrometheusRecorder(reg)))
	}

	gen, err := BuildGenerator(ctx, cfg, store, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Generator, a.Field, a.Grid = gen.Generator, gen.Field, gen.Grid

	a.Movement = entity.NewMovementService(a.Generator, a.Positions, a.Bus, logging.GetComponentLogger("movement"))
	return a, nil
}

// NewEventBus builds the configured bus.
func NewEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Driver {
	case "nats":
		bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
		if err != nil {
			return nil, fmt.Errorf("open nats event bus: %w", err)
		}
		logging.Info("Event bus: NATS JetStream %s stream=%s", cfg.URL, cfg.Stream)
		return bus, nil
	default:
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}
}

// Generation is the output of BuildGenerator.
type Generation struct {
	Generator *world.Generator
	Field     *noise.Field
	Grid      *biome.Grid
}

// BuildGenerator wires the terrain field, the tiler and the carver against store.
// The biome table must already be seeded.
func BuildGenerator(ctx context.Context, cfg *config.Config, store world.Store, opts ...world.Option) (*Generation, error) {
	grid, ocean, err := storage.LoadGrid(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load biome table: %w", err)
	}

	field, err := noise.NewField(noise.FieldConfig{
		ElevationSeed: cfg.World.ElevationSeed,
		MoistureSeed:  cfg.World.MoistureSeed,
		Extent:        cfg.World.Extent,
		Frequency:     cfg.World.Frequency,
		Octaves:       cfg.World.Octaves,
		Lacunarity:    cfg.World.Lacunarity,
		Gain:          cfg.World.Gain,
		Source:        cfg.World.NoiseSource,
	})
	if err != nil {
		return nil, fmt.Errorf("build noise field: %w", err)
	}

	rng := world.NewLockedRand(cfg.World.RandomSeed)

	tiler := world.NewZoneTiler(store, grid, ocean, field, rng, world.TilerConfig{
		MinSize:      cfg.Zone.MinSize,
		MaxTries:     cfg.Zone.MaxTries,
		MaxExtension: cfg.Zone.MaxExtension,
		NoiseSeeded:  cfg.Zone.UseNoise(),
	}, opts...)

	carver := world.NewMazeCarver(store, world.DefaultStrategies(rng, cfg.Maze.MixedNewestProbability), rng, world.CarverConfig{
		MaxNeighbors:    cfg.Maze.MaxNeighbors,
		DefaultStrategy: cfg.Maze.DefaultStrategy,
	}, opts...)

	return &Generation{
		Generator: world.NewGenerator(store, store, tiler, carver, cfg.World.GenerationTimeout),
		Field:     field,
		Grid:      grid,
	}, nil
}

// Close releases everything New opened.
func (a *App) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if a.Bus != nil {
		keep(a.Bus.Close())
	}
	if a.Positions != nil {
		keep(a.Positions.Close())
	}
	if a.Store != nil {
		keep(a.Store.Close())
	}
	return firstErr
}
