package storage

import (
	"context"
	"fmt"

	"github.com/annel0/mmo-worldgen/internal/biome"
	"github.com/annel0/mmo-worldgen/internal/logging"
	"github.com/annel0/mmo-worldgen/internal/world"
)

// SeedReferenceData stores the stock biome catalogue and Whittaker table when
// the repository has none. Existing data is left untouched.
func SeedReferenceData(ctx context.Context, repo world.BiomeRepository) error {
	biomes, err := repo.FindAllBiomes(ctx)
	if err != nil {
		return fmt.Errorf("list biomes: %w", err)
	}
	if len(biomes) == 0 {
		biomes, err = repo.SaveBiomes(ctx, biome.DefaultBiomes())
		if err != nil {
			return fmt.Errorf("seed biomes: %w", err)
		}
		logging.Info("Seeded %d biomes", len(biomes))
	}

	entries, err := repo.FindGridEntries(ctx)
	if err != nil {
		return fmt.Errorf("list grid entries: %w", err)
	}
	if len(entries) > 0 {
		return nil
	}

	entries, err = repo.SaveGridEntries(ctx, biome.DefaultGridEntries(biomes))
	if err != nil {
		return fmt.Errorf("seed grid entries: %w", err)
	}
	logging.Info("Seeded %d Whittaker table entries", len(entries))
	return nil
}

// LoadGrid reads the Whittaker table and the Ocean biome used for unmapped terrain.
func LoadGrid(ctx context.Context, repo world.BiomeRepository) (*biome.Grid, biome.Biome, error) {
	entries, err := repo.FindGridEntries(ctx)
	if err != nil {
		return nil, biome.Biome{}, fmt.Errorf("list grid entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, biome.Biome{}, world.ErrEmptyBiomeTable
	}

	grid, err := biome.NewGrid(entries)
	if err != nil {
		return nil, biome.Biome{}, err
	}

	ocean, err := repo.FindBiomeByName(ctx, biome.Ocean)
	if err != nil {
		return nil, biome.Biome{}, fmt.Errorf("find %s biome: %w", biome.Ocean, err)
	}
	if ocean == nil {
		return nil, biome.Biome{}, fmt.Errorf("biome %q is missing from the catalogue", biome.Ocean)
	}
	return grid, *ocean, nil
}
