package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("WORLD_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(167), cfg.World.ElevationSeed)
	assert.Equal(t, int64(98), cfg.World.MoistureSeed)
	assert.Equal(t, 0.007, cfg.World.Frequency)
	assert.Equal(t, 8, cfg.World.Octaves)
	assert.Equal(t, 10, cfg.Zone.MinSize)
	assert.Equal(t, 25, cfg.Zone.MaxTries)
	assert.Equal(t, 1, cfg.Maze.MaxNeighbors)
	assert.True(t, cfg.Zone.UseNoise())
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "world.yaml")
	body := `
world:
  extent: 256
  elevation_seed: 1
  generation_timeout: 2s
zone:
  min_size: 6
  noise_seeded: false
storage:
  driver: badger
  badger_path: /tmp/world
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.World.Extent)
	assert.Equal(t, int64(1), cfg.World.ElevationSeed)
	assert.Equal(t, int64(98), cfg.World.MoistureSeed, "untouched keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.World.GenerationTimeout)
	assert.Equal(t, 6, cfg.Zone.MinSize)
	assert.False(t, cfg.Zone.UseNoise())
	assert.Equal(t, "badger", cfg.Storage.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: floppy\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("WORLD_REST_PORT", "9001")
	t.Setenv("WORLD_REDIS_ADDR", "cache:6379")

	var s ServerConfig
	assert.Equal(t, 9001, s.GetRESTPort())
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.RESTPort = 7000
	assert.Equal(t, 7000, s.GetRESTPort(), "config wins over env")

	var c CacheConfig
	assert.Equal(t, "cache:6379", c.GetAddr())
}
