package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the service configuration.
// Every section has usable defaults; see Default.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Zone      ZoneConfig      `yaml:"zone"`
	Maze      MazeConfig      `yaml:"maze"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// WorldConfig drives the terrain noise and the random source.
type WorldConfig struct {
	ElevationSeed     int64         `yaml:"elevation_seed"`
	MoistureSeed      int64         `yaml:"moisture_seed"`
	Extent            int           `yaml:"extent"`
	Frequency         float64       `yaml:"frequency"`
	Octaves           int           `yaml:"octaves"`
	Lacunarity        float64       `yaml:"lacunarity"`
	Gain              float64       `yaml:"gain"`
	NoiseSource       string        `yaml:"noise_source"`
	RandomSeed        int64         `yaml:"random_seed"`
	GenerationTimeout time.Duration `yaml:"generation_timeout"`
}

type ZoneConfig struct {
	MinSize      int   `yaml:"min_size"`
	MaxTries     int   `yaml:"max_tries"`
	MaxExtension int   `yaml:"max_extension"`
	NoiseSeeded  *bool `yaml:"noise_seeded"`
}

// UseNoise reports whether isolated zones take their biome from terrain noise.
func (z ZoneConfig) UseNoise() bool {
	return z.NoiseSeeded == nil || *z.NoiseSeeded
}

type MazeConfig struct {
	MaxNeighbors           int     `yaml:"max_neighbors"`
	MixedNewestProbability float64 `yaml:"mixed_newest_probability"`
	DefaultStrategy        string  `yaml:"default_strategy"`
}

// StorageConfig selects the world repository backend.
type StorageConfig struct {
	Driver     string `yaml:"driver"` // memory | badger | maria | mongo
	BadgerPath string `yaml:"badger_path"`
	MariaDSN   string `yaml:"maria_dsn"`
	MongoURI   string `yaml:"mongo_uri"`
	MongoDB    string `yaml:"mongo_database"`
}

// GetMariaDSN returns the DSN with fallback: config -> env -> default.
func (s *StorageConfig) GetMariaDSN() string {
	return getStringWithEnvFallback(s.MariaDSN, "WORLD_MARIA_DSN", "worldgen:worldgen@tcp(127.0.0.1:3306)/worldgen?parseTime=true")
}

func (s *StorageConfig) GetMongoURI() string {
	return getStringWithEnvFallback(s.MongoURI, "WORLD_MONGO_URI", "mongodb://127.0.0.1:27017")
}

// CacheConfig enables the Redis room cache. With Redis disabled, LocalSize > 0
// puts an in-process LRU of that many rooms in front of the store instead.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	LocalSize int           `yaml:"local_size"`
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	TTL       time.Duration `yaml:"ttl"`
}

func (c *CacheConfig) GetAddr() string {
	return getStringWithEnvFallback(c.Addr, "WORLD_REDIS_ADDR", "127.0.0.1:6379")
}

type EventBusConfig struct {
	Driver    string `yaml:"driver"` // memory | nats
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetRESTPort returns the REST API port with fallback values.
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "WORLD_REST_PORT", 8088)
}

// GetMetricsPort returns the Prometheus port with fallback values.
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "WORLD_METRICS_PORT", 2112)
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			ElevationSeed:     167,
			MoistureSeed:      98,
			Extent:            2048,
			Frequency:         0.007,
			Octaves:           8,
			Lacunarity:        2.0,
			Gain:              0.5,
			NoiseSource:       "simplex",
			GenerationTimeout: 10 * time.Second,
		},
		Zone: ZoneConfig{
			MinSize:      10,
			MaxTries:     25,
			MaxExtension: 3,
		},
		Maze: MazeConfig{
			MaxNeighbors:           1,
			MixedNewestProbability: 0.75,
			DefaultStrategy:        "random",
		},
		Storage: StorageConfig{
			Driver:     "memory",
			BadgerPath: "data/world",
			MongoDB:    "worldgen",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		EventBus: EventBusConfig{
			Driver:    "memory",
			URL:       "nats://127.0.0.1:4222",
			Stream:    "WORLD_EVENTS",
			Retention: 24,
			Buffer:    1024,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "worldgen",
		},
		Logging: LoggingConfig{
			ConsoleLevel: "INFO",
			FileLevel:    "DEBUG",
		},
	}
}

// Load reads a YAML file on top of Default.
// If path == "", WORLD_CONFIG is tried; with neither, defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("WORLD_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the generator cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.World.Extent <= 0:
		return fmt.Errorf("world.extent must be positive, got %d", c.World.Extent)
	case c.World.Octaves <= 0:
		return fmt.Errorf("world.octaves must be positive, got %d", c.World.Octaves)
	case c.World.Frequency <= 0:
		return fmt.Errorf("world.frequency must be positive, got %g", c.World.Frequency)
	case c.Zone.MinSize <= 0:
		return fmt.Errorf("zone.min_size must be positive, got %d", c.Zone.MinSize)
	case c.Zone.MaxTries < 0:
		return fmt.Errorf("zone.max_tries must not be negative, got %d", c.Zone.MaxTries)
	case c.Zone.MaxExtension <= 0:
		return fmt.Errorf("zone.max_extension must be positive, got %d", c.Zone.MaxExtension)
	case c.Maze.MaxNeighbors <= 0:
		return fmt.Errorf("maze.max_neighbors must be positive, got %d", c.Maze.MaxNeighbors)
	case c.Maze.MixedNewestProbability < 0 || c.Maze.MixedNewestProbability > 1:
		return fmt.Errorf("maze.mixed_newest_probability must be within [0,1], got %g", c.Maze.MixedNewestProbability)
	}
	switch c.Storage.Driver {
	case "memory", "badger", "maria", "mongo":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	switch c.EventBus.Driver {
	case "memory", "nats":
	default:
		return fmt.Errorf("unknown eventbus.driver %q", c.EventBus.Driver)
	}
	return nil
}

// getPortWithEnvFallback returns a port with priority config -> env -> default.
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}
