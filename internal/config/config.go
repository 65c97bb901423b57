// Package config handles application configuration management.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then environment variables. The merged result is validated before use.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// Environment variables read before the config file is located.
const (
	ConfigPathEnvVar = "EVEUNIVERSE_CONFIG"
	BaseDirEnvVar    = "EVEUNIVERSE_BASE_DIR"
)

// Config holds all application configuration.
type Config struct {
	// Base directory for all local data (~/.eveuniverse)
	BaseDir string `koanf:"base_dir" validate:"required"`

	ESI      ESIConfig      `koanf:"esi"`
	Sections SectionsConfig `koanf:"sections"`
	Tasks    TasksConfig    `koanf:"tasks"`
	Bulk     BulkConfig     `koanf:"bulk"`
	SDE      SDEConfig      `koanf:"sde"`
	Cache    CacheConfig    `koanf:"cache"`
	Market   MarketConfig   `koanf:"market"`
	Log      LogConfig      `koanf:"log"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// ESIConfig configures the remote API client.
type ESIConfig struct {
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	Datasource string        `koanf:"datasource"`
	RateLimit  float64       `koanf:"rate_limit" validate:"gt=0"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
	UserAgent  string        `koanf:"user_agent" validate:"required"`
	// CacheTTL is how long raw responses are kept. Zero disables caching.
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	Breaker  BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker around remote calls.
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval         time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// SectionsConfig holds the global default-on flags of optional sections.
// A section switched on here is loaded on every sync of a type that has it.
type SectionsConfig struct {
	AsteroidBelts bool `koanf:"asteroid_belts"`
	Dogmas        bool `koanf:"dogmas"`
	Graphics      bool `koanf:"graphics"`
	MarketGroups  bool `koanf:"market_groups"`
	Moons         bool `koanf:"moons"`
	Planets       bool `koanf:"planets"`
	Stargates     bool `koanf:"stargates"`
	Stars         bool `koanf:"stars"`
	Stations      bool `koanf:"stations"`
	TypeMaterials bool `koanf:"type_materials"`
}

// TasksConfig configures the background task queue.
type TasksConfig struct {
	Workers int           `koanf:"workers" validate:"gte=1,lte=64"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
	Buffer  int64         `koanf:"buffer" validate:"gte=1"`
}

// BulkConfig configures bulk name resolution.
type BulkConfig struct {
	MaxBatchSize int           `koanf:"max_batch_size" validate:"gte=1,lte=1000"`
	Workers      int           `koanf:"workers" validate:"gte=1,lte=32"`
	MissingTTL   time.Duration `koanf:"missing_ttl" validate:"gte=0"`
}

// SDEConfig configures the static data export datasets.
type SDEConfig struct {
	TypeMaterialsURL string        `koanf:"type_materials_url" validate:"required,url"`
	UnitsURL         string        `koanf:"units_url" validate:"required,url"`
	CacheTTL         time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	Timeout          time.Duration `koanf:"timeout" validate:"gt=0"`
}

// CacheConfig selects the cache backend. An empty Dir places the badger
// store under the base directory.
type CacheConfig struct {
	Backend string `koanf:"backend" validate:"oneof=badger memory"`
	Dir     string `koanf:"dir"`
}

// MarketConfig configures market price refreshes.
type MarketConfig struct {
	StaleAfter time.Duration `koanf:"stale_after" validate:"gt=0"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables
// it.
type MetricsConfig struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Load reads configuration from defaults, the config file and environment
// variables, in that order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := configFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(c)
}

// DefaultSections returns the names of the sections switched on globally.
func (c *Config) DefaultSections() []string {
	flags := []struct {
		on   bool
		name string
	}{
		{c.Sections.AsteroidBelts, schema.SectionAsteroidBelts},
		{c.Sections.Dogmas, schema.SectionDogmas},
		{c.Sections.Graphics, schema.SectionGraphics},
		{c.Sections.MarketGroups, schema.SectionMarketGroups},
		{c.Sections.Moons, schema.SectionMoons},
		{c.Sections.Planets, schema.SectionPlanets},
		{c.Sections.Stargates, schema.SectionStargates},
		{c.Sections.Stars, schema.SectionStars},
		{c.Sections.Stations, schema.SectionStations},
		{c.Sections.TypeMaterials, schema.SectionTypeMaterials},
	}
	var names []string
	for _, f := range flags {
		if f.on {
			names = append(names, f.name)
		}
	}
	return names
}

// configFile returns the config file to read, or "" when there is none.
func configFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	path := filepath.Join(baseDir(), "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func baseDir() string {
	if dir := os.Getenv(BaseDirEnvVar); dir != "" {
		return dir
	}
	return DefaultBaseDir()
}

// envMappings maps environment variables onto config keys. Variables not
// listed are ignored.
var envMappings = map[string]string{
	"eveuniverse_base_dir": "base_dir",

	"esi_base_url":                  "esi.base_url",
	"esi_datasource":                "esi.datasource",
	"esi_rate_limit":                "esi.rate_limit",
	"esi_timeout":                   "esi.timeout",
	"esi_user_agent":                "esi.user_agent",
	"esi_cache_ttl":                 "esi.cache_ttl",
	"esi_breaker_failure_threshold": "esi.breaker.failure_threshold",
	"esi_breaker_timeout":           "esi.breaker.timeout",

	"eveuniverse_task_workers": "tasks.workers",
	"eveuniverse_task_timeout": "tasks.timeout",
	"eveuniverse_bulk_workers": "bulk.workers",

	"eveuniverse_sde_type_materials_url": "sde.type_materials_url",
	"eveuniverse_sde_units_url":          "sde.units_url",
	"eveuniverse_cache_backend":          "cache.backend",
	"eveuniverse_cache_dir":              "cache.dir",
	"eveuniverse_price_stale_after":      "market.stale_after",

	"log_level":    "log.level",
	"log_format":   "log.format",
	"metrics_addr": "metrics.addr",
}

const sectionEnvPrefix = "eveuniverse_load_"

func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	// EVEUNIVERSE_LOAD_<SECTION> switches a section on by default.
	if section, ok := strings.CutPrefix(key, sectionEnvPrefix); ok {
		for _, name := range schema.AllSections {
			if name == section {
				return "sections." + name
			}
		}
	}
	return ""
}

// ensureDirectories creates required directories if they don't exist.
func ensureDirectories(cfg *Config) error {
	paths := GetPaths(cfg)
	for _, dir := range []string{cfg.BaseDir, paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
