package config

import (
	"time"

	"github.com/asteroid-belt/eveuniverse/internal/cache"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseDir: DefaultBaseDir(),

		ESI: ESIConfig{
			BaseURL:    "https://esi.evetech.net/latest",
			Datasource: "tranquility",
			RateLimit:  20,
			Timeout:    30 * time.Second,
			UserAgent:  "eveuniverse (+https://github.com/asteroid-belt/eveuniverse)",
			CacheTTL:   time.Hour,
			Breaker: BreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},

		// All optional sections are off unless switched on.
		Sections: SectionsConfig{},

		Tasks: TasksConfig{
			Workers: 4,
			Timeout: 5 * time.Minute,
			Buffer:  1024,
		},

		Bulk: BulkConfig{
			MaxBatchSize: 1000,
			Workers:      4,
			MissingTTL:   24 * time.Hour,
		},

		SDE: SDEConfig{
			TypeMaterialsURL: "https://sde.zzeve.com/invTypeMaterials.json",
			UnitsURL:         "https://sde.zzeve.com/eveUnits.json",
			CacheTTL:         7 * 24 * time.Hour,
			Timeout:          2 * time.Minute,
		},

		Cache: CacheConfig{
			Backend: cache.BackendBadger,
		},

		Market: MarketConfig{
			StaleAfter: 60 * time.Minute,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
