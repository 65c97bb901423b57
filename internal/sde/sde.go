// Package sde reads auxiliary datasets from the static data export, which
// the remote API does not serve.
package sde

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/asteroid-belt/eveuniverse/internal/cache"
	"github.com/asteroid-belt/eveuniverse/internal/log"
)

// Dataset locations used when Config leaves them empty.
const (
	DefaultTypeMaterialsURL = "https://sde.zzeve.com/invTypeMaterials.json"
	DefaultUnitsURL         = "https://sde.zzeve.com/eveUnits.json"
)

// TypeMaterial is one reprocessing material of a type.
type TypeMaterial struct {
	TypeID         int64 `json:"typeID"`
	MaterialTypeID int64 `json:"materialTypeID"`
	Quantity       int64 `json:"quantity"`
}

// Unit is one row of the eveUnits table.
type Unit struct {
	UnitID      int64  `json:"unitID"`
	UnitName    string `json:"unitName"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

// Config holds dataset locations.
type Config struct {
	TypeMaterialsURL string
	UnitsURL         string
	CacheTTL         time.Duration
	Timeout          time.Duration
}

// Source downloads datasets once per process and keeps the raw files in
// the cache between runs.
type Source struct {
	cfg   Config
	http  *http.Client
	cache cache.Cache

	mu        sync.Mutex
	materials map[int64][]TypeMaterial
}

// New creates a source. A nil cache disables caching of the raw files.
func New(cfg Config, c cache.Cache) *Source {
	if cfg.TypeMaterialsURL == "" {
		cfg.TypeMaterialsURL = DefaultTypeMaterialsURL
	}
	if cfg.UnitsURL == "" {
		cfg.UnitsURL = DefaultUnitsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	return &Source{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, cache: c}
}

// TypeMaterials returns the reprocessing materials of a type.
func (s *Source) TypeMaterials(ctx context.Context, typeID int64) ([]TypeMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.materials == nil {
		data, err := s.download(ctx, "type_materials", s.cfg.TypeMaterialsURL)
		if err != nil {
			return nil, err
		}
		var rows []TypeMaterial
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("decode type materials: %w", err)
		}
		s.materials = make(map[int64][]TypeMaterial)
		for _, r := range rows {
			s.materials[r.TypeID] = append(s.materials[r.TypeID], r)
		}
		log.Logger().Debug().Int("rows", len(rows)).Int("types", len(s.materials)).Msg("type materials loaded")
	}
	return s.materials[typeID], nil
}

// Units returns every unit of measurement. The table is small and read on
// each call.
func (s *Source) Units(ctx context.Context) ([]Unit, error) {
	data, err := s.download(ctx, "units", s.cfg.UnitsURL)
	if err != nil {
		return nil, err
	}
	var rows []Unit
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode units: %w", err)
	}
	return rows, nil
}

func (s *Source) download(ctx context.Context, name, url string) ([]byte, error) {
	key := cache.Key("sde", name)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", name, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(key, data, s.cfg.CacheTTL); err != nil {
			log.Logger().Debug().Err(err).Str("dataset", name).Msg("cache write failed")
		}
	}
	return data, nil
}
