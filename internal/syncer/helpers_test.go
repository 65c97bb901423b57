package syncer

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi/esitest"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/sde"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(db.DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})
	return database
}

func testService(t *testing.T, stub *esitest.Stub, cfg Config) (*Service, *db.DB) {
	t.Helper()
	database := testDB(t)
	svc, err := New(cfg, database, stub)
	require.NoError(t, err)
	return svc, database
}

func count(t *testing.T, database *db.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, database.Table(table).Count(&n).Error)
	return n
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []key
	reqs  []Request
}

func (q *fakeQueue) Enqueue(_ context.Context, kind schema.Kind, id int64, req Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, key{kind: kind, id: id})
	q.reqs = append(q.reqs, req)
	return nil
}

type fakeMaterials map[int64][]sde.TypeMaterial

func (m fakeMaterials) TypeMaterials(_ context.Context, typeID int64) ([]sde.TypeMaterial, error) {
	return m[typeID], nil
}

const (
	typeEndpoint          = "/universe/types/{id}/"
	groupEndpoint         = "/universe/groups/{id}/"
	categoryEndpoint      = "/universe/categories/{id}/"
	attributeEndpoint     = "/dogma/attributes/{id}/"
	effectEndpoint        = "/dogma/effects/{id}/"
	marketGroupEndpoint   = "/markets/groups/{id}/"
	regionEndpoint        = "/universe/regions/{id}/"
	constellationEndpoint = "/universe/constellations/{id}/"
	systemEndpoint        = "/universe/systems/{id}/"
	planetEndpoint        = "/universe/planets/{id}/"
	moonEndpoint          = "/universe/moons/{id}/"
	stationEndpoint       = "/universe/stations/{id}/"
)

// universe returns a stub serving a small slice of New Eden.
func universe() *esitest.Stub {
	s := esitest.New()

	// Ships
	s.AddObject(categoryEndpoint, 6, map[string]any{"category_id": 6, "name": "Ship", "published": true, "groups": []int{25}})
	s.AddObject(groupEndpoint, 25, map[string]any{"group_id": 25, "name": "Frigate", "category_id": 6, "published": true, "types": []int{603}})
	s.AddObject(typeEndpoint, 603, map[string]any{
		"type_id":         603,
		"name":            "Merlin",
		"group_id":        25,
		"published":       true,
		"mass":            997000,
		"market_group_id": 61,
		"dogma_attributes": []map[string]any{
			{"attribute_id": 9, "value": 350},
			{"attribute_id": 37, "value": 290},
		},
		"dogma_effects": []map[string]any{
			{"effect_id": 11, "is_default": true},
		},
	})
	s.AddObject(marketGroupEndpoint, 61, map[string]any{"market_group_id": 61, "name": "Caldari", "description": "Caldari frigates", "types": []int{603}})
	s.AddObject(attributeEndpoint, 9, map[string]any{"attribute_id": 9, "name": "hp", "unit_id": 1, "published": true, "default_value": 0})
	s.AddObject(attributeEndpoint, 37, map[string]any{"attribute_id": 37, "name": "maxVelocity", "unit_id": 11, "high_is_good": true})
	s.AddObject(effectEndpoint, 11, map[string]any{
		"effect_id":    11,
		"name":         "loPower",
		"is_offensive": false,
		"modifiers": []map[string]any{
			{"func": "ItemModifier", "domain": "shipID", "modified_attribute_id": 9, "operator": 2},
		},
	})

	// Minerals
	s.AddObject(categoryEndpoint, 4, map[string]any{"category_id": 4, "name": "Material", "published": true, "groups": []int{18}})
	s.AddObject(groupEndpoint, 18, map[string]any{"group_id": 18, "name": "Mineral", "category_id": 4, "published": true, "types": []int{34, 35}})
	s.AddObject(typeEndpoint, 34, map[string]any{"type_id": 34, "name": "Tritanium", "group_id": 18, "published": true})
	s.AddObject(typeEndpoint, 35, map[string]any{"type_id": 35, "name": "Pyerite", "group_id": 18, "published": true})

	// Celestials
	s.AddObject(categoryEndpoint, 2, map[string]any{"category_id": 2, "name": "Celestial", "published": false, "groups": []int{7, 15}})
	s.AddObject(groupEndpoint, 7, map[string]any{"group_id": 7, "name": "Planet", "category_id": 2, "published": false})
	s.AddObject(groupEndpoint, 15, map[string]any{"group_id": 15, "name": "Station", "category_id": 2, "published": false})
	s.AddObject(typeEndpoint, 11, map[string]any{"type_id": 11, "name": "Planet (Temperate)", "group_id": 7, "published": false})
	s.AddObject(typeEndpoint, 1529, map[string]any{"type_id": 1529, "name": "Caldari Administrative Outpost", "group_id": 15, "published": false})

	// The Forge
	s.SetIDs("/universe/regions/", 10000002)
	s.AddObject(regionEndpoint, 10000002, map[string]any{
		"region_id": 10000002, "name": "The Forge", "description": "Caldari space", "constellations": []int{20000020},
	})
	s.AddObject(constellationEndpoint, 20000020, map[string]any{
		"constellation_id": 20000020, "name": "Kimotoro", "region_id": 10000002,
		"position": map[string]any{"x": -1, "y": 2, "z": 3},
		"systems":  []int{30000142},
	})
	s.AddObject(systemEndpoint, 30000142, map[string]any{
		"system_id": 30000142, "name": "Jita", "constellation_id": 20000020,
		"security_status": 0.9459, "star_id": 40009076,
		"position":  map[string]any{"x": -1.29e17, "y": 6.07e16, "z": 1.17e17},
		"planets":   []map[string]any{{"planet_id": 40009077, "moons": []int{40009078}}},
		"stations":  []int{60003760},
		"stargates": []int{},
	})
	s.AddObject(planetEndpoint, 40009077, map[string]any{
		"planet_id": 40009077, "name": "Jita I", "system_id": 30000142, "type_id": 11,
		"position": map[string]any{"x": 1, "y": 2, "z": 3},
	})
	s.AddObject(moonEndpoint, 40009078, map[string]any{
		"moon_id": 40009078, "name": "Jita I - Moon 1", "system_id": 30000142,
		"position": map[string]any{"x": 4, "y": 5, "z": 6},
	})
	s.AddObject(stationEndpoint, 60003760, map[string]any{
		"station_id": 60003760, "name": "Jita IV - Moon 4 - Caldari Navy Assembly Plant",
		"system_id": 30000142, "type_id": 1529, "race_id": 1, "owner": 1000035,
		"max_dockable_ship_volume": 50000000, "office_rental_cost": 10000,
		"reprocessing_efficiency": 0.5, "reprocessing_stations_take": 0.05,
		"services": []string{"bounty-missions", "courier-missions", "market"},
	})
	s.SetList("/universe/races/", map[string]any{
		"race_id": 1, "name": "Caldari", "alliance_id": 500001, "description": "Founded on the tenets of patriotism",
	})
	return s
}
