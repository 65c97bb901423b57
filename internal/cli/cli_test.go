package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/eveuniverse/internal/cache"
	"github.com/asteroid-belt/eveuniverse/internal/config"
	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/esi"
	"github.com/asteroid-belt/eveuniverse/internal/esi/esitest"
	"github.com/asteroid-belt/eveuniverse/internal/models"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/sde"
	"github.com/asteroid-belt/eveuniverse/internal/syncer"
)

func testUniverse() *esitest.Stub {
	s := esitest.New()

	s.SetIDs("/universe/regions/", 10000002)
	s.AddObject("/universe/regions/{id}/", 10000002, map[string]any{
		"region_id": 10000002, "name": "The Forge", "constellations": []int{20000020},
	})
	s.AddObject("/universe/constellations/{id}/", 20000020, map[string]any{
		"constellation_id": 20000020, "name": "Kimotoro", "region_id": 10000002,
		"position": map[string]any{"x": 0, "y": 0, "z": 0},
		"systems":  []int{30000142, 30000144},
	})
	s.AddObject("/universe/systems/{id}/", 30000142, map[string]any{
		"system_id": 30000142, "name": "Jita", "constellation_id": 20000020, "security_status": 0.9,
		"position": map[string]any{"x": 0, "y": 0, "z": 0},
	})
	s.AddObject("/universe/systems/{id}/", 30000144, map[string]any{
		"system_id": 30000144, "name": "Perimeter", "constellation_id": 20000020, "security_status": 0.9,
		"position": map[string]any{"x": syncer.MetersPerLightYear, "y": 0, "z": 0},
	})

	s.AddObject("/universe/categories/{id}/", 4, map[string]any{"category_id": 4, "name": "Material", "published": true, "groups": []int{18}})
	s.AddObject("/universe/groups/{id}/", 18, map[string]any{"group_id": 18, "name": "Mineral", "category_id": 4, "published": true, "types": []int{34, 35}})
	s.AddObject("/universe/types/{id}/", 34, map[string]any{"type_id": 34, "name": "Tritanium", "group_id": 18, "published": true})
	s.AddObject("/universe/types/{id}/", 35, map[string]any{"type_id": 35, "name": "Pyerite", "group_id": 18, "published": true})

	s.AddName(30000142, "Jita", models.CategorySolarSystem)
	s.AddName(30000144, "Perimeter", models.CategorySolarSystem)
	s.AddName(34, "Tritanium", models.CategoryInventoryType)
	s.SetRoute(30000142, 30000144, 30000142, 30000144)

	avg := 5.0
	s.SetPrices(
		esi.MarketPrice{TypeID: 34, AveragePrice: &avg},
		esi.MarketPrice{TypeID: 99999, AveragePrice: &avg},
	)
	return s
}

// testApp wires an App against the stub and installs it for the commands.
func testApp(t *testing.T, stub *esitest.Stub, withQueue bool) *App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.Cache.Backend = cache.BackendMemory

	database, err := db.New(db.DefaultConfig(filepath.Join(cfg.BaseDir, "test.db")))
	require.NoError(t, err)

	a, err := newApp(t.Context(), cfg, database, stub, cache.NewMemory(), withQueue)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := a.Close(); err != nil {
			t.Logf("Failed to close app: %v", err)
		}
	})
	app = a
	return a
}

// run executes the root command with args, feeding input to prompts.
func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(input))
	// Subcommands keep the first context they were given.
	for _, c := range rootCmd.Commands() {
		c.SetContext(t.Context())
	}
	err := rootCmd.ExecuteContext(t.Context())
	return out.String(), err
}

func resetFlags() {
	loadForce, loadWait = false, false
	loadTypesForce = false
	loadTypesCategories, loadTypesGroups, loadTypesTypes = nil, nil, nil
	purgeForce = false
	getRefresh, getChildren, getSections = false, false, nil
	pricesForce = false
	statsFailed = 5
}

func count(t *testing.T, a *App, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.DB.Table(table).Count(&n).Error)
	return n
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "eveuniverse", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"load", "load-all", "load-types", "load-units", "purge", "get", "resolve", "prices", "route", "stats"} {
		assert.Contains(t, names, want)
	}
}

func TestForceFlags(t *testing.T) {
	for _, cmd := range []*cobra.Command{loadCmd, loadTypesCmd, purgeCmd} {
		flag := cmd.Flags().Lookup("force")
		require.NotNil(t, flag, cmd.Name())
		assert.Equal(t, "f", flag.Shorthand)
		assert.Equal(t, "false", flag.DefValue)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"Yes\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			cmd := &cobra.Command{}
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetIn(strings.NewReader(tt.input))

			assert.Equal(t, tt.want, confirm(cmd, "Continue?"))
			assert.Contains(t, out.String(), "Continue? [y/N]: ")
		})
	}
}

func TestGet_CreatesRecordWithForeignKeys(t *testing.T) {
	a := testApp(t, testUniverse(), false)

	out, err := run(t, "", "get", "type", "34")
	require.NoError(t, err)

	assert.Contains(t, out, "EveType 34 created")
	assert.Contains(t, out, `"name": "Tritanium"`)
	assert.Equal(t, int64(1), count(t, a, schema.TableGroups))
	assert.Equal(t, int64(1), count(t, a, schema.TableCategories))

	out, err = run(t, "", "get", "EveType", "34")
	require.NoError(t, err)
	assert.Contains(t, out, "EveType 34 loaded")
}

func TestGet_Children(t *testing.T) {
	a := testApp(t, testUniverse(), false)

	_, err := run(t, "", "get", "constellation", "20000020", "--children")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count(t, a, schema.TableSolarSystems))
}

func TestGet_InvalidArgs(t *testing.T) {
	testApp(t, testUniverse(), false)

	_, err := run(t, "", "get", "spaceship", "1")
	assert.Error(t, err)

	_, err = run(t, "", "get", "type", "abc")
	assert.ErrorContains(t, err, "invalid id")

	_, err = run(t, "", "get", "type", "-4")
	assert.ErrorContains(t, err, "invalid id")
}

func TestGet_NotFound(t *testing.T) {
	testApp(t, testUniverse(), false)

	_, err := run(t, "", "get", "type", "424242")
	assert.ErrorIs(t, err, syncer.ErrNotFound)
}

func TestLoadTypes_NoIDs(t *testing.T) {
	a := testApp(t, testUniverse(), false)

	out, err := run(t, "", "load-types")
	require.NoError(t, err)
	assert.Contains(t, out, "No ids given")
	assert.Equal(t, int64(0), count(t, a, schema.TableTypes))
}

func TestLoadTypes_Declined(t *testing.T) {
	a := testApp(t, testUniverse(), false)

	out, err := run(t, "n\n", "load-types", "--category-id", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Categories: 4")
	assert.Contains(t, out, "Aborting.")
	assert.Equal(t, int64(0), count(t, a, schema.TableCategories))
}

func TestLoadTypes_ReportsExtraSections(t *testing.T) {
	a := testApp(t, testUniverse(), false)
	a.Config.Sections.Dogmas = true
	a.Config.Sections.Planets = true

	out, err := run(t, "n\n", "load-types", "--type-id", "34")
	require.NoError(t, err)
	assert.Contains(t, out, "Also loading: dogmas")
	assert.NotContains(t, out, "planets")
}

func TestLoadTypes_Inline(t *testing.T) {
	a := testApp(t, testUniverse(), false)

	out, err := run(t, "", "load-types", "--force", "--category-id", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Types loaded.")
	assert.Equal(t, int64(2), count(t, a, schema.TableTypes))

	last, err := a.DB.GetSyncTime(models.SyncMetaLastTypesLoad)
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestLoad_ThroughQueue(t *testing.T) {
	a := testApp(t, testUniverse(), true)

	out, err := run(t, "y\n", "load")
	require.NoError(t, err)
	assert.Contains(t, out, "Loading 1 regions")
	assert.Contains(t, out, "Map loaded.")

	assert.Equal(t, int64(1), count(t, a, schema.TableRegions))
	assert.Equal(t, int64(1), count(t, a, schema.TableConstellations))
	assert.Equal(t, int64(2), count(t, a, schema.TableSolarSystems))
	assert.Equal(t, 0, a.Queue.Pending())
}

func TestPurge(t *testing.T) {
	a := testApp(t, testUniverse(), false)
	_, err := run(t, "", "load-types", "-f", "--group-id", "18")
	require.NoError(t, err)
	require.Equal(t, int64(2), count(t, a, schema.TableTypes))

	out, err := run(t, "no\n", "purge")
	require.NoError(t, err)
	assert.Contains(t, out, "Records: 4")
	assert.Contains(t, out, "Aborting.")
	assert.Equal(t, int64(2), count(t, a, schema.TableTypes))

	out, err = run(t, "", "purge", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "purged")
	assert.Equal(t, int64(0), count(t, a, schema.TableTypes))
	assert.Equal(t, int64(0), count(t, a, schema.TableGroups))

	last, err := a.DB.GetSyncTime(models.SyncMetaLastTypesLoad)
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}

func TestLoadAll_ListOnlyKind(t *testing.T) {
	stub := testUniverse()
	stub.SetList("/universe/factions/",
		map[string]any{"faction_id": 500001, "name": "Caldari State", "description": "", "is_unique": true,
			"size_factor": 5, "station_count": 1503, "station_system_count": 503},
		map[string]any{"faction_id": 500002, "name": "Minmatar Republic", "description": "", "is_unique": true,
			"size_factor": 5, "station_count": 570, "station_system_count": 291},
	)
	a := testApp(t, stub, true)

	out, err := run(t, "", "load-all", "faction")
	require.NoError(t, err)
	assert.Contains(t, out, "Loading 2 EveFaction records")
	assert.Equal(t, int64(2), count(t, a, schema.TableFactions))

	_, err = run(t, "", "load-all", "faction", "x")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	a := testApp(t, testUniverse(), false)

	out, err := run(t, "", "resolve", "30000142", "34", "777")
	require.NoError(t, err)
	assert.Contains(t, out, "Jita")
	assert.Contains(t, out, "Tritanium")
	assert.Contains(t, out, "(unknown)")
	assert.Equal(t, int64(2), count(t, a, "eve_entities"))
}

func TestPrices(t *testing.T) {
	a := testApp(t, testUniverse(), false)
	_, err := run(t, "", "get", "type", "34")
	require.NoError(t, err)

	out, err := run(t, "", "prices")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated 1 prices")

	out, err = run(t, "", "prices")
	require.NoError(t, err)
	assert.Contains(t, out, "Prices are current.")

	p, err := a.DB.GetMarketPrice(34)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, 5.0, *p.AveragePrice, 1e-9)
}

func TestRoute(t *testing.T) {
	testApp(t, testUniverse(), false)

	out, err := run(t, "", "route", "30000142", "30000144")
	require.NoError(t, err)
	assert.Contains(t, out, "Jumps: 1")
	assert.Contains(t, out, "Jita → Perimeter")
	assert.Contains(t, out, "Distance: 1.00 ly")
}

func TestRoute_NoRoute(t *testing.T) {
	testApp(t, testUniverse(), false)

	out, err := run(t, "", "route", "30000144", "30000142")
	require.NoError(t, err)
	assert.Contains(t, out, "No route")
}

func TestStats(t *testing.T) {
	a := testApp(t, testUniverse(), false)
	_, err := run(t, "", "get", "type", "35")
	require.NoError(t, err)
	require.NoError(t, a.DB.RecordFailedTask(&models.FailedTask{
		ID: "b1f4c7a2-0000-4000-8000-000000000001", Kind: "EveType", EntityID: 99, Error: "boom",
	}))

	out, err := run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, schema.TableTypes)
	assert.Contains(t, out, "Failed tasks: 1")
	assert.Contains(t, out, "EveType 99: boom")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "schema_version:")
}

func TestLoadUnits_LinksAttributes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"unitID":1,"unitName":"Length","displayName":"m","description":"Meter"}]`))
	}))
	t.Cleanup(srv.Close)

	stub := testUniverse()
	stub.AddObject("/dogma/attributes/{id}/", 9, map[string]any{"attribute_id": 9, "name": "hp", "unit_id": 1})
	a := testApp(t, stub, false)
	a.SDE = sde.New(sde.Config{UnitsURL: srv.URL}, nil)

	out, err := run(t, "", "load-units")
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 1 units")

	_, err = run(t, "", "get", "dogma_attribute", "9")
	require.NoError(t, err)
	attr, err := db.Get[models.EveDogmaAttribute](a.DB, 9)
	require.NoError(t, err)
	require.NotNil(t, attr)
	require.NotNil(t, attr.EveUnitID)
	assert.Equal(t, int64(1), *attr.EveUnitID)
}

func TestProgressBar(t *testing.T) {
	bar := NewProgressBar(0, 10)
	assert.Empty(t, bar.Render())

	bar.Update(5, 10, "5 pending")
	out := bar.Render()
	assert.Contains(t, out, "5/10")
	assert.Contains(t, out, "5 pending")

	bar.Update(-1, 3, "")
	assert.Contains(t, bar.Render(), "0/3")
}
