package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/eveuniverse/internal/db"
	"github.com/asteroid-belt/eveuniverse/internal/models"
	"github.com/asteroid-belt/eveuniverse/internal/schema"
	"github.com/asteroid-belt/eveuniverse/internal/sde"
)

func TestGetOrCreate_TypeCreatesGroupAndCategory(t *testing.T) {
	svc, database := testService(t, universe(), Config{})

	res, err := svc.GetOrCreate(context.Background(), schema.KindType, 603, Request{})
	require.NoError(t, err)
	assert.True(t, res.Created)

	typ, err := db.Get[models.EveType](database, 603)
	require.NoError(t, err)
	require.NotNil(t, typ)
	assert.Equal(t, "Merlin", typ.Name)
	assert.True(t, typ.Published)
	require.NotNil(t, typ.EveGroupID)
	assert.Equal(t, int64(25), *typ.EveGroupID)
	assert.Nil(t, typ.EveMarketGroupID, "market groups are not a default section")

	group, err := db.Get[models.EveGroup](database, 25)
	require.NoError(t, err)
	require.NotNil(t, group)
	require.NotNil(t, group.EveCategoryID)
	assert.Equal(t, int64(6), *group.EveCategoryID)

	category, err := db.Get[models.EveCategory](database, 6)
	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, "Ship", category.Name)
	assert.True(t, category.Published)

	assert.Equal(t, int64(1), count(t, database, schema.TableTypes))
	assert.Equal(t, int64(1), count(t, database, schema.TableGroups))
	assert.Equal(t, int64(1), count(t, database, schema.TableCategories))
}

func TestUpdateOrCreate_Idempotent(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	ctx := context.Background()

	first, err := svc.UpdateOrCreate(ctx, schema.KindType, 603, Request{})
	require.NoError(t, err)
	assert.True(t, first.Created)
	before, err := db.Get[models.EveType](database, 603)
	require.NoError(t, err)

	second, err := svc.UpdateOrCreate(ctx, schema.KindType, 603, Request{})
	require.NoError(t, err)
	assert.False(t, second.Created)
	after, err := db.Get[models.EveType](database, 603)
	require.NoError(t, err)

	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Published, after.Published)
	assert.Equal(t, before.EveGroupID, after.EveGroupID)
	assert.Equal(t, before.Mass, after.Mass)
	assert.False(t, after.LastUpdated.Before(before.LastUpdated))
	assert.Equal(t, int64(1), count(t, database, schema.TableTypes))
}

func TestGetOrCreate_ExistingSkipsRemote(t *testing.T) {
	stub := universe()
	svc, _ := testService(t, stub, Config{})
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, schema.KindType, 603, Request{})
	require.NoError(t, err)
	stub.ResetCalls()

	res, err := svc.GetOrCreate(ctx, schema.KindType, 603, Request{})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, 0, stub.TotalCalls())
}

func TestGetOrCreate_ForeignKeyClosure(t *testing.T) {
	svc, database := testService(t, universe(), Config{})

	_, err := svc.GetOrCreate(context.Background(), schema.KindSolarSystem, 30000142, Request{})
	require.NoError(t, err)

	system, err := db.Get[models.EveSolarSystem](database, 30000142)
	require.NoError(t, err)
	require.NotNil(t, system.EveConstellationID)
	assert.Equal(t, int64(20000020), *system.EveConstellationID)
	assert.Nil(t, system.EveStarID, "stars are not a default section")
	assert.InDelta(t, 0.9459, system.SecurityStatus, 1e-9)
	assert.True(t, system.IsHighSec())

	constellation, err := db.Get[models.EveConstellation](database, 20000020)
	require.NoError(t, err)
	require.NotNil(t, constellation)
	require.NotNil(t, constellation.EveRegionID)
	assert.Equal(t, int64(10000002), *constellation.EveRegionID)

	region, err := db.Get[models.EveRegion](database, 10000002)
	require.NoError(t, err)
	require.NotNil(t, region)
	assert.Equal(t, "The Forge", region.Name)

	assert.Equal(t, int64(0), count(t, database, schema.TablePlanets), "children need IncludeChildren")
}

func TestGetOrCreate_SectionDelta(t *testing.T) {
	stub := universe()
	svc, database := testService(t, stub, Config{})
	ctx := context.Background()

	res, err := svc.GetOrCreate(ctx, schema.KindType, 603, Request{})
	require.NoError(t, err)
	assert.Empty(t, res.Sections)
	assert.Equal(t, int64(0), count(t, database, schema.TableTypeAttributes))

	res, err = svc.GetOrCreate(ctx, schema.KindType, 603, Request{Sections: []string{schema.SectionDogmas}})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, []string{schema.SectionDogmas}, res.Sections)
	assert.Equal(t, int64(2), count(t, database, schema.TableTypeAttributes))
	assert.Equal(t, int64(1), count(t, database, schema.TableTypeEffects))
	assert.Equal(t, int64(1), count(t, database, schema.TableEffectModifiers))

	typ, err := db.Get[models.EveType](database, 603)
	require.NoError(t, err)
	assert.Equal(t, "Merlin", typ.Name)
	assert.Nil(t, typ.EveMarketGroupID)
	d, _ := svc.Registry().Lookup(schema.KindType)
	assert.True(t, typ.Loaded().Has(d.SectionSet(schema.SectionDogmas)))

	stub.ResetCalls()
	_, err = svc.GetOrCreate(ctx, schema.KindType, 603, Request{Sections: []string{schema.SectionDogmas}})
	require.NoError(t, err)
	assert.Equal(t, 0, stub.TotalCalls())

	// A different section only applies its own fields.
	_, err = svc.GetOrCreate(ctx, schema.KindType, 603, Request{Sections: []string{schema.SectionMarketGroups}})
	require.NoError(t, err)
	typ, err = db.Get[models.EveType](database, 603)
	require.NoError(t, err)
	require.NotNil(t, typ.EveMarketGroupID)
	assert.Equal(t, int64(61), *typ.EveMarketGroupID)
	assert.Equal(t, "Merlin", typ.Name)
	assert.True(t, typ.Loaded().Has(d.SectionSet(schema.SectionDogmas, schema.SectionMarketGroups)))
}

func TestDefaultSections(t *testing.T) {
	svc, database := testService(t, universe(), Config{DefaultSections: []string{schema.SectionDogmas}})

	res, err := svc.GetOrCreate(context.Background(), schema.KindType, 603, Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{schema.SectionDogmas}, res.Sections)
	assert.Equal(t, int64(2), count(t, database, schema.TableTypeAttributes))
}

func TestUpdateOrCreate_InlineRowsAreNotDuplicated(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	ctx := context.Background()
	req := Request{Sections: []string{schema.SectionDogmas}, Force: true}

	for range 2 {
		_, err := svc.UpdateOrCreate(ctx, schema.KindType, 603, req)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), count(t, database, schema.TableTypeAttributes))
	assert.Equal(t, int64(1), count(t, database, schema.TableTypeEffects))

	var hp models.EveTypeDogmaAttribute
	require.NoError(t, database.Where("eve_type_id = ? AND eve_dogma_attribute_id = ?", 603, 9).First(&hp).Error)
	assert.InDelta(t, 350, hp.Value, 1e-9)
}

func TestUpdateOrCreate_ListOnly(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	ctx := context.Background()

	_, err := svc.UpdateOrCreate(ctx, schema.KindRace, 1, Request{})
	require.NoError(t, err)
	race, err := db.Get[models.EveRace](database, 1)
	require.NoError(t, err)
	assert.Equal(t, "Caldari", race.Name)
	assert.Equal(t, int64(500001), race.AllianceID)

	_, err = svc.UpdateOrCreate(ctx, schema.KindRace, 99, Request{})
	assert.ErrorIs(t, err, ErrNotFound)
	var syncErr *SyncError
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, schema.KindRace, syncErr.Kind)
	assert.Equal(t, int64(99), syncErr.ID)

	missing, err := db.Get[models.EveRace](database, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateOrCreate_NotFound(t *testing.T) {
	svc, _ := testService(t, universe(), Config{})

	_, err := svc.UpdateOrCreate(context.Background(), schema.KindType, 999999, Request{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOrCreate_ForeignKeyNotFoundAborts(t *testing.T) {
	stub := universe()
	stub.AddObject(typeEndpoint, 700, map[string]any{"type_id": 700, "name": "Orphan", "group_id": 424242})
	svc, database := testService(t, stub, Config{})

	_, err := svc.UpdateOrCreate(context.Background(), schema.KindType, 700, Request{})
	assert.ErrorIs(t, err, ErrNotFound)

	orphan, err := db.Get[models.EveType](database, 700)
	require.NoError(t, err)
	assert.Nil(t, orphan)
}

func TestUnknownAndEnumerationKinds(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	ctx := context.Background()

	_, err := svc.UpdateOrCreate(ctx, schema.KindUnknown, 1, Request{})
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = svc.UpdateOrCreate(ctx, schema.KindUnit, 1, Request{})
	assert.ErrorIs(t, err, ErrNotSyncable)

	require.NoError(t, database.Create(&models.EveUnit{Entity: models.Entity{ID: 1, Name: "Length"}, DisplayName: "m"}).Error)
	res, err := svc.GetOrCreate(ctx, schema.KindUnit, 1, Request{})
	require.NoError(t, err)
	assert.False(t, res.Created)
}

func TestEnumerationForeignKeyLeftNull(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	ctx := context.Background()

	_, err := svc.GetOrCreate(ctx, schema.KindDogmaAttribute, 9, Request{})
	require.NoError(t, err)
	attr, err := db.Get[models.EveDogmaAttribute](database, 9)
	require.NoError(t, err)
	assert.Nil(t, attr.EveUnitID)

	require.NoError(t, database.Create(&models.EveUnit{Entity: models.Entity{ID: 1, Name: "Length"}}).Error)
	_, err = svc.UpdateOrCreate(ctx, schema.KindDogmaAttribute, 9, Request{})
	require.NoError(t, err)
	attr, err = db.Get[models.EveDogmaAttribute](database, 9)
	require.NoError(t, err)
	require.NotNil(t, attr.EveUnitID)
	assert.Equal(t, int64(1), *attr.EveUnitID)
}

func TestCycleTerminates(t *testing.T) {
	stub := universe()
	stub.AddObject(marketGroupEndpoint, 1, map[string]any{"market_group_id": 1, "name": "A", "description": "", "parent_group_id": 2})
	stub.AddObject(marketGroupEndpoint, 2, map[string]any{"market_group_id": 2, "name": "B", "description": "", "parent_group_id": 1})
	svc, database := testService(t, stub, Config{})

	_, err := svc.GetOrCreate(context.Background(), schema.KindMarketGroup, 1, Request{})
	require.NoError(t, err)

	a, err := db.Get[models.EveMarketGroup](database, 1)
	require.NoError(t, err)
	b, err := db.Get[models.EveMarketGroup](database, 2)
	require.NoError(t, err)
	require.NotNil(t, a.ParentMarketGroupID)
	assert.Equal(t, int64(2), *a.ParentMarketGroupID)
	assert.Nil(t, b.ParentMarketGroupID, "reference back to the record in flight is deferred")
	assert.Equal(t, 1, stub.Calls(marketGroupEndpoint, 1))
}

func TestSelfReferenceInInlineRow(t *testing.T) {
	stub := universe()
	stub.AddObject(effectEndpoint, 12, map[string]any{
		"effect_id": 12,
		"name":      "selfBoost",
		"modifiers": []map[string]any{{"func": "EffectStopper", "effect_id": 12}},
	})
	svc, database := testService(t, stub, Config{})

	_, err := svc.GetOrCreate(context.Background(), schema.KindDogmaEffect, 12, Request{})
	require.NoError(t, err)

	var mod models.EveDogmaEffectModifier
	require.NoError(t, database.Where("eve_dogma_effect_id = ?", 12).First(&mod).Error)
	assert.Equal(t, "EffectStopper", mod.Func)
	require.NotNil(t, mod.ModifyingEffectID)
	assert.Equal(t, int64(12), *mod.ModifyingEffectID)
}

func TestChildren_LoadedInline(t *testing.T) {
	svc, database := testService(t, universe(), Config{})

	_, err := svc.UpdateOrCreate(context.Background(), schema.KindRegion, 10000002,
		Request{IncludeChildren: true, WaitForChildren: true})
	require.NoError(t, err)

	assert.Equal(t, int64(1), count(t, database, schema.TableConstellations))
	assert.Equal(t, int64(1), count(t, database, schema.TableSolarSystems))
	assert.Equal(t, int64(0), count(t, database, schema.TablePlanets), "planets is a section")
}

func TestChildren_Enqueued(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	q := &fakeQueue{}
	svc.UseQueue(q)

	req := Request{IncludeChildren: true, Sections: []string{schema.SectionDogmas}}
	_, err := svc.UpdateOrCreate(context.Background(), schema.KindCategory, 6, req)
	require.NoError(t, err)

	assert.Equal(t, []key{{kind: schema.KindGroup, id: 25}}, q.tasks)
	assert.Equal(t, req, q.reqs[0])
	assert.Equal(t, int64(0), count(t, database, schema.TableGroups))
}

func TestChildren_WithoutQueueFallBackToInline(t *testing.T) {
	svc, database := testService(t, universe(), Config{})

	_, err := svc.UpdateOrCreate(context.Background(), schema.KindCategory, 6, Request{IncludeChildren: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count(t, database, schema.TableGroups))
	assert.Equal(t, int64(1), count(t, database, schema.TableTypes))
}

func TestSolarSystemSections(t *testing.T) {
	stub := universe()
	svc, database := testService(t, stub, Config{DefaultSections: []string{schema.SectionPlanets}})
	ctx := context.Background()

	// Child sections need IncludeChildren.
	res, err := svc.GetOrCreate(ctx, schema.KindSolarSystem, 30000142, Request{})
	require.NoError(t, err)
	assert.Empty(t, res.Sections)
	assert.Equal(t, int64(0), count(t, database, schema.TablePlanets))

	res, err = svc.GetOrCreate(ctx, schema.KindSolarSystem, 30000142, Request{IncludeChildren: true, WaitForChildren: true})
	require.NoError(t, err)
	assert.Equal(t, []string{schema.SectionPlanets}, res.Sections)
	assert.Equal(t, int64(1), count(t, database, schema.TablePlanets))
	assert.Equal(t, int64(0), count(t, database, schema.TableMoons))
	assert.Equal(t, int64(0), count(t, database, schema.TableStations))

	res, err = svc.GetOrCreate(ctx, schema.KindPlanet, 40009077,
		Request{IncludeChildren: true, WaitForChildren: true, Sections: []string{schema.SectionMoons}})
	require.NoError(t, err)
	assert.Equal(t, []string{schema.SectionMoons}, res.Sections)

	moon, err := db.Get[models.EveMoon](database, 40009078)
	require.NoError(t, err)
	require.NotNil(t, moon)
	require.NotNil(t, moon.EvePlanetID)
	assert.Equal(t, int64(40009077), *moon.EvePlanetID)
}

func TestStationServices(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	ctx := context.Background()

	for range 2 {
		_, err := svc.UpdateOrCreate(ctx, schema.KindStation, 60003760, Request{})
		require.NoError(t, err)
	}

	var station models.EveStation
	require.NoError(t, database.Preload("Services").First(&station, 60003760).Error)
	assert.Len(t, station.Services, 3)
	require.NotNil(t, station.OwnerID)
	assert.Equal(t, int64(1000035), *station.OwnerID)
	require.NotNil(t, station.EveRaceID)
	assert.Equal(t, int64(1), *station.EveRaceID)
	assert.Equal(t, int64(3), count(t, database, schema.TableStationServices))
	assert.Equal(t, int64(3), count(t, database, schema.TableStationServiceMap))
}

func TestTypeMaterials(t *testing.T) {
	materials := fakeMaterials{603: {
		{TypeID: 603, MaterialTypeID: 34, Quantity: 100},
		{TypeID: 603, MaterialTypeID: 35, Quantity: 50},
	}}
	svc, database := testService(t, universe(), Config{Materials: materials})

	_, err := svc.GetOrCreate(context.Background(), schema.KindType, 603, Request{Sections: []string{schema.SectionTypeMaterials}})
	require.NoError(t, err)

	var rows []models.EveTypeMaterial
	require.NoError(t, database.Where("eve_type_id = ?", 603).Order("material_eve_type_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(34), rows[0].MaterialEveTypeID)
	assert.Equal(t, int64(100), rows[0].Quantity)

	tritanium, err := db.Get[models.EveType](database, 34)
	require.NoError(t, err)
	assert.NotNil(t, tritanium, "material types are created")
}

func TestLoadAll(t *testing.T) {
	stub := universe()
	stub.SetIDs("/universe/regions/", 10000001, 10000002)
	svc, database := testService(t, stub, Config{})
	q := &fakeQueue{}
	svc.UseQueue(q)
	ctx := context.Background()

	n, err := svc.LoadAll(ctx, schema.KindRegion, nil, Request{IncludeChildren: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, q.tasks, 2)
	assert.Equal(t, int64(0), count(t, database, schema.TableRegions))

	n, err = svc.LoadAll(ctx, schema.KindRegion, []int64{10000002, 99}, Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, key{kind: schema.KindRegion, id: 10000002}, q.tasks[2])

	_, err = svc.LoadAll(ctx, schema.KindUnit, nil, Request{})
	assert.ErrorIs(t, err, ErrNotSyncable)
}

func TestLoadAll_ListOnly(t *testing.T) {
	stub := universe()
	stub.SetList("/universe/races/",
		map[string]any{"race_id": 1, "name": "Caldari", "alliance_id": 500001, "description": "Founded on the tenets of patriotism"},
		map[string]any{"race_id": 2, "name": "Minmatar", "alliance_id": 500002, "description": "Once a thriving tribal civilization"},
	)
	svc, database := testService(t, stub, Config{})
	q := &fakeQueue{}
	svc.UseQueue(q)
	ctx := context.Background()

	n, err := svc.LoadAll(ctx, schema.KindRace, nil, Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, q.tasks, "list items are stored inline")
	assert.Equal(t, int64(2), count(t, database, schema.TableRaces))
	assert.Equal(t, 1, stub.CallsTo("/universe/races/"))

	race, err := db.Get[models.EveRace](database, 2)
	require.NoError(t, err)
	require.NotNil(t, race)
	assert.Equal(t, "Minmatar", race.Name)

	// A second run updates in place.
	n, err = svc.LoadAll(ctx, schema.KindRace, []int64{1}, Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), count(t, database, schema.TableRaces))
}

func TestLoadTypes(t *testing.T) {
	svc, database := testService(t, universe(), Config{})
	q := &fakeQueue{}
	svc.UseQueue(q)

	err := svc.LoadTypes(context.Background(), []int64{6}, []int64{18}, []int64{34}, Request{})
	require.NoError(t, err)

	assert.Equal(t, []key{
		{kind: schema.KindCategory, id: 6},
		{kind: schema.KindGroup, id: 18},
		{kind: schema.KindType, id: 34},
	}, q.tasks)
	assert.True(t, q.reqs[0].IncludeChildren)
	assert.True(t, q.reqs[1].IncludeChildren)
	assert.False(t, q.reqs[2].IncludeChildren)
	assert.Equal(t, int64(0), count(t, database, schema.TableTypes))
}

func TestUnitConversions(t *testing.T) {
	assert.InDelta(t, 1.0, LightYears(MetersPerLightYear), 1e-12)
	assert.InDelta(t, 2.0, AU(2*MetersPerAU), 1e-12)
}

func TestRouteAndDistance(t *testing.T) {
	stub := universe()
	stub.SetRoute(30000142, 30000142, 30000142)
	svc, _ := testService(t, stub, Config{})
	ctx := context.Background()

	jumps, ok, err := svc.Jumps(ctx, 30000142, 30000142)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, jumps)

	_, ok, err = svc.Jumps(ctx, 30000142, 31000005)
	require.NoError(t, err)
	assert.False(t, ok)

	d, ok, err := svc.Distance(ctx, 30000142, 30000142)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, d)
}

var _ MaterialSource = (*sde.Source)(nil)
