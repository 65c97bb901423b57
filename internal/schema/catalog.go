package schema

// Table names shared with internal/models.
const (
	TableAncestries        = "eve_ancestries"
	TableAsteroidBelts     = "eve_asteroid_belts"
	TableBloodlines        = "eve_bloodlines"
	TableCategories        = "eve_categories"
	TableConstellations    = "eve_constellations"
	TableDogmaAttributes   = "eve_dogma_attributes"
	TableDogmaEffects      = "eve_dogma_effects"
	TableEffectModifiers   = "eve_dogma_effect_modifiers"
	TableFactions          = "eve_factions"
	TableGraphics          = "eve_graphics"
	TableGroups            = "eve_groups"
	TableMarketGroups      = "eve_market_groups"
	TableMoons             = "eve_moons"
	TablePlanets           = "eve_planets"
	TableRaces             = "eve_races"
	TableRegions           = "eve_regions"
	TableSolarSystems      = "eve_solar_systems"
	TableStars             = "eve_stars"
	TableStargates         = "eve_stargates"
	TableStations          = "eve_stations"
	TableStationServices   = "eve_station_services"
	TableStationServiceMap = "eve_station_service_links"
	TableTypes             = "eve_types"
	TableTypeAttributes    = "eve_type_dogma_attributes"
	TableTypeEffects       = "eve_type_dogma_effects"
	TableTypeMaterials     = "eve_type_materials"
	TableUnits             = "eve_units"
)

func scalar(column string, remote ...string) Field {
	return Field{Column: column, Remote: remote}
}

func optional(column string, remote ...string) Field {
	return Field{Column: column, Remote: remote, Optional: true}
}

func text(column string, remote ...string) Field {
	return Field{Column: column, Remote: remote, Kind: Text}
}

func optionalText(column string, remote ...string) Field {
	return Field{Column: column, Remote: remote, Kind: Text, Optional: true}
}

func fk(column string, target Kind, remote ...string) Field {
	return Field{Column: column, Remote: remote, Kind: ForeignKey, Target: target}
}

func optionalFK(column string, target Kind, remote ...string) Field {
	return Field{Column: column, Remote: remote, Kind: ForeignKey, Target: target, Optional: true}
}

func name() Field { return text("name") }

func position() []Field {
	return []Field{
		optional("position_x", "position", "x"),
		optional("position_y", "position", "y"),
		optional("position_z", "position", "z"),
	}
}

func fields(groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func gated(f Field, section string) Field {
	f.Section = section
	return f
}

// Catalog returns the descriptors of every entity type.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Kind:        KindUnit,
			Table:       TableUnits,
			IDField:     "unit_id",
			Enumeration: true,
			Fields:      []Field{name(), optionalText("display_name"), optionalText("description")},
		},
		{
			Kind:           KindGraphic,
			Table:          TableGraphics,
			IDField:        "graphic_id",
			ListEndpoint:   "/universe/graphics/",
			ObjectEndpoint: "/universe/graphics/{id}/",
			Fields: []Field{
				name(),
				optionalText("collision_file"),
				optionalText("graphic_file"),
				optionalText("icon_folder"),
				optionalText("sof_dna"),
				optionalText("sof_fation_name"),
				optionalText("sof_hull_name"),
				optionalText("sof_race_name"),
			},
		},
		{
			Kind:           KindCategory,
			Table:          TableCategories,
			IDField:        "category_id",
			ListEndpoint:   "/universe/categories/",
			ObjectEndpoint: "/universe/categories/{id}/",
			Fields:         []Field{name(), scalar("published")},
			ChildRelations: []Child{{Key: "groups", Target: KindGroup}},
		},
		{
			Kind:           KindGroup,
			Table:          TableGroups,
			IDField:        "group_id",
			ListEndpoint:   "/universe/groups/",
			ObjectEndpoint: "/universe/groups/{id}/",
			Fields: []Field{
				name(),
				fk("eve_category_id", KindCategory, "category_id"),
				scalar("published"),
			},
			ChildRelations: []Child{{Key: "types", Target: KindType}},
		},
		{
			Kind:           KindType,
			Table:          TableTypes,
			IDField:        "type_id",
			ListEndpoint:   "/universe/types/",
			ObjectEndpoint: "/universe/types/{id}/",
			Sections: []Section{
				{Name: SectionDogmas},
				{Name: SectionGraphics},
				{Name: SectionMarketGroups},
				{Name: SectionTypeMaterials, Dataset: DatasetTypeMaterials},
			},
			Fields: []Field{
				name(),
				optionalText("description"),
				optional("capacity"),
				fk("eve_group_id", KindGroup, "group_id"),
				gated(optionalFK("eve_graphic_id", KindGraphic, "graphic_id"), SectionGraphics),
				optional("icon_id"),
				gated(optionalFK("eve_market_group_id", KindMarketGroup, "market_group_id"), SectionMarketGroups),
				optional("mass"),
				optional("packaged_volume"),
				optional("portion_size"),
				optional("radius"),
				scalar("published"),
				optional("volume"),
			},
			Inlines: []Inline{
				{
					Key:          "dogma_attributes",
					Table:        TableTypeAttributes,
					ParentColumn: "eve_type_id",
					KeyField:     fk("eve_dogma_attribute_id", KindDogmaAttribute, "attribute_id"),
					Fields:       []Field{scalar("value")},
					Section:      SectionDogmas,
				},
				{
					Key:          "dogma_effects",
					Table:        TableTypeEffects,
					ParentColumn: "eve_type_id",
					KeyField:     fk("eve_dogma_effect_id", KindDogmaEffect, "effect_id"),
					Fields:       []Field{scalar("is_default")},
					Section:      SectionDogmas,
				},
			},
		},
		{
			Kind:           KindMarketGroup,
			Table:          TableMarketGroups,
			IDField:        "market_group_id",
			ListEndpoint:   "/markets/groups/",
			ObjectEndpoint: "/markets/groups/{id}/",
			Fields: []Field{
				name(),
				text("description"),
				optionalFK("parent_market_group_id", KindMarketGroup, "parent_group_id"),
			},
			ChildRelations: []Child{{Key: "types", Target: KindType}},
		},
		{
			Kind:           KindDogmaAttribute,
			Table:          TableDogmaAttributes,
			IDField:        "attribute_id",
			ListEndpoint:   "/dogma/attributes/",
			ObjectEndpoint: "/dogma/attributes/{id}/",
			Fields: []Field{
				name(),
				optionalFK("eve_unit_id", KindUnit, "unit_id"),
				optional("default_value"),
				optionalText("description"),
				optionalText("display_name"),
				optional("high_is_good"),
				optional("icon_id"),
				optional("published"),
				optional("stackable"),
			},
		},
		{
			Kind:           KindDogmaEffect,
			Table:          TableDogmaEffects,
			IDField:        "effect_id",
			ListEndpoint:   "/dogma/effects/",
			ObjectEndpoint: "/dogma/effects/{id}/",
			Fields: []Field{
				name(),
				optionalText("description"),
				optional("disallow_auto_repeat"),
				optionalFK("discharge_attribute_id", KindDogmaAttribute),
				optionalText("display_name"),
				optionalFK("duration_attribute_id", KindDogmaAttribute),
				optional("effect_category"),
				optional("electronic_chance"),
				optionalFK("falloff_attribute_id", KindDogmaAttribute),
				optional("icon_id"),
				optional("is_assistance"),
				optional("is_offensive"),
				optional("is_warp_safe"),
				optional("post_expression"),
				optional("pre_expression"),
				optional("published"),
				optionalFK("range_attribute_id", KindDogmaAttribute),
				optional("range_chance"),
				optionalFK("tracking_speed_attribute_id", KindDogmaAttribute),
			},
			Inlines: []Inline{
				{
					Key:          "modifiers",
					Table:        TableEffectModifiers,
					ParentColumn: "eve_dogma_effect_id",
					KeyField:     text("func"),
					Fields: []Field{
						optionalText("domain"),
						optionalFK("modified_attribute_id", KindDogmaAttribute),
						optionalFK("modifying_attribute_id", KindDogmaAttribute),
						optionalFK("modifying_effect_id", KindDogmaEffect, "effect_id"),
						optional("operator"),
					},
				},
			},
		},
		{
			Kind:         KindRace,
			Table:        TableRaces,
			IDField:      "race_id",
			ListEndpoint: "/universe/races/",
			Fields:       []Field{name(), scalar("alliance_id"), text("description")},
		},
		{
			Kind:           KindBloodline,
			Table:          TableBloodlines,
			IDField:        "bloodline_id",
			ListEndpoint:   "/universe/bloodlines/",
			ObjectEndpoint: "/universe/bloodlines/",
			Fields: []Field{
				name(),
				optionalFK("eve_race_id", KindRace, "race_id"),
				fk("eve_ship_type_id", KindType, "ship_type_id"),
				scalar("charisma"),
				scalar("corporation_id"),
				text("description"),
				scalar("intelligence"),
				scalar("memory"),
				scalar("perception"),
				scalar("willpower"),
			},
		},
		{
			Kind:         KindAncestry,
			Table:        TableAncestries,
			IDField:      "id",
			ListEndpoint: "/universe/ancestries/",
			Fields: []Field{
				name(),
				fk("eve_bloodline_id", KindBloodline, "bloodline_id"),
				text("description"),
				optional("icon_id"),
				optionalText("short_description"),
			},
		},
		{
			Kind:         KindFaction,
			Table:        TableFactions,
			IDField:      "faction_id",
			ListEndpoint: "/universe/factions/",
			Fields: []Field{
				name(),
				optional("corporation_id"),
				text("description"),
				optionalFK("eve_solar_system_id", KindSolarSystem, "solar_system_id"),
				scalar("is_unique"),
				optional("militia_corporation_id"),
				scalar("size_factor"),
				scalar("station_count"),
				scalar("station_system_count"),
			},
		},
		{
			Kind:           KindRegion,
			Table:          TableRegions,
			IDField:        "region_id",
			ListEndpoint:   "/universe/regions/",
			ObjectEndpoint: "/universe/regions/{id}/",
			Fields:         []Field{name(), optionalText("description")},
			ChildRelations: []Child{{Key: "constellations", Target: KindConstellation}},
		},
		{
			Kind:           KindConstellation,
			Table:          TableConstellations,
			IDField:        "constellation_id",
			ListEndpoint:   "/universe/constellations/",
			ObjectEndpoint: "/universe/constellations/{id}/",
			Fields: fields(
				[]Field{name(), fk("eve_region_id", KindRegion, "region_id")},
				position(),
			),
			ChildRelations: []Child{{Key: "systems", Target: KindSolarSystem}},
		},
		{
			Kind:           KindSolarSystem,
			Table:          TableSolarSystems,
			IDField:        "system_id",
			ListEndpoint:   "/universe/systems/",
			ObjectEndpoint: "/universe/systems/{id}/",
			Sections: []Section{
				{Name: SectionPlanets},
				{Name: SectionStargates},
				{Name: SectionStars},
				{Name: SectionStations},
			},
			Fields: fields(
				[]Field{
					name(),
					fk("eve_constellation_id", KindConstellation, "constellation_id"),
					gated(optionalFK("eve_star_id", KindStar, "star_id"), SectionStars),
					scalar("security_status"),
				},
				position(),
			),
			ChildRelations: []Child{
				{Key: "planets", Target: KindPlanet, IDField: "planet_id", Section: SectionPlanets},
				{Key: "stargates", Target: KindStargate, Section: SectionStargates},
				{Key: "stations", Target: KindStation, Section: SectionStations},
			},
		},
		{
			Kind:           KindStar,
			Table:          TableStars,
			IDField:        "star_id",
			ObjectEndpoint: "/universe/stars/{id}/",
			Fields: []Field{
				name(),
				scalar("age"),
				fk("eve_type_id", KindType, "type_id"),
				scalar("luminosity"),
				scalar("radius"),
				text("spectral_class"),
				scalar("temperature"),
			},
		},
		{
			Kind:           KindPlanet,
			Table:          TablePlanets,
			IDField:        "planet_id",
			ObjectEndpoint: "/universe/planets/{id}/",
			Enrich:         EnrichPlanetChildren,
			Sections: []Section{
				{Name: SectionAsteroidBelts},
				{Name: SectionMoons},
			},
			Fields: fields(
				[]Field{
					name(),
					fk("eve_solar_system_id", KindSolarSystem, "system_id"),
					fk("eve_type_id", KindType, "type_id"),
				},
				position(),
			),
			ChildRelations: []Child{
				{Key: "asteroid_belts", Target: KindAsteroidBelt, Section: SectionAsteroidBelts},
				{Key: "moons", Target: KindMoon, Section: SectionMoons},
			},
		},
		{
			Kind:           KindMoon,
			Table:          TableMoons,
			IDField:        "moon_id",
			ObjectEndpoint: "/universe/moons/{id}/",
			Enrich:         EnrichParentPlanet,
			PlanetListKey:  "moons",
			Fields: fields(
				[]Field{name(), fk("eve_planet_id", KindPlanet, "planet_id")},
				position(),
			),
		},
		{
			Kind:           KindAsteroidBelt,
			Table:          TableAsteroidBelts,
			IDField:        "asteroid_belt_id",
			ObjectEndpoint: "/universe/asteroid_belts/{id}/",
			Enrich:         EnrichParentPlanet,
			PlanetListKey:  "asteroid_belts",
			Fields: fields(
				[]Field{name(), fk("eve_planet_id", KindPlanet, "planet_id")},
				position(),
			),
		},
		{
			Kind:           KindStargate,
			Table:          TableStargates,
			IDField:        "stargate_id",
			ObjectEndpoint: "/universe/stargates/{id}/",
			Fields: fields(
				[]Field{
					name(),
					{
						Column: "destination_eve_stargate_id", Remote: []string{"destination", "stargate_id"},
						Kind: ForeignKey, Target: KindStargate, Optional: true, DontCreate: true,
					},
					{
						Column: "destination_eve_solar_system_id", Remote: []string{"destination", "system_id"},
						Kind: ForeignKey, Target: KindSolarSystem, Optional: true, DontCreate: true,
					},
					fk("eve_solar_system_id", KindSolarSystem, "system_id"),
					fk("eve_type_id", KindType, "type_id"),
				},
				position(),
			),
		},
		{
			Kind:           KindStation,
			Table:          TableStations,
			IDField:        "station_id",
			ObjectEndpoint: "/universe/stations/{id}/",
			Fields: fields(
				[]Field{
					name(),
					optionalFK("eve_race_id", KindRace, "race_id"),
					fk("eve_solar_system_id", KindSolarSystem, "system_id"),
					fk("eve_type_id", KindType, "type_id"),
					scalar("max_dockable_ship_volume"),
					scalar("office_rental_cost"),
					optional("owner_id", "owner"),
					scalar("reprocessing_efficiency"),
					scalar("reprocessing_stations_take"),
				},
				position(),
			),
			Inlines: []Inline{
				{
					Key:          "services",
					Table:        TableStationServices,
					Shape:        InlineNames,
					ParentColumn: "eve_station_id",
					JoinTable:    TableStationServiceMap,
					JoinColumn:   "eve_station_service_id",
				},
			},
		},
	}
}
