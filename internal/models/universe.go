package models

import (
	"math"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// EveRace is a playable race.
type EveRace struct {
	Entity
	AllianceID  int64  `gorm:"index" json:"alliance_id"`
	Description string `gorm:"type:text" json:"description"`
}

func (EveRace) TableName() string { return schema.TableRaces }

// EveBloodline is a bloodline of a race.
type EveBloodline struct {
	Entity
	EveRaceID     *int64   `gorm:"index" json:"eve_race_id"`
	EveRace       *EveRace `gorm:"foreignKey:EveRaceID" json:"-"`
	EveShipTypeID *int64   `gorm:"index" json:"eve_ship_type_id"`
	EveShipType   *EveType `gorm:"foreignKey:EveShipTypeID" json:"-"`
	Charisma      int64    `json:"charisma"`
	CorporationID int64    `json:"corporation_id"`
	Description   string   `gorm:"type:text" json:"description"`
	Intelligence  int64    `json:"intelligence"`
	Memory        int64    `json:"memory"`
	Perception    int64    `json:"perception"`
	Willpower     int64    `json:"willpower"`
}

func (EveBloodline) TableName() string { return schema.TableBloodlines }

// EveAncestry is an ancestry of a bloodline.
type EveAncestry struct {
	Entity
	EveBloodlineID   *int64        `gorm:"index" json:"eve_bloodline_id"`
	EveBloodline     *EveBloodline `gorm:"foreignKey:EveBloodlineID" json:"-"`
	Description      string        `gorm:"type:text" json:"description"`
	IconID           *int64        `gorm:"index" json:"icon_id"`
	ShortDescription string        `gorm:"type:text;default:''" json:"short_description"`
}

func (EveAncestry) TableName() string { return schema.TableAncestries }

// EveFaction is a faction.
type EveFaction struct {
	Entity
	CorporationID        *int64          `gorm:"index" json:"corporation_id"`
	Description          string          `gorm:"type:text" json:"description"`
	EveSolarSystemID     *int64          `gorm:"index" json:"eve_solar_system_id"`
	EveSolarSystem       *EveSolarSystem `gorm:"foreignKey:EveSolarSystemID" json:"-"`
	IsUnique             bool            `json:"is_unique"`
	MilitiaCorporationID *int64          `gorm:"index" json:"militia_corporation_id"`
	SizeFactor           float64         `json:"size_factor"`
	StationCount         int64           `json:"station_count"`
	StationSystemCount   int64           `json:"station_system_count"`
}

func (EveFaction) TableName() string { return schema.TableFactions }

// EveRegion is a region of space.
type EveRegion struct {
	Entity
	Description string `gorm:"type:text;default:''" json:"description"`
}

func (EveRegion) TableName() string { return schema.TableRegions }

// EveConstellation is a constellation within a region.
type EveConstellation struct {
	Entity
	Position
	EveRegionID *int64     `gorm:"index" json:"eve_region_id"`
	EveRegion   *EveRegion `gorm:"foreignKey:EveRegionID" json:"-"`
}

func (EveConstellation) TableName() string { return schema.TableConstellations }

// EveSolarSystem is a solar system.
type EveSolarSystem struct {
	Entity
	Sectioned
	Position
	EveConstellationID *int64            `gorm:"index" json:"eve_constellation_id"`
	EveConstellation   *EveConstellation `gorm:"foreignKey:EveConstellationID" json:"-"`
	EveStarID          *int64            `gorm:"index" json:"eve_star_id"`
	EveStar            *EveStar          `gorm:"foreignKey:EveStarID" json:"-"`
	SecurityStatus     float64           `json:"security_status"`
}

func (EveSolarSystem) TableName() string { return schema.TableSolarSystems }

// IsWSpace reports whether the system is in wormhole space.
func (s *EveSolarSystem) IsWSpace() bool {
	return s.ID >= 31000000 && s.ID < 32000000
}

// IsHighSec reports whether the system is high security.
func (s *EveSolarSystem) IsHighSec() bool { return s.SecurityStatus > 0.5 }

// IsLowSec reports whether the system is low security.
func (s *EveSolarSystem) IsLowSec() bool {
	return s.SecurityStatus > 0 && s.SecurityStatus <= 0.5
}

// IsNullSec reports whether the system is null security outside wormhole space.
func (s *EveSolarSystem) IsNullSec() bool {
	return s.SecurityStatus <= 0 && !s.IsWSpace()
}

// DistanceTo returns the distance in meters to another system. It returns
// false when either system is in wormhole space or lacks a position.
func (s *EveSolarSystem) DistanceTo(other *EveSolarSystem) (float64, bool) {
	if s.IsWSpace() || other.IsWSpace() {
		return 0, false
	}
	if s.PositionX == nil || s.PositionY == nil || s.PositionZ == nil ||
		other.PositionX == nil || other.PositionY == nil || other.PositionZ == nil {
		return 0, false
	}
	dx := *other.PositionX - *s.PositionX
	dy := *other.PositionY - *s.PositionY
	dz := *other.PositionZ - *s.PositionZ
	return math.Sqrt(dx*dx + dy*dy + dz*dz), true
}

// EveStar is the star of a solar system.
type EveStar struct {
	Entity
	Age           int64    `json:"age"`
	EveTypeID     *int64   `gorm:"index" json:"eve_type_id"`
	EveType       *EveType `gorm:"foreignKey:EveTypeID" json:"-"`
	Luminosity    float64  `json:"luminosity"`
	Radius        int64    `json:"radius"`
	SpectralClass string   `gorm:"size:16" json:"spectral_class"`
	Temperature   int64    `json:"temperature"`
}

func (EveStar) TableName() string { return schema.TableStars }

// EvePlanet is a planet.
type EvePlanet struct {
	Entity
	Sectioned
	Position
	EveSolarSystemID *int64          `gorm:"index" json:"eve_solar_system_id"`
	EveSolarSystem   *EveSolarSystem `gorm:"foreignKey:EveSolarSystemID" json:"-"`
	EveTypeID        *int64          `gorm:"index" json:"eve_type_id"`
	EveType          *EveType        `gorm:"foreignKey:EveTypeID" json:"-"`
}

func (EvePlanet) TableName() string { return schema.TablePlanets }

// EveMoon is a moon of a planet.
type EveMoon struct {
	Entity
	Position
	EvePlanetID *int64     `gorm:"index" json:"eve_planet_id"`
	EvePlanet   *EvePlanet `gorm:"foreignKey:EvePlanetID" json:"-"`
}

func (EveMoon) TableName() string { return schema.TableMoons }

// EveAsteroidBelt is an asteroid belt of a planet.
type EveAsteroidBelt struct {
	Entity
	Position
	EvePlanetID *int64     `gorm:"index" json:"eve_planet_id"`
	EvePlanet   *EvePlanet `gorm:"foreignKey:EvePlanetID" json:"-"`
}

func (EveAsteroidBelt) TableName() string { return schema.TableAsteroidBelts }

// EveStargate is a stargate. Its destination is only linked when already
// present locally.
type EveStargate struct {
	Entity
	Position
	DestinationEveStargateID    *int64          `gorm:"index" json:"destination_eve_stargate_id"`
	DestinationEveStargate      *EveStargate    `gorm:"foreignKey:DestinationEveStargateID" json:"-"`
	DestinationEveSolarSystemID *int64          `gorm:"index" json:"destination_eve_solar_system_id"`
	DestinationEveSolarSystem   *EveSolarSystem `gorm:"foreignKey:DestinationEveSolarSystemID" json:"-"`
	EveSolarSystemID            *int64          `gorm:"index" json:"eve_solar_system_id"`
	EveSolarSystem              *EveSolarSystem `gorm:"foreignKey:EveSolarSystemID" json:"-"`
	EveTypeID                   *int64          `gorm:"index" json:"eve_type_id"`
	EveType                     *EveType        `gorm:"foreignKey:EveTypeID" json:"-"`
}

func (EveStargate) TableName() string { return schema.TableStargates }

// EveStation is an NPC station.
type EveStation struct {
	Entity
	Position
	EveRaceID                *int64              `gorm:"index" json:"eve_race_id"`
	EveRace                  *EveRace            `gorm:"foreignKey:EveRaceID" json:"-"`
	EveSolarSystemID         *int64              `gorm:"index" json:"eve_solar_system_id"`
	EveSolarSystem           *EveSolarSystem     `gorm:"foreignKey:EveSolarSystemID" json:"-"`
	EveTypeID                *int64              `gorm:"index" json:"eve_type_id"`
	EveType                  *EveType            `gorm:"foreignKey:EveTypeID" json:"-"`
	MaxDockableShipVolume    float64             `json:"max_dockable_ship_volume"`
	OfficeRentalCost         float64             `json:"office_rental_cost"`
	OwnerID                  *int64              `gorm:"index" json:"owner_id"`
	ReprocessingEfficiency   float64             `json:"reprocessing_efficiency"`
	ReprocessingStationsTake float64             `json:"reprocessing_stations_take"`
	Services                 []EveStationService `gorm:"many2many:eve_station_service_links;constraint:OnDelete:CASCADE" json:"services,omitempty"`
}

func (EveStation) TableName() string { return schema.TableStations }
