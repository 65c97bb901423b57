// Package models defines the local tables mirrored from the EVE universe.
package models

import (
	"time"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// Entity holds the columns every mirrored record has. The id is assigned
// by the remote system and never generated locally.
type Entity struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name        string    `gorm:"size:100;index" json:"name"`
	LastUpdated time.Time `gorm:"index" json:"last_updated"`
}

// Sectioned is embedded by records that track which optional sections
// have been loaded.
type Sectioned struct {
	EnabledSections int64 `gorm:"default:0" json:"enabled_sections"`
}

// Loaded returns the section bitset.
func (s Sectioned) Loaded() schema.SectionSet {
	return schema.SectionSet(s.EnabledSections)
}

// Position is a point in space, in meters.
type Position struct {
	PositionX *float64 `json:"position_x"`
	PositionY *float64 `json:"position_y"`
	PositionZ *float64 `json:"position_z"`
}

// EveUnit is an enumeration seeded locally; it has no remote endpoint.
type EveUnit struct {
	Entity
	DisplayName string `gorm:"size:50;default:''" json:"display_name"`
	Description string `gorm:"type:text;default:''" json:"description"`
}

func (EveUnit) TableName() string { return schema.TableUnits }

// EveGraphic is a graphic.
type EveGraphic struct {
	Entity
	CollisionFile string `gorm:"size:255;default:''" json:"collision_file"`
	GraphicFile   string `gorm:"size:255;default:''" json:"graphic_file"`
	IconFolder    string `gorm:"size:255;default:''" json:"icon_folder"`
	SofDna        string `gorm:"size:255;default:''" json:"sof_dna"`
	SofFationName string `gorm:"size:255;default:''" json:"sof_fation_name"`
	SofHullName   string `gorm:"size:255;default:''" json:"sof_hull_name"`
	SofRaceName   string `gorm:"size:255;default:''" json:"sof_race_name"`
}

func (EveGraphic) TableName() string { return schema.TableGraphics }

// EveCategory is an inventory category.
type EveCategory struct {
	Entity
	Published bool `json:"published"`
}

func (EveCategory) TableName() string { return schema.TableCategories }

// EveGroup is an inventory group.
type EveGroup struct {
	Entity
	EveCategoryID *int64       `gorm:"index" json:"eve_category_id"`
	EveCategory   *EveCategory `gorm:"foreignKey:EveCategoryID" json:"-"`
	Published     bool         `json:"published"`
}

func (EveGroup) TableName() string { return schema.TableGroups }

// EveMarketGroup is a node in the market group tree.
type EveMarketGroup struct {
	Entity
	Description         string          `gorm:"type:text" json:"description"`
	ParentMarketGroupID *int64          `gorm:"index" json:"parent_market_group_id"`
	ParentMarketGroup   *EveMarketGroup `gorm:"foreignKey:ParentMarketGroupID" json:"-"`
}

func (EveMarketGroup) TableName() string { return schema.TableMarketGroups }

// EveType is an inventory type.
type EveType struct {
	Entity
	Sectioned
	Description      string          `gorm:"type:text;default:''" json:"description"`
	Capacity         *float64        `json:"capacity"`
	EveGroupID       *int64          `gorm:"index" json:"eve_group_id"`
	EveGroup         *EveGroup       `gorm:"foreignKey:EveGroupID" json:"-"`
	EveGraphicID     *int64          `gorm:"index" json:"eve_graphic_id"`
	EveGraphic       *EveGraphic     `gorm:"foreignKey:EveGraphicID" json:"-"`
	IconID           *int64          `gorm:"index" json:"icon_id"`
	EveMarketGroupID *int64          `gorm:"index" json:"eve_market_group_id"`
	EveMarketGroup   *EveMarketGroup `gorm:"foreignKey:EveMarketGroupID" json:"-"`
	Mass             *float64        `json:"mass"`
	PackagedVolume   *float64        `json:"packaged_volume"`
	PortionSize      *int64          `json:"portion_size"`
	Radius           *float64        `json:"radius"`
	Published        bool            `json:"published"`
	Volume           *float64        `json:"volume"`

	DogmaAttributes []EveTypeDogmaAttribute `gorm:"foreignKey:EveTypeID;constraint:OnDelete:CASCADE" json:"dogma_attributes,omitempty"`
	DogmaEffects    []EveTypeDogmaEffect    `gorm:"foreignKey:EveTypeID;constraint:OnDelete:CASCADE" json:"dogma_effects,omitempty"`
	Materials       []EveTypeMaterial       `gorm:"foreignKey:EveTypeID;constraint:OnDelete:CASCADE" json:"materials,omitempty"`
}

func (EveType) TableName() string { return schema.TableTypes }

// EveDogmaAttribute is a dogma attribute.
type EveDogmaAttribute struct {
	Entity
	EveUnitID    *int64   `gorm:"index" json:"eve_unit_id"`
	EveUnit      *EveUnit `gorm:"foreignKey:EveUnitID" json:"-"`
	DefaultValue *float64 `json:"default_value"`
	Description  string   `gorm:"type:text;default:''" json:"description"`
	DisplayName  string   `gorm:"size:100;default:''" json:"display_name"`
	HighIsGood   *bool    `json:"high_is_good"`
	IconID       *int64   `gorm:"index" json:"icon_id"`
	Published    *bool    `json:"published"`
	Stackable    *bool    `json:"stackable"`
}

func (EveDogmaAttribute) TableName() string { return schema.TableDogmaAttributes }

// EveDogmaEffect is a dogma effect.
type EveDogmaEffect struct {
	Entity
	Description              string             `gorm:"type:text;default:''" json:"description"`
	DisallowAutoRepeat       *bool              `json:"disallow_auto_repeat"`
	DischargeAttributeID     *int64             `json:"discharge_attribute_id"`
	DischargeAttribute       *EveDogmaAttribute `gorm:"foreignKey:DischargeAttributeID" json:"-"`
	DisplayName              string             `gorm:"size:100;default:''" json:"display_name"`
	DurationAttributeID      *int64             `json:"duration_attribute_id"`
	DurationAttribute        *EveDogmaAttribute `gorm:"foreignKey:DurationAttributeID" json:"-"`
	EffectCategory           *int64             `json:"effect_category"`
	ElectronicChance         *bool              `json:"electronic_chance"`
	FalloffAttributeID       *int64             `json:"falloff_attribute_id"`
	FalloffAttribute         *EveDogmaAttribute `gorm:"foreignKey:FalloffAttributeID" json:"-"`
	IconID                   *int64             `gorm:"index" json:"icon_id"`
	IsAssistance             *bool              `json:"is_assistance"`
	IsOffensive              *bool              `json:"is_offensive"`
	IsWarpSafe               *bool              `json:"is_warp_safe"`
	PostExpression           *int64             `json:"post_expression"`
	PreExpression            *int64             `json:"pre_expression"`
	Published                *bool              `json:"published"`
	RangeAttributeID         *int64             `json:"range_attribute_id"`
	RangeAttribute           *EveDogmaAttribute `gorm:"foreignKey:RangeAttributeID" json:"-"`
	RangeChance              *bool              `json:"range_chance"`
	TrackingSpeedAttributeID *int64             `json:"tracking_speed_attribute_id"`
	TrackingSpeedAttribute   *EveDogmaAttribute `gorm:"foreignKey:TrackingSpeedAttributeID" json:"-"`

	Modifiers []EveDogmaEffectModifier `gorm:"foreignKey:EveDogmaEffectID;constraint:OnDelete:CASCADE" json:"modifiers,omitempty"`
}

func (EveDogmaEffect) TableName() string { return schema.TableDogmaEffects }
