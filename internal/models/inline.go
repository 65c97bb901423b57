package models

import (
	"time"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// Inline objects have no remote identity. Each is keyed by its parent and a
// secondary value from the parent payload, and is deleted with its parent.

// EveTypeDogmaAttribute is a dogma attribute value of a type.
type EveTypeDogmaAttribute struct {
	ID                  uint               `gorm:"primaryKey" json:"-"`
	EveTypeID           int64              `gorm:"uniqueIndex:fpk_evetypedogmaattribute" json:"eve_type_id"`
	EveDogmaAttributeID int64              `gorm:"uniqueIndex:fpk_evetypedogmaattribute" json:"eve_dogma_attribute_id"`
	EveDogmaAttribute   *EveDogmaAttribute `gorm:"foreignKey:EveDogmaAttributeID;constraint:OnDelete:CASCADE" json:"-"`
	Value               float64            `json:"value"`
}

func (EveTypeDogmaAttribute) TableName() string { return schema.TableTypeAttributes }

// EveTypeDogmaEffect links a type to a dogma effect.
type EveTypeDogmaEffect struct {
	ID               uint            `gorm:"primaryKey" json:"-"`
	EveTypeID        int64           `gorm:"uniqueIndex:fpk_evetypedogmaeffect" json:"eve_type_id"`
	EveDogmaEffectID int64           `gorm:"uniqueIndex:fpk_evetypedogmaeffect" json:"eve_dogma_effect_id"`
	EveDogmaEffect   *EveDogmaEffect `gorm:"foreignKey:EveDogmaEffectID;constraint:OnDelete:CASCADE" json:"-"`
	IsDefault        bool            `json:"is_default"`
}

func (EveTypeDogmaEffect) TableName() string { return schema.TableTypeEffects }

// EveDogmaEffectModifier is a modifier of a dogma effect, keyed by its func.
type EveDogmaEffectModifier struct {
	ID                   uint               `gorm:"primaryKey" json:"-"`
	EveDogmaEffectID     int64              `gorm:"uniqueIndex:fpk_evedogmaeffectmodifier" json:"eve_dogma_effect_id"`
	Func                 string             `gorm:"size:100;uniqueIndex:fpk_evedogmaeffectmodifier" json:"func"`
	Domain               string             `gorm:"size:100;default:''" json:"domain"`
	ModifiedAttributeID  *int64             `json:"modified_attribute_id"`
	ModifiedAttribute    *EveDogmaAttribute `gorm:"foreignKey:ModifiedAttributeID" json:"-"`
	ModifyingAttributeID *int64             `json:"modifying_attribute_id"`
	ModifyingAttribute   *EveDogmaAttribute `gorm:"foreignKey:ModifyingAttributeID" json:"-"`
	ModifyingEffectID    *int64             `json:"modifying_effect_id"`
	ModifyingEffect      *EveDogmaEffect    `gorm:"foreignKey:ModifyingEffectID" json:"-"`
	Operator             *int64             `json:"operator"`
}

func (EveDogmaEffectModifier) TableName() string { return schema.TableEffectModifiers }

// EveTypeMaterial is a reprocessing material of a type, loaded from the SDE.
type EveTypeMaterial struct {
	ID                uint     `gorm:"primaryKey" json:"-"`
	EveTypeID         int64    `gorm:"uniqueIndex:fpk_evetypematerial" json:"eve_type_id"`
	MaterialEveTypeID int64    `gorm:"uniqueIndex:fpk_evetypematerial" json:"material_eve_type_id"`
	MaterialEveType   *EveType `gorm:"foreignKey:MaterialEveTypeID" json:"-"`
	Quantity          int64    `json:"quantity"`
}

func (EveTypeMaterial) TableName() string { return schema.TableTypeMaterials }

// EveStationService is a service offered by stations, identified by name.
type EveStationService struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"size:50;uniqueIndex" json:"name"`
}

func (EveStationService) TableName() string { return schema.TableStationServices }

// EveMarketPrice is the latest known market price of a type.
type EveMarketPrice struct {
	EveTypeID     int64     `gorm:"primaryKey;autoIncrement:false" json:"eve_type_id"`
	EveType       *EveType  `gorm:"foreignKey:EveTypeID;constraint:OnDelete:CASCADE" json:"-"`
	AdjustedPrice *float64  `json:"adjusted_price"`
	AveragePrice  *float64  `json:"average_price"`
	UpdatedAt     time.Time `gorm:"index" json:"updated_at"`
}

func (EveMarketPrice) TableName() string { return "eve_market_prices" }
