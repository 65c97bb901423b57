package models

import (
	"strconv"
	"time"

	"gorm.io/datatypes"
)

// EveEntity categories returned by the names endpoint.
const (
	CategoryAlliance      = "alliance"
	CategoryCharacter     = "character"
	CategoryConstellation = "constellation"
	CategoryCorporation   = "corporation"
	CategoryFaction       = "faction"
	CategoryInventoryType = "inventory_type"
	CategoryRegion        = "region"
	CategorySolarSystem   = "solar_system"
	CategoryStation       = "station"
)

// EveEntity is a lightweight id to name resolution of any EVE object. It is
// filled by the bulk path and never carries relations.
type EveEntity struct {
	Entity
	Category *string `gorm:"size:16;index" json:"category"`
}

func (EveEntity) TableName() string { return "eve_entities" }

// String returns the name, or the id when the name is unknown.
func (e *EveEntity) String() string {
	if e.Name != "" {
		return e.Name
	}
	return "ID:" + strconv.FormatInt(e.ID, 10)
}

// SyncMeta stores sync metadata as key-value pairs.
type SyncMeta struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (SyncMeta) TableName() string {
	return "sync_meta"
}

// Common sync meta keys.
const (
	SyncMetaLastFullLoad    = "last_full_load"
	SyncMetaLastTypesLoad   = "last_types_load"
	SyncMetaLastPriceUpdate = "last_price_update"
	SyncMetaSchemaVersion   = "schema_version"
)

// FailedTask records a background load that failed or timed out. Tasks
// are not retried automatically; the ledger exists for inspection.
type FailedTask struct {
	ID       string         `gorm:"primaryKey;size:36" json:"id"`
	Kind     string         `gorm:"size:50;index" json:"kind"`
	EntityID int64          `gorm:"index" json:"entity_id"`
	Request  datatypes.JSON `json:"request"`
	Error    string         `gorm:"type:text" json:"error"`
	FailedAt time.Time      `gorm:"autoCreateTime;index" json:"failed_at"`
}

// TableName specifies the table name for GORM.
func (FailedTask) TableName() string {
	return "failed_tasks"
}

// Stats summarizes the local store.
type Stats struct {
	Counts            map[string]int64 `json:"counts"`
	Entities          int64            `json:"entities"`
	FailedTasks       int64            `json:"failed_tasks"`
	DatabaseSizeBytes int64            `json:"database_size_bytes"`
	LastUpdated       time.Time        `json:"last_updated"`
}
