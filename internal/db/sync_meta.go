package db

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// GetSyncMeta retrieves a sync metadata value.
func (db *DB) GetSyncMeta(key string) (string, error) {
	var meta models.SyncMeta
	err := db.First(&meta, "key = ?", key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return meta.Value, nil
}

// SetSyncMeta sets a sync metadata value.
func (db *DB) SetSyncMeta(key, value string) error {
	meta := models.SyncMeta{Key: key, Value: value}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&meta).Error
}

// GetSyncTime reads a timestamp stored under key. A missing or empty value
// yields the zero time.
func (db *DB) GetSyncTime(key string) (time.Time, error) {
	v, err := db.GetSyncMeta(key)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, v)
}

// SetSyncTime stores t under key in RFC 3339 form.
func (db *DB) SetSyncTime(key string, t time.Time) error {
	return db.SetSyncMeta(key, t.UTC().Format(time.RFC3339))
}

// GetAllSyncMeta retrieves all sync metadata.
func (db *DB) GetAllSyncMeta() (map[string]string, error) {
	var metas []models.SyncMeta
	if err := db.Find(&metas).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string, len(metas))
	for _, meta := range metas {
		result[meta.Key] = meta.Value
	}
	return result, nil
}
