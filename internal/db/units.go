package db

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// SeedUnits writes the unit enumeration, replacing existing rows.
func (db *DB) SeedUnits(units []models.EveUnit) error {
	if len(units) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range units {
		units[i].LastUpdated = now
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "display_name", "description", "last_updated"}),
	}).CreateInBatches(units, 500).Error
	if err != nil {
		return fmt.Errorf("seed units: %w", err)
	}
	return nil
}
