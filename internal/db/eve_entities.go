package db

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// UpsertEveEntities writes resolved names. The latest write wins.
func (db *DB) UpsertEveEntities(entities []models.EveEntity) error {
	if len(entities) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range entities {
		entities[i].LastUpdated = now
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "category", "last_updated"}),
	}).CreateInBatches(entities, 500).Error
	if err != nil {
		return fmt.Errorf("upsert eve entities: %w", err)
	}
	return nil
}

// EveEntityNames returns the names of the given ids that are stored.
func (db *DB) EveEntityNames(ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		var found []models.EveEntity
		if err := db.Select("id", "name").Where("id IN ?", ids[start:end]).Find(&found).Error; err != nil {
			return nil, fmt.Errorf("lookup eve entities: %w", err)
		}
		for _, e := range found {
			names[e.ID] = e.Name
		}
	}
	return names, nil
}
