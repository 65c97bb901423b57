package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// UpsertMarketPrices writes prices in batches, replacing existing values.
func (db *DB) UpsertMarketPrices(prices []models.EveMarketPrice) error {
	if len(prices) == 0 {
		return nil
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "eve_type_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"adjusted_price", "average_price", "updated_at"}),
	}).CreateInBatches(prices, 500).Error
	if err != nil {
		return fmt.Errorf("upsert market prices: %w", err)
	}
	return nil
}

// GetMarketPrice returns the price of a type, or (nil, nil) when unknown.
func (db *DB) GetMarketPrice(typeID int64) (*models.EveMarketPrice, error) {
	var price models.EveMarketPrice
	err := db.First(&price, "eve_type_id = ?", typeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}
