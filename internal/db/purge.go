package db

import (
	"fmt"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// purgeOrder lists every mirrored table so that rows referencing another
// table are removed before the rows they reference. Units are kept since
// they are an enumeration.
var purgeOrder = []string{
	schema.TableStationServiceMap,
	schema.TableStationServices,
	schema.TableTypeAttributes,
	schema.TableTypeEffects,
	schema.TableEffectModifiers,
	schema.TableTypeMaterials,
	"eve_market_prices",
	"eve_entities",
	schema.TableStations,
	schema.TableStargates,
	schema.TableMoons,
	schema.TableAsteroidBelts,
	schema.TablePlanets,
	schema.TableFactions,
	schema.TableSolarSystems,
	schema.TableStars,
	schema.TableConstellations,
	schema.TableRegions,
	schema.TableAncestries,
	schema.TableBloodlines,
	schema.TableRaces,
	schema.TableTypes,
	schema.TableGroups,
	schema.TableCategories,
	schema.TableMarketGroups,
	schema.TableGraphics,
	schema.TableDogmaEffects,
	schema.TableDogmaAttributes,
}

// Purge deletes every mirrored record in a single transaction and returns
// the number of rows removed per table. Units, sync metadata and the failed
// task ledger are kept.
func (db *DB) Purge() (map[string]int64, error) {
	removed := make(map[string]int64, len(purgeOrder))
	err := db.Transaction(func(tx *DB) error {
		for _, table := range purgeOrder {
			res := tx.Exec("DELETE FROM " + table)
			if res.Error != nil {
				return fmt.Errorf("purge %s: %w", table, res.Error)
			}
			removed[table] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
