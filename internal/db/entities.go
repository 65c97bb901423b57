package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/asteroid-belt/eveuniverse/internal/schema"
)

// Get loads one record by id. It returns (nil, nil) when the record does
// not exist.
func Get[T any](db *DB, id int64) (*T, error) {
	var out T
	err := db.First(&out, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// Record loads one row of table as a column map. It returns (nil, nil)
// when the record does not exist.
func (db *DB) Record(table string, id int64) (map[string]any, error) {
	var rows []map[string]any
	if err := db.Table(table).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s %d: %w", table, id, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// EntityExists reports whether table holds a record with the given id.
func (db *DB) EntityExists(table string, id int64) (bool, error) {
	var n int64
	if err := db.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("lookup %s %d: %w", table, id, err)
	}
	return n > 0, nil
}

// KnownIDs returns the subset of ids present in table.
func (db *DB) KnownIDs(table string, ids []int64) (map[int64]bool, error) {
	known := make(map[int64]bool, len(ids))
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		var found []int64
		if err := db.Table(table).Where("id IN ?", ids[start:end]).Pluck("id", &found).Error; err != nil {
			return nil, fmt.Errorf("lookup %s ids: %w", table, err)
		}
		for _, id := range found {
			known[id] = true
		}
	}
	return known, nil
}

// UpsertEntity inserts or updates a record keyed by its natural id. Only the
// given columns are written on update. It reports whether a row was created.
func (db *DB) UpsertEntity(table string, id int64, values map[string]any) (bool, error) {
	exists, err := db.EntityExists(table, id)
	if err != nil {
		return false, err
	}

	row := make(map[string]any, len(values)+2)
	for k, v := range values {
		row[k] = v
	}
	row["id"] = id
	row["last_updated"] = time.Now().UTC()

	err = db.Table(table).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(updateColumns(row, "id")),
	}).Create(row).Error
	if err != nil {
		return false, fmt.Errorf("upsert %s %d: %w", table, id, err)
	}
	return !exists, nil
}

// UpdateEntityColumns writes the given columns of an existing record.
func (db *DB) UpdateEntityColumns(table string, id int64, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	if err := db.Table(table).Where("id = ?", id).Updates(values).Error; err != nil {
		return fmt.Errorf("update %s %d: %w", table, id, err)
	}
	return nil
}

// UpsertInline inserts or updates an inline row keyed by its functional key.
func (db *DB) UpsertInline(table string, key map[string]any, values map[string]any) error {
	row := make(map[string]any, len(key)+len(values))
	conflict := make([]clause.Column, 0, len(key))
	keyCols := make([]string, 0, len(key))
	for k, v := range key {
		row[k] = v
		keyCols = append(keyCols, k)
	}
	sort.Strings(keyCols)
	for _, k := range keyCols {
		conflict = append(conflict, clause.Column{Name: k})
	}
	for k, v := range values {
		row[k] = v
	}

	onConflict := clause.OnConflict{Columns: conflict}
	if cols := updateColumns(row, keyCols...); len(cols) > 0 {
		onConflict.DoUpdates = clause.AssignmentColumns(cols)
	} else {
		onConflict.DoNothing = true
	}
	if err := db.Table(table).Clauses(onConflict).Create(row).Error; err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// LinkByName get-or-creates one row per name in nameTable and links each to
// the parent through joinTable.
func (db *DB) LinkByName(nameTable, joinTable, parentColumn, joinColumn string, parentID int64, names []string) error {
	for _, name := range names {
		err := db.Table(nameTable).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(map[string]any{"name": name}).Error
		if err != nil {
			return fmt.Errorf("create %s %q: %w", nameTable, name, err)
		}

		var id int64
		if err := db.Table(nameTable).Select("id").Where("name = ?", name).Row().Scan(&id); err != nil {
			return fmt.Errorf("lookup %s %q: %w", nameTable, name, err)
		}

		err = db.Table(joinTable).Clauses(clause.OnConflict{DoNothing: true}).Create(map[string]any{
			parentColumn: parentID,
			joinColumn:   id,
		}).Error
		if err != nil {
			return fmt.Errorf("link %s %q: %w", joinTable, name, err)
		}
	}
	return nil
}

// LoadedSections returns the section bitset of a record. A missing record
// has no sections.
func (db *DB) LoadedSections(table string, id int64) (schema.SectionSet, error) {
	var bits sql.NullInt64
	err := db.Table(table).Select("enabled_sections").Where("id = ?", id).Row().Scan(&bits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("load sections %s %d: %w", table, id, err)
	}
	return schema.SectionSet(bits.Int64), nil
}

// MarkSections sets section bits on a record, keeping bits already set.
func (db *DB) MarkSections(table string, id int64, set schema.SectionSet) error {
	if set.Empty() {
		return nil
	}
	err := db.Table(table).Where("id = ?", id).
		Update("enabled_sections", gorm.Expr("COALESCE(enabled_sections, 0) | ?", int64(set))).Error
	if err != nil {
		return fmt.Errorf("mark sections %s %d: %w", table, id, err)
	}
	return nil
}

func updateColumns(row map[string]any, skip ...string) []string {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}
	cols := make([]string, 0, len(row))
	for k := range row {
		if !skipped[k] {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}
