// Package db provides a GORM-based database layer for the mirrored universe.
// It uses the pure-Go SQLite driver.
package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/asteroid-belt/eveuniverse/internal/models"
)

// SchemaVersion is stored in sync meta on first open.
const SchemaVersion = "1"

// DB wraps the GORM database connection with universe-specific operations.
type DB struct {
	*gorm.DB
	path string
}

// Config holds database configuration options.
type Config struct {
	Path        string
	Debug       bool
	MaxIdleConn int
	MaxOpenConn int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(path string) Config {
	return Config{
		Path:        path,
		Debug:       false,
		MaxIdleConn: 1,
		MaxOpenConn: 1,
	}
}

// New creates a new database connection and runs migrations.
func New(cfg Config) (*DB, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	logLevel := logger.Silent
	if cfg.Debug {
		logLevel = logger.Info
	}

	// DELETE journal mode for simpler transaction handling
	// (WAL mode has visibility issues with the pure-Go SQLite driver).
	// Foreign keys must be on for inline objects to cascade.
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", cfg.Path)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Hour)

	wrapped := &DB{DB: db, path: cfg.Path}

	if err := wrapped.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := wrapped.seedSyncMeta(); err != nil {
		return nil, fmt.Errorf("seed sync meta: %w", err)
	}

	return wrapped, nil
}

// migrate runs GORM auto-migrations for all models.
func (db *DB) migrate() error {
	return db.AutoMigrate(
		&models.EveUnit{},
		&models.EveGraphic{},
		&models.EveCategory{},
		&models.EveGroup{},
		&models.EveMarketGroup{},
		&models.EveDogmaAttribute{},
		&models.EveDogmaEffect{},
		&models.EveType{},
		&models.EveTypeDogmaAttribute{},
		&models.EveTypeDogmaEffect{},
		&models.EveDogmaEffectModifier{},
		&models.EveTypeMaterial{},
		&models.EveMarketPrice{},
		&models.EveRace{},
		&models.EveBloodline{},
		&models.EveAncestry{},
		&models.EveRegion{},
		&models.EveConstellation{},
		&models.EveStar{},
		&models.EveSolarSystem{},
		&models.EveFaction{},
		&models.EvePlanet{},
		&models.EveMoon{},
		&models.EveAsteroidBelt{},
		&models.EveStargate{},
		&models.EveStationService{},
		&models.EveStation{},
		&models.EveEntity{},
		&models.SyncMeta{},
		&models.FailedTask{},
	)
}

// seedSyncMeta inserts default sync metadata if not present.
func (db *DB) seedSyncMeta() error {
	defaults := []models.SyncMeta{
		{Key: models.SyncMetaLastFullLoad, Value: ""},
		{Key: models.SyncMetaLastTypesLoad, Value: ""},
		{Key: models.SyncMetaLastPriceUpdate, Value: ""},
		{Key: models.SyncMetaSchemaVersion, Value: SchemaVersion},
	}

	for _, meta := range defaults {
		// Only insert if not exists
		result := db.Where("key = ?", meta.Key).FirstOrCreate(&meta)
		if result.Error != nil {
			return result.Error
		}
	}

	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection.
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes a function within a database transaction.
// The callback receives a *DB wrapper that uses the transaction.
// If the callback returns an error, the transaction is rolled back.
// If the callback returns nil, the transaction is committed.
func (d *DB) Transaction(fc func(tx *DB) error) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		wrappedTx := &DB{DB: tx, path: d.path}
		return fc(wrappedTx)
	})
}

// GetStats returns record counts per table.
func (db *DB) GetStats(tables []string) (*models.Stats, error) {
	stats := models.Stats{Counts: make(map[string]int64, len(tables))}

	for _, table := range tables {
		var n int64
		if err := db.Table(table).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		stats.Counts[table] = n
	}

	if err := db.Model(&models.EveEntity{}).Count(&stats.Entities).Error; err != nil {
		return nil, fmt.Errorf("count entities: %w", err)
	}

	if err := db.Model(&models.FailedTask{}).Count(&stats.FailedTasks).Error; err != nil {
		return nil, fmt.Errorf("count failed tasks: %w", err)
	}

	if info, err := os.Stat(db.path); err == nil {
		stats.DatabaseSizeBytes = info.Size()
	}

	stats.LastUpdated = time.Now()

	return &stats, nil
}
