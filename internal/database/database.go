// Package database manages the embedded sqlite store. All persistent data
// for an installation lives in a single local database file.
package database

import (
	"fmt"

	"dashworth/internal/logger"
	"dashworth/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Manager handles database operations
type Manager struct {
	db *gorm.DB
}

// NewManager opens (creating if needed) the sqlite database at path.
// Foreign keys are enabled so snapshot entries cascade with their snapshot.
func NewManager(path string) (*Manager, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on", path)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// sqlite allows a single writer; serialize access through one connection
	// rather than surfacing SQLITE_BUSY to callers.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return &Manager{db: db}, nil
}

// Migrate creates or updates the schema for all models.
func (m *Manager) Migrate() error {
	logger.Get().Info("Running database migrations...")
	if err := m.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DB returns the underlying gorm handle.
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close closes the underlying database connection.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ClearAll deletes every row from every table inside the given transaction.
// Used by the destructive import replace and by delete-all; callers must
// wrap it in db.Transaction so a partial clear is never observable.
func ClearAll(tx *gorm.DB) error {
	for _, model := range []interface{}{
		&models.SnapshotEntry{},
		&models.Snapshot{},
		&models.AssetChange{},
		&models.HistoryEntry{},
		&models.Asset{},
		&models.Category{},
		&models.Settings{},
	} {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
