package models

import (
	"time"

	"dashworth/internal/uuid"

	"gorm.io/gorm"
)

// Base contains common columns for mutable entities. History-like tables
// (asset changes, history entries, snapshots) are append-only and define
// their own columns instead of embedding Base.
type Base struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// All returns every model for schema migration, ordered parent-first.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Asset{},
		&AssetChange{},
		&HistoryEntry{},
		&Snapshot{},
		&SnapshotEntry{},
		&Settings{},
	}
}
