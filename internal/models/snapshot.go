package models

import (
	"time"

	"dashworth/internal/uuid"

	"gorm.io/gorm"
)

// Snapshot is a frozen valuation of the whole portfolio at a point in time.
// Every entry denormalizes the asset's name, category, and group as they
// were at capture time, so the snapshot stays self-contained even after the
// source assets or categories are edited or removed. Snapshots are immutable
// once created; deletion is the only supported mutation.
type Snapshot struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	Date            time.Time       `gorm:"not null;index" json:"date"`
	TotalNetWorth   float64         `gorm:"not null" json:"total_net_worth"`
	PrimaryCurrency string          `gorm:"not null" json:"primary_currency"`
	Note            string          `json:"note"`
	CreatedAt       time.Time       `json:"created_at"`
	Entries         []SnapshotEntry `gorm:"foreignKey:SnapshotID;constraint:OnDelete:CASCADE" json:"entries"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (s *Snapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New()
	}
	return nil
}

// SnapshotEntry is one asset's value inside a snapshot.
type SnapshotEntry struct {
	ID           string  `gorm:"type:uuid;primaryKey" json:"id"`
	SnapshotID   string  `gorm:"type:uuid;not null;index" json:"snapshot_id"`
	AssetID      string  `gorm:"type:uuid;not null" json:"asset_id"`
	AssetName    string  `gorm:"not null" json:"asset_name"`
	CategoryID   string  `gorm:"type:uuid" json:"category_id"`
	CategoryName string  `json:"category_name"`
	Group        string  `json:"group"`
	Value        float64 `gorm:"not null" json:"value"`
	Currency     string  `gorm:"not null" json:"currency"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (e *SnapshotEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New()
	}
	return nil
}
