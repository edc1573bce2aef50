package models

import (
	"time"

	"dashworth/internal/uuid"

	"gorm.io/gorm"
)

// ChangeSource identifies what triggered an asset value change.
type ChangeSource string

const (
	ChangeSourceManual ChangeSource = "manual"
	ChangeSourceAuto   ChangeSource = "auto"
)

// AssetChange is one entry in the append-only per-asset value change log.
// The asset name and currency are denormalized at write time so the log
// stays readable after the asset is renamed, archived, or deleted. Entries
// are never updated; the only way they disappear is a full data clear.
type AssetChange struct {
	ID        string       `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID   string       `gorm:"type:uuid;not null;index" json:"asset_id"`
	AssetName string       `gorm:"not null" json:"asset_name"`
	OldValue  float64      `gorm:"not null" json:"old_value"`
	NewValue  float64      `gorm:"not null" json:"new_value"`
	Currency  string       `gorm:"not null" json:"currency"`
	Source    ChangeSource `gorm:"not null" json:"source"`
	Note      string       `json:"note"`
	CreatedAt time.Time    `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (ac *AssetChange) BeforeCreate(tx *gorm.DB) error {
	if ac.ID == "" {
		ac.ID = uuid.New()
	}
	return nil
}
