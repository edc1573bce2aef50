package models

import (
	"time"

	"dashworth/internal/uuid"

	"gorm.io/gorm"
)

// HistoryEntry is one point in the net-worth time series. Append-only;
// written by the history recorder, independent of per-asset detail.
type HistoryEntry struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	TotalValue float64   `gorm:"not null" json:"total_value"`
	Currency   string    `gorm:"not null" json:"currency"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (h *HistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New()
	}
	return nil
}
