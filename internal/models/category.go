package models

import (
	"time"

	"dashworth/internal/uuid"

	"gorm.io/gorm"
)

// Category groups assets on the dashboard. Liability categories subtract
// their assets' values from net worth instead of adding them.
type Category struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	SortOrder   int       `gorm:"not null" json:"sort_order"`
	IsLiability bool      `gorm:"not null;default:false" json:"is_liability"`
	IsDefault   bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New()
	}
	return nil
}
