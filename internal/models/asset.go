package models

import "time"

// PriceSource identifies how an asset's unit price is maintained.
type PriceSource string

const (
	PriceSourceManual    PriceSource = "manual"
	PriceSourceCoinGecko PriceSource = "coingecko"
	PriceSourceYahoo     PriceSource = "yahoo"
)

// Asset is a single tracked holding: crypto, stock, cash, real estate,
// collectibles. CurrentValue is always expressed in the asset's own Currency.
//
// For auto-priced assets (PriceSource other than manual, with a Ticker),
// CurrentValue tracks Quantity * UnitPrice; quantity edits and price
// refreshes recompute it, so drift is only ever transient.
type Asset struct {
	Base
	Name       string `gorm:"not null" json:"name"`
	CategoryID string `gorm:"type:uuid;not null;index" json:"category_id"`
	// Group is an optional free-text sub-bucket within the category.
	Group        string  `json:"group"`
	Currency     string  `gorm:"not null" json:"currency"`
	CurrentValue float64 `gorm:"not null" json:"current_value"`
	Notes        string  `json:"notes"`

	Ticker          string      `json:"ticker"`
	PriceSource     PriceSource `gorm:"not null;default:manual" json:"price_source"`
	Quantity        float64     `json:"quantity"`
	UnitPrice       float64     `json:"unit_price"`
	LastPriceUpdate *time.Time  `json:"last_price_update,omitempty"`

	// Archived assets are excluded from aggregation, history recording,
	// auto-update, and automatic snapshots. Their historical records remain.
	IsArchived bool `gorm:"not null;default:false;index" json:"is_archived"`
}

// AutoPriced reports whether the asset's price is refreshed from an external
// quote source.
func (a *Asset) AutoPriced() bool {
	return a.PriceSource != PriceSourceManual && a.Ticker != ""
}
