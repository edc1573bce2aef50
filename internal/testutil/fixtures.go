package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"dashworth/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestSettings creates the settings singleton with USD as the primary
// currency and all cadences off.
func CreateTestSettings(t *testing.T, db *gorm.DB) *models.Settings {
	t.Helper()

	settings := &models.Settings{
		ID:               models.SettingsID,
		PrimaryCurrency:  models.CurrencyUSD,
		SnapshotReminder: models.CadenceOff,
		AutoSnapshot:     models.CadenceOff,
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to create test settings: %v", err)
	}
	return settings
}

// CreateTestCategory creates a non-liability category.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	return createCategory(t, db, name, false)
}

// CreateTestLiabilityCategory creates a liability category.
func CreateTestLiabilityCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	return createCategory(t, db, name, true)
}

func createCategory(t *testing.T, db *gorm.DB, name string, liability bool) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:        name,
		Icon:        "wallet",
		Color:       "#4A90D9",
		SortOrder:   int(nextID()),
		IsLiability: liability,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestAsset creates a manually priced asset in the given category.
func CreateTestAsset(t *testing.T, db *gorm.DB, categoryID, currency string, value float64) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		Name:         fmt.Sprintf("Test Asset %d", nextID()),
		CategoryID:   categoryID,
		Currency:     currency,
		CurrentValue: value,
		PriceSource:  models.PriceSourceManual,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// CreateTestAutoAsset creates an auto-priced asset with the given ticker,
// quantity, and unit price. CurrentValue starts at quantity * unit price.
func CreateTestAutoAsset(t *testing.T, db *gorm.DB, categoryID, currency string, source models.PriceSource, ticker string, quantity, unitPrice float64) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		Name:         fmt.Sprintf("Test Auto Asset %d", nextID()),
		CategoryID:   categoryID,
		Currency:     currency,
		CurrentValue: quantity * unitPrice,
		PriceSource:  source,
		Ticker:       ticker,
		Quantity:     quantity,
		UnitPrice:    unitPrice,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test auto asset: %v", err)
	}
	return asset
}
