package services

import (
	"bytes"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"dashworth/internal/database"
	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
)

// Export envelope identification. Version bumps when the data shape changes
// incompatibly; import refuses files from a newer version.
const (
	exportAppTag  = "dashworth"
	exportVersion = 1
)

// ExportEnvelope is the import/export file format.
type ExportEnvelope struct {
	App        string     `json:"app"`
	Version    int        `json:"version"`
	ExportedAt time.Time  `json:"exported_at"`
	Data       ExportData `json:"data"`
}

// ExportData holds every table. Snapshots ride along so an export is a
// complete backup, not just the live state.
type ExportData struct {
	Categories   []models.Category     `json:"categories"`
	Assets       []models.Asset        `json:"assets"`
	History      []models.HistoryEntry `json:"history"`
	AssetChanges []models.AssetChange  `json:"assetChanges"`
	Snapshots    []models.Snapshot     `json:"snapshots,omitempty"`
	Settings     *models.Settings      `json:"settings"`
}

// portfolioService implements whole-store operations.
type portfolioService struct {
	db       *gorm.DB
	category CategoryServicer
	settings SettingsServicer
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, category CategoryServicer, settings SettingsServicer) PortfolioServicer {
	return &portfolioService{db: db, category: category, settings: settings}
}

// Export bundles the full store into an envelope and stamps the export time.
// The stamp and every table read share one transaction, so the envelope is a
// consistent cut even while mutations run concurrently.
func (s *portfolioService) Export() (*ExportEnvelope, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	settings.LastExportAt = &now

	envelope := &ExportEnvelope{
		App:        exportAppTag,
		Version:    exportVersion,
		ExportedAt: now,
		Data:       ExportData{Settings: settings},
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Settings{}).
			Where("id = ?", models.SettingsID).
			Update("last_export_at", now).Error; err != nil {
			return err
		}
		if err := tx.Order("sort_order").Find(&envelope.Data.Categories).Error; err != nil {
			return err
		}
		if err := tx.Order("created_at").Find(&envelope.Data.Assets).Error; err != nil {
			return err
		}
		if err := tx.Order("created_at").Find(&envelope.Data.History).Error; err != nil {
			return err
		}
		if err := tx.Order("created_at").Find(&envelope.Data.AssetChanges).Error; err != nil {
			return err
		}
		return tx.Preload("Entries").Order("date").Find(&envelope.Data.Snapshots).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return envelope, nil
}

// Import validates the envelope and performs a destructive full replace in
// one transaction. An invalid envelope is rejected before any mutation, so
// a bad file can never damage existing data.
func (s *portfolioService) Import(raw []byte) error {
	if err := validateEnvelope(raw); err != nil {
		return err
	}

	var envelope ExportEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidImportFile, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.ClearAll(tx); err != nil {
			return err
		}

		for i := range envelope.Data.Categories {
			if err := tx.Create(&envelope.Data.Categories[i]).Error; err != nil {
				return err
			}
		}
		for i := range envelope.Data.Assets {
			if err := tx.Create(&envelope.Data.Assets[i]).Error; err != nil {
				return err
			}
		}
		for i := range envelope.Data.History {
			if err := tx.Create(&envelope.Data.History[i]).Error; err != nil {
				return err
			}
		}
		for i := range envelope.Data.AssetChanges {
			if err := tx.Create(&envelope.Data.AssetChanges[i]).Error; err != nil {
				return err
			}
		}
		for i := range envelope.Data.Snapshots {
			if err := tx.Create(&envelope.Data.Snapshots[i]).Error; err != nil {
				return err
			}
		}

		settings := envelope.Data.Settings
		if settings == nil {
			settings = &models.Settings{
				PrimaryCurrency:  models.CurrencyUSD,
				SnapshotReminder: models.CadenceOff,
				AutoSnapshot:     models.CadenceOff,
			}
		}
		settings.ID = models.SettingsID
		return tx.Create(settings).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// validateEnvelope checks the file shape without touching the store: the
// app tag, a numeric compatible version, and the required data arrays.
func validateEnvelope(raw []byte) error {
	var shape struct {
		App     *string          `json:"app"`
		Version *json.Number     `json:"version"`
		Data    *json.RawMessage `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&shape); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidImportFile, err)
	}

	if shape.App == nil || *shape.App != exportAppTag {
		return apperrors.WithMessage(apperrors.ErrInvalidImportFile, "not a dashworth export file")
	}
	if shape.Version == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidImportFile, "export version missing")
	}
	version, err := shape.Version.Int64()
	if err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidImportFile, "export version is not a number")
	}
	if version < 1 || version > exportVersion {
		return apperrors.WithMessage(apperrors.ErrInvalidImportFile, "unsupported export version")
	}
	if shape.Data == nil {
		return apperrors.WithMessage(apperrors.ErrInvalidImportFile, "export data missing")
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(*shape.Data, &data); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidImportFile, err)
	}
	for _, key := range []string{"categories", "assets", "history", "assetChanges"} {
		rawArr, ok := data[key]
		if !ok {
			return apperrors.WithMessage(apperrors.ErrInvalidImportFile, "export data missing "+key)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(rawArr, &arr); err != nil {
			return apperrors.WithMessage(apperrors.ErrInvalidImportFile, key+" is not an array")
		}
	}
	return nil
}

// DeleteAll clears every table and reseeds the default categories and
// settings in one transaction, so a partial clear is never observable.
func (s *portfolioService) DeleteAll() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.ClearAll(tx); err != nil {
			return err
		}
		return seedDefaultsTx(tx)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// LoadSampleData replaces the store with an example portfolio.
func (s *portfolioService) LoadSampleData() error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := database.ClearAll(tx); err != nil {
			return err
		}
		return seedSampleTx(tx)
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// seedDefaultsTx writes the default categories and settings inside tx.
func seedDefaultsTx(tx *gorm.DB) error {
	for i, def := range defaultCategories {
		category := def
		category.SortOrder = i
		category.IsDefault = true
		if err := tx.Create(&category).Error; err != nil {
			return err
		}
	}
	settings := models.Settings{
		ID:               models.SettingsID,
		PrimaryCurrency:  models.CurrencyUSD,
		Theme:            "system",
		SnapshotReminder: models.CadenceOff,
		AutoSnapshot:     models.CadenceOff,
	}
	return tx.Create(&settings).Error
}

// seedSampleTx writes an example portfolio inside tx.
func seedSampleTx(tx *gorm.DB) error {
	crypto := models.Category{Name: "Crypto", Icon: "bitcoin", Color: "#F7931A", SortOrder: 0, IsDefault: true}
	stocks := models.Category{Name: "Stocks & ETFs", Icon: "chart", Color: "#2E86DE", SortOrder: 1, IsDefault: true}
	cash := models.Category{Name: "Cash & Savings", Icon: "wallet", Color: "#27AE60", SortOrder: 2, IsDefault: true}
	debts := models.Category{Name: "Debts & Loans", Icon: "credit-card", Color: "#C0392B", SortOrder: 3, IsDefault: true, IsLiability: true}
	for _, c := range []*models.Category{&crypto, &stocks, &cash, &debts} {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
	}

	sampleAssets := []models.Asset{
		{Name: "Bitcoin", CategoryID: crypto.ID, Currency: models.CurrencyUSD, PriceSource: models.PriceSourceCoinGecko, Ticker: "bitcoin", Quantity: 0.25, UnitPrice: 64000, CurrentValue: 16000},
		{Name: "S&P 500 ETF", CategoryID: stocks.ID, Group: "ETFs", Currency: models.CurrencyUSD, PriceSource: models.PriceSourceYahoo, Ticker: "SPY", Quantity: 20, UnitPrice: 550, CurrentValue: 11000},
		{Name: "World ETF", CategoryID: stocks.ID, Group: "ETFs", Currency: models.CurrencyEUR, PriceSource: models.PriceSourceYahoo, Ticker: "VWCE.DE", Quantity: 50, UnitPrice: 120, CurrentValue: 6000},
		{Name: "Checking account", CategoryID: cash.ID, Currency: models.CurrencyCZK, CurrentValue: 85000, PriceSource: models.PriceSourceManual},
		{Name: "Emergency fund", CategoryID: cash.ID, Currency: models.CurrencyEUR, CurrentValue: 5000, PriceSource: models.PriceSourceManual},
		{Name: "Car loan", CategoryID: debts.ID, Currency: models.CurrencyCZK, CurrentValue: 120000, PriceSource: models.PriceSourceManual},
	}
	for i := range sampleAssets {
		if err := tx.Create(&sampleAssets[i]).Error; err != nil {
			return err
		}
	}

	settings := models.Settings{
		ID:               models.SettingsID,
		PrimaryCurrency:  models.CurrencyUSD,
		Theme:            "system",
		SnapshotReminder: models.CadenceOff,
		AutoSnapshot:     models.CadenceOff,
		SampleData:       true,
	}
	return tx.Create(&settings).Error
}
