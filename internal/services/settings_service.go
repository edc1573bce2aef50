package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
)

// settingsService manages the settings singleton row.
type settingsService struct {
	db       *gorm.DB
	rates    RateSource
	observer Observer
}

// NewSettingsService creates a new SettingsServicer.
func NewSettingsService(db *gorm.DB, rates RateSource, observer Observer) SettingsServicer {
	return &settingsService{db: db, rates: rates, observer: observer}
}

// UpdateSettingsInput carries optional settings updates; nil fields are
// left unchanged.
type UpdateSettingsInput struct {
	PrimaryCurrency  *string
	Theme            *string
	SnapshotReminder *models.Cadence
	AutoSnapshot     *models.Cadence
	CustomColors     map[string]string
}

// Get returns the settings singleton, seeding a default row on first use.
func (s *settingsService) Get() (*models.Settings, error) {
	var settings models.Settings
	err := s.db.First(&settings, "id = ?", models.SettingsID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	settings = models.Settings{
		ID:               models.SettingsID,
		PrimaryCurrency:  models.CurrencyUSD,
		Theme:            "system",
		SnapshotReminder: models.CadenceOff,
		AutoSnapshot:     models.CadenceOff,
	}
	if err := s.db.Create(&settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &settings, nil
}

// Update applies settings changes. A primary-currency change moves the
// converted net worth, so the observer is notified afterwards.
func (s *settingsService) Update(ctx context.Context, input UpdateSettingsInput) (*models.Settings, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	currencyChanged := false
	if input.PrimaryCurrency != nil {
		if !models.IsSupportedCurrency(*input.PrimaryCurrency) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency")
		}
		currencyChanged = settings.PrimaryCurrency != *input.PrimaryCurrency
		settings.PrimaryCurrency = *input.PrimaryCurrency
	}
	if input.Theme != nil {
		settings.Theme = *input.Theme
	}
	if input.SnapshotReminder != nil {
		settings.SnapshotReminder = *input.SnapshotReminder
	}
	if input.AutoSnapshot != nil {
		if *input.AutoSnapshot == models.CadenceMonthly {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "auto snapshot cadence must be off, daily, or weekly")
		}
		settings.AutoSnapshot = *input.AutoSnapshot
	}
	if input.CustomColors != nil {
		settings.CustomColors = input.CustomColors
	}

	if err := s.db.Save(settings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if currencyChanged {
		notifyNetWorth(ctx, s.db, s.rates, s.observer)
	}
	return settings, nil
}
