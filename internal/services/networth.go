package services

import (
	"context"
	"errors"

	"dashworth/internal/logger"
	"dashworth/internal/models"
	"dashworth/internal/valuation"

	"gorm.io/gorm"
)

// notifyNetWorth recomputes the converted net worth and hands it to the
// observer. It runs after every mutation that can move the total. History
// recording is a derived signal, deliberately decoupled from the mutation
// that triggered it: any failure here is logged and swallowed so the
// already-committed mutation is never affected.
func notifyNetWorth(ctx context.Context, db *gorm.DB, rates RateSource, obs Observer) {
	if obs == nil {
		return
	}

	var settings models.Settings
	if err := db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Warnw("net worth notify: failed to load settings", "error", err.Error())
		}
		return
	}

	var categories []models.Category
	if err := db.Find(&categories).Error; err != nil {
		logger.Get().Warnw("net worth notify: failed to load categories", "error", err.Error())
		return
	}

	var assets []models.Asset
	if err := db.Where("is_archived = ?", false).Find(&assets).Error; err != nil {
		logger.Get().Warnw("net worth notify: failed to load assets", "error", err.Error())
		return
	}

	breakdown := valuation.NetWorth(assets, categories, settings.PrimaryCurrency, rates.Current(ctx))
	obs.Observe(breakdown.NetWorth, settings.PrimaryCurrency)
}
