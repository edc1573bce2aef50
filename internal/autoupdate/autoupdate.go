// Package autoupdate refreshes auto-priced assets from the price oracle.
// A refresh pass is best effort: a failing ticker skips its asset and the
// pass continues, so one dead data source never blocks the rest.
package autoupdate

import (
	"context"
	"time"

	"gorm.io/gorm"

	"dashworth/internal/currency"
	"dashworth/internal/logger"
	"dashworth/internal/models"
	"dashworth/internal/oracle"
	"dashworth/internal/valuation"
)

// Lookuper resolves a ticker through a price source.
type Lookuper interface {
	Lookup(ctx context.Context, ticker string, source models.PriceSource) (*oracle.Quote, error)
}

// RateSource provides current conversion rates.
type RateSource interface {
	Current(ctx context.Context) currency.Rates
}

// Observer receives the recomputed net worth after a pass that changed
// anything.
type Observer interface {
	Observe(total float64, currencyCode string)
}

// Updater runs refresh passes over the auto-priced assets.
type Updater struct {
	db       *gorm.DB
	oracle   Lookuper
	rates    RateSource
	observer Observer
}

// New creates an Updater. The observer may be nil.
func New(db *gorm.DB, o Lookuper, rates RateSource, observer Observer) *Updater {
	return &Updater{db: db, oracle: o, rates: rates, observer: observer}
}

// Run refreshes every active auto-priced asset once and reports how many
// assets received a new price. Manual and archived assets are never touched.
func (u *Updater) Run(ctx context.Context) (int, error) {
	var assets []models.Asset
	err := u.db.
		Where("is_archived = ?", false).
		Where("price_source <> ?", models.PriceSourceManual).
		Where("ticker <> ''").
		Find(&assets).Error
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range assets {
		select {
		case <-ctx.Done():
			return updated, ctx.Err()
		default:
		}

		if u.refreshOne(ctx, &assets[i]) {
			updated++
		}
	}

	if updated > 0 {
		logger.Get().Infow("price refresh finished", "assets", len(assets), "updated", updated)
		u.notify(ctx)
	}
	return updated, nil
}

// refreshOne fetches a quote and applies it to one asset. Returns true when
// the asset was written with a new price.
func (u *Updater) refreshOne(ctx context.Context, asset *models.Asset) bool {
	quote, err := u.oracle.Lookup(ctx, asset.Ticker, asset.PriceSource)
	if err != nil {
		logger.Get().Warnw("price lookup failed",
			"asset", asset.Name,
			"ticker", asset.Ticker,
			"source", string(asset.PriceSource),
			"error", err.Error(),
		)
		return false
	}

	price, ok := quote.PriceByCurrency[asset.Currency]
	if !ok {
		logger.Get().Warnw("quote missing asset currency",
			"asset", asset.Name,
			"ticker", asset.Ticker,
			"currency", asset.Currency,
		)
		return false
	}

	oldValue := asset.CurrentValue
	now := time.Now()

	// A refresh overwrites the value with the quote itself. Assets that
	// track quantity times unit price are recomputed on quantity edits,
	// not here.
	asset.UnitPrice = price
	asset.CurrentValue = price
	asset.LastPriceUpdate = &now

	changed := currency.Round(oldValue) != currency.Round(asset.CurrentValue)

	err = u.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(asset).Error; err != nil {
			return err
		}
		if !changed {
			return nil
		}
		entry := models.AssetChange{
			AssetID:   asset.ID,
			AssetName: asset.Name,
			OldValue:  oldValue,
			NewValue:  asset.CurrentValue,
			Currency:  asset.Currency,
			Source:    models.ChangeSourceAuto,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		logger.Get().Warnw("price update failed to persist",
			"asset", asset.Name,
			"error", err.Error(),
		)
		return false
	}
	return true
}

// notify recomputes the converted net worth and hands it to the observer.
func (u *Updater) notify(ctx context.Context) {
	if u.observer == nil {
		return
	}

	var settings models.Settings
	if err := u.db.First(&settings, "id = ?", models.SettingsID).Error; err != nil {
		return
	}
	var categories []models.Category
	if err := u.db.Find(&categories).Error; err != nil {
		return
	}
	var assets []models.Asset
	if err := u.db.Where("is_archived = ?", false).Find(&assets).Error; err != nil {
		return
	}

	breakdown := valuation.NetWorth(assets, categories, settings.PrimaryCurrency, u.rates.Current(ctx))
	u.observer.Observe(breakdown.NetWorth, settings.PrimaryCurrency)
}

// Schedule runs an immediate pass and then repeats on the given interval
// until the context is cancelled. Meant to be started as a goroutine.
func (u *Updater) Schedule(ctx context.Context, interval time.Duration) {
	if _, err := u.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Get().Warnw("scheduled price refresh failed", "error", err.Error())
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := u.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Get().Warnw("scheduled price refresh failed", "error", err.Error())
			}
		}
	}
}
