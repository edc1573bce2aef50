package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/pagination"
	"dashworth/internal/valuation"
)

// dashboardService computes the live portfolio valuation. The valuation
// engine itself is pure; this service only assembles its inputs from the
// latest committed state, so every read reflects the most recent mutation.
type dashboardService struct {
	db       *gorm.DB
	rates    RateSource
	settings SettingsServicer
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB, rates RateSource, settings SettingsServicer) DashboardServicer {
	return &dashboardService{db: db, rates: rates, settings: settings}
}

// GetValuation aggregates all active assets into the display breakdown.
func (s *dashboardService) GetValuation(ctx context.Context) (*valuation.Result, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Order("sort_order, created_at").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var assets []models.Asset
	if err := s.db.Where("is_archived = ?", false).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return valuation.Compute(assets, categories, settings.PrimaryCurrency, s.rates.Current(ctx)), nil
}

// GetHistory returns the net-worth time series, newest first.
func (s *dashboardService) GetHistory(page pagination.PageRequest) (*pagination.PageResponse[models.HistoryEntry], error) {
	page.Defaults()

	base := s.db.Model(&models.HistoryEntry{})
	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.HistoryEntry
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
