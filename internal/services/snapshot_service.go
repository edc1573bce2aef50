package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"dashworth/internal/currency"
	apperrors "dashworth/internal/errors"
	"dashworth/internal/logger"
	"dashworth/internal/models"
	"dashworth/internal/pagination"
)

// Automatic snapshot thresholds per cadence.
const (
	dailySnapshotThreshold  = 24 * time.Hour
	weeklySnapshotThreshold = 7 * 24 * time.Hour
)

// snapshotService captures and manages frozen point-in-time valuations.
type snapshotService struct {
	db       *gorm.DB
	rates    RateSource
	settings SettingsServicer
}

// NewSnapshotService creates a new SnapshotServicer.
func NewSnapshotService(db *gorm.DB, rates RateSource, settings SettingsServicer) SnapshotServicer {
	return &snapshotService{db: db, rates: rates, settings: settings}
}

// CreateManual captures a snapshot with optional per-asset override values.
// Overrides (keyed by asset id) replace the live current value verbatim,
// letting the user correct stale figures before freezing.
func (s *snapshotService) CreateManual(ctx context.Context, note string, overrides map[string]float64) (*models.Snapshot, error) {
	return s.capture(ctx, time.Now(), note, overrides)
}

// RunAutomatic captures a snapshot if the configured cadence says one is
// due. Returns (nil, nil) when nothing needed doing: cadence off, not due
// yet, or zero active assets.
func (s *snapshotService) RunAutomatic(ctx context.Context, now time.Time) (*models.Snapshot, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	var threshold time.Duration
	switch settings.AutoSnapshot {
	case models.CadenceDaily:
		threshold = dailySnapshotThreshold
	case models.CadenceWeekly:
		threshold = weeklySnapshotThreshold
	default:
		return nil, nil
	}

	if settings.LastSnapshotAt != nil && now.Sub(*settings.LastSnapshotAt) < threshold {
		return nil, nil
	}

	var activeCount int64
	if err := s.db.Model(&models.Asset{}).Where("is_archived = ?", false).Count(&activeCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if activeCount == 0 {
		return nil, nil
	}

	snapshot, err := s.capture(ctx, now, "", nil)
	if err != nil {
		return nil, err
	}
	logger.Get().Infow("automatic snapshot recorded",
		"cadence", settings.AutoSnapshot,
		"total_net_worth", snapshot.TotalNetWorth,
	)
	return snapshot, nil
}

// capture builds the snapshot from active assets, denormalizing names and
// categories at capture time, and persists it together with the settings
// timestamp update as one transaction. A crash mid-capture can never leave
// a snapshot without the updated timestamp or vice versa.
func (s *snapshotService) capture(ctx context.Context, now time.Time, note string, overrides map[string]float64) (*models.Snapshot, error) {
	settings, err := s.settings.Get()
	if err != nil {
		return nil, err
	}

	var assets []models.Asset
	if err := s.db.Where("is_archived = ?", false).Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(assets) == 0 {
		return nil, apperrors.ErrNoActiveAssets
	}

	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	categoryNames := make(map[string]string, len(categories))
	liability := make(map[string]bool, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
		liability[c.ID] = c.IsLiability
	}

	rates := s.rates.Current(ctx)
	snapshot := &models.Snapshot{
		Date:            now,
		PrimaryCurrency: settings.PrimaryCurrency,
		Note:            note,
	}

	for _, a := range assets {
		value := a.CurrentValue
		if override, ok := overrides[a.ID]; ok {
			value = override
		}

		snapshot.Entries = append(snapshot.Entries, models.SnapshotEntry{
			AssetID:      a.ID,
			AssetName:    a.Name,
			CategoryID:   a.CategoryID,
			CategoryName: categoryNames[a.CategoryID],
			Group:        a.Group,
			Value:        value,
			Currency:     a.Currency,
		})

		converted := currency.Convert(value, a.Currency, settings.PrimaryCurrency, rates)
		if liability[a.CategoryID] {
			snapshot.TotalNetWorth -= converted
		} else {
			snapshot.TotalNetWorth += converted
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(snapshot).Error; err != nil {
			return err
		}
		return tx.Model(&models.Settings{}).
			Where("id = ?", models.SettingsID).
			Update("last_snapshot_at", now).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return snapshot, nil
}

// GetSnapshots returns snapshots newest first, entries included.
func (s *snapshotService) GetSnapshots(page pagination.PageRequest) (*pagination.PageResponse[models.Snapshot], error) {
	page.Defaults()

	var totalItems int64
	if err := s.db.Model(&models.Snapshot{}).Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.Snapshot
	if err := s.db.Preload("Entries").Order("date DESC").Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetSnapshotByID retrieves one snapshot with its entries.
func (s *snapshotService) GetSnapshotByID(id string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := s.db.Preload("Entries").First(&snapshot, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snapshot, nil
}

// DeleteSnapshot removes a snapshot and its entries. History entries and
// live assets are unaffected.
func (s *snapshotService) DeleteSnapshot(id string) error {
	snapshot, err := s.GetSnapshotByID(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id = ?", id).Delete(&models.SnapshotEntry{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&models.Snapshot{}, "id = ?", snapshot.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}
