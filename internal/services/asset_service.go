package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"dashworth/internal/currency"
	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/pagination"
)

// Quick-update modes for asset values.
const (
	QuickModeAdd      = "add"       // delta applied to quantity
	QuickModeSetQty   = "set-qty"   // absolute quantity
	QuickModeSetValue = "set-value" // absolute value, bypassing quantity
)

// assetService handles asset-related business logic.
type assetService struct {
	db       *gorm.DB
	rates    RateSource
	observer Observer
}

// NewAssetService creates a new AssetServicer. The observer may be nil when
// history recording is not wanted (tests, bulk loads).
func NewAssetService(db *gorm.DB, rates RateSource, observer Observer) AssetServicer {
	return &assetService{db: db, rates: rates, observer: observer}
}

// CreateAssetInput carries the fields of a new asset.
type CreateAssetInput struct {
	Name         string
	CategoryID   string
	Group        string
	Currency     string
	CurrentValue float64
	Notes        string
	Ticker       string
	PriceSource  models.PriceSource
	Quantity     float64
	UnitPrice    float64
}

// UpdateAssetInput carries optional field updates; nil fields are left
// unchanged.
type UpdateAssetInput struct {
	Name         *string
	CategoryID   *string
	Group        *string
	Currency     *string
	CurrentValue *float64
	Notes        *string
	Ticker       *string
	PriceSource  *models.PriceSource
	Quantity     *float64
	UnitPrice    *float64
	Note         string // change-log note for this edit
}

// QuickUpdateInput is the fast-path value update from the dashboard.
type QuickUpdateInput struct {
	Mode     string
	Amount   float64
	Currency string // optional currency change, manual set-value only
	Note     string
}

// CreateAsset creates a new asset in the given category.
func (s *assetService) CreateAsset(ctx context.Context, input CreateAssetInput) (*models.Asset, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name is required")
	}
	if !models.IsSupportedCurrency(input.Currency) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency")
	}
	if input.Quantity < 0 {
		return nil, apperrors.ErrNegativeQuantity
	}

	var category models.Category
	if err := s.db.First(&category, "id = ?", input.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if input.PriceSource == "" {
		input.PriceSource = models.PriceSourceManual
	}

	asset := &models.Asset{
		Name:         input.Name,
		CategoryID:   input.CategoryID,
		Group:        input.Group,
		Currency:     input.Currency,
		CurrentValue: input.CurrentValue,
		Notes:        input.Notes,
		Ticker:       input.Ticker,
		PriceSource:  input.PriceSource,
		Quantity:     input.Quantity,
		UnitPrice:    input.UnitPrice,
	}
	if asset.AutoPriced() && asset.Quantity > 0 && asset.UnitPrice > 0 {
		asset.CurrentValue = asset.Quantity * asset.UnitPrice
	}

	if err := s.db.Create(asset).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notifyNetWorth(ctx, s.db, s.rates, s.observer)
	return asset, nil
}

// GetAssets returns assets, optionally including archived ones.
func (s *assetService) GetAssets(includeArchived bool) ([]models.Asset, error) {
	query := s.db.Order("created_at")
	if !includeArchived {
		query = query.Where("is_archived = ?", false)
	}

	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return assets, nil
}

// GetAssetByID retrieves an asset by id.
func (s *assetService) GetAssetByID(id string) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAssetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &asset, nil
}

// UpdateAsset applies a field edit. When the edit moves the asset's rounded
// value, a change-log entry is written in the same transaction; history
// recording is then triggered outside the transaction and tolerated to fail.
func (s *assetService) UpdateAsset(ctx context.Context, id string, input UpdateAssetInput) (*models.Asset, error) {
	asset, err := s.GetAssetByID(id)
	if err != nil {
		return nil, err
	}

	oldValue := asset.CurrentValue
	oldCurrency := asset.Currency

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "asset name is required")
		}
		asset.Name = *input.Name
	}
	if input.CategoryID != nil {
		var category models.Category
		if err := s.db.First(&category, "id = ?", *input.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.ErrCategoryNotFound
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		asset.CategoryID = *input.CategoryID
	}
	if input.Group != nil {
		asset.Group = *input.Group
	}
	if input.Currency != nil {
		if !models.IsSupportedCurrency(*input.Currency) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency")
		}
		asset.Currency = *input.Currency
	}
	if input.Notes != nil {
		asset.Notes = *input.Notes
	}
	if input.Ticker != nil {
		asset.Ticker = *input.Ticker
	}
	if input.PriceSource != nil {
		asset.PriceSource = *input.PriceSource
	}
	if input.Quantity != nil {
		if *input.Quantity < 0 {
			return nil, apperrors.ErrNegativeQuantity
		}
		asset.Quantity = *input.Quantity
	}
	if input.UnitPrice != nil {
		asset.UnitPrice = *input.UnitPrice
	}
	if input.CurrentValue != nil {
		asset.CurrentValue = *input.CurrentValue
	}

	// Quantity or unit price edits on an auto-priced asset recompute the
	// value, unless the caller set the value explicitly.
	if asset.AutoPriced() && input.CurrentValue == nil && (input.Quantity != nil || input.UnitPrice != nil) {
		asset.CurrentValue = asset.Quantity * asset.UnitPrice
	}

	// The change-log delta must be expressed in one currency: when the
	// currency changed, the old value is converted into the new currency
	// before comparison.
	comparableOld := oldValue
	if asset.Currency != oldCurrency {
		comparableOld = currency.Convert(oldValue, oldCurrency, asset.Currency, s.rates.Current(ctx))
	}

	if err := s.saveWithChangeLog(asset, comparableOld, models.ChangeSourceManual, input.Note); err != nil {
		return nil, err
	}

	notifyNetWorth(ctx, s.db, s.rates, s.observer)
	return asset, nil
}

// QuickUpdate is the dashboard's fast value edit. Auto-priced assets accept
// the add / set-qty / set-value modes; manual assets accept a single
// absolute value, optionally with a currency change.
func (s *assetService) QuickUpdate(ctx context.Context, id string, input QuickUpdateInput) (*models.Asset, error) {
	asset, err := s.GetAssetByID(id)
	if err != nil {
		return nil, err
	}

	oldValue := asset.CurrentValue
	oldCurrency := asset.Currency

	if asset.AutoPriced() {
		switch input.Mode {
		case QuickModeAdd:
			newQty := asset.Quantity + input.Amount
			// A position sold down to exactly zero stays valid; only a
			// negative result is refused.
			if newQty < 0 {
				return nil, apperrors.ErrNegativeQuantity
			}
			asset.Quantity = newQty
			asset.CurrentValue = newQty * asset.UnitPrice
		case QuickModeSetQty:
			if input.Amount < 0 {
				return nil, apperrors.ErrNegativeQuantity
			}
			asset.Quantity = input.Amount
			asset.CurrentValue = input.Amount * asset.UnitPrice
		case QuickModeSetValue:
			// Direct value set for when the cached unit price is stale.
			asset.CurrentValue = input.Amount
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown quick update mode")
		}
	} else {
		switch input.Mode {
		case QuickModeSetValue:
			asset.CurrentValue = input.Amount
			if input.Currency != "" {
				if !models.IsSupportedCurrency(input.Currency) {
					return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unsupported currency")
				}
				asset.Currency = input.Currency
			}
		case QuickModeAdd, QuickModeSetQty:
			return nil, apperrors.ErrNotAutoPriced
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown quick update mode")
		}
	}

	comparableOld := oldValue
	if asset.Currency != oldCurrency {
		comparableOld = currency.Convert(oldValue, oldCurrency, asset.Currency, s.rates.Current(ctx))
	}

	if err := s.saveWithChangeLog(asset, comparableOld, models.ChangeSourceManual, input.Note); err != nil {
		return nil, err
	}

	notifyNetWorth(ctx, s.db, s.rates, s.observer)
	return asset, nil
}

// SetArchived flips the archive flag. Archived assets drop out of every
// aggregate while their historical records stay intact.
func (s *assetService) SetArchived(ctx context.Context, id string, archived bool) (*models.Asset, error) {
	asset, err := s.GetAssetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(asset).Update("is_archived", archived).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notifyNetWorth(ctx, s.db, s.rates, s.observer)
	return asset, nil
}

// DeleteAsset removes an asset. Its change-log entries and snapshot rows
// carry denormalized copies, so history survives the deletion.
func (s *assetService) DeleteAsset(ctx context.Context, id string) error {
	asset, err := s.GetAssetByID(id)
	if err != nil {
		return err
	}

	if err := s.db.Delete(asset).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notifyNetWorth(ctx, s.db, s.rates, s.observer)
	return nil
}

// GetChanges returns the change log for one asset, newest first.
func (s *assetService) GetChanges(assetID string, page pagination.PageRequest) (*pagination.PageResponse[models.AssetChange], error) {
	return s.changes(s.db.Model(&models.AssetChange{}).Where("asset_id = ?", assetID), page)
}

// GetAllChanges returns the change log across all assets, newest first.
func (s *assetService) GetAllChanges(page pagination.PageRequest) (*pagination.PageResponse[models.AssetChange], error) {
	return s.changes(s.db.Model(&models.AssetChange{}), page)
}

func (s *assetService) changes(base *gorm.DB, page pagination.PageRequest) (*pagination.PageResponse[models.AssetChange], error) {
	page.Defaults()

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AssetChange
	if err := base.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// saveWithChangeLog persists the edited asset and, when the rounded value
// moved, appends a change-log entry in the same transaction, so the log and
// the asset can never disagree.
func (s *assetService) saveWithChangeLog(asset *models.Asset, comparableOld float64, source models.ChangeSource, note string) error {
	changed := currency.Round(comparableOld) != currency.Round(asset.CurrentValue)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(asset).Error; err != nil {
			return err
		}
		if !changed {
			return nil
		}
		entry := models.AssetChange{
			AssetID:   asset.ID,
			AssetName: asset.Name,
			OldValue:  comparableOld,
			NewValue:  asset.CurrentValue,
			Currency:  asset.Currency,
			Source:    source,
			Note:      note,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
