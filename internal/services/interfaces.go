package services

import (
	"context"
	"time"

	"dashworth/internal/currency"
	"dashworth/internal/models"
	"dashworth/internal/pagination"
	"dashworth/internal/valuation"
)

// RateSource supplies the current exchange rate table. Implementations never
// fail; they degrade to cached or fallback rates.
type RateSource interface {
	Current(ctx context.Context) currency.Rates
}

// Observer receives recomputed net-worth totals after mutations. The history
// recorder is the production implementation.
type Observer interface {
	Observe(total float64, currencyCode string)
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name, icon, color string, isLiability bool) (*models.Category, error)
	GetCategories() ([]models.Category, error)
	GetCategoryByID(id string) (*models.Category, error)
	UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*models.Category, error)
	SwapSortOrder(idA, idB string) error
	DeleteCategory(id string) error
	SeedDefaults() error
}

// AssetServicer defines the contract for asset-related business logic.
type AssetServicer interface {
	CreateAsset(ctx context.Context, input CreateAssetInput) (*models.Asset, error)
	GetAssets(includeArchived bool) ([]models.Asset, error)
	GetAssetByID(id string) (*models.Asset, error)
	UpdateAsset(ctx context.Context, id string, input UpdateAssetInput) (*models.Asset, error)
	QuickUpdate(ctx context.Context, id string, input QuickUpdateInput) (*models.Asset, error)
	SetArchived(ctx context.Context, id string, archived bool) (*models.Asset, error)
	DeleteAsset(ctx context.Context, id string) error
	GetChanges(assetID string, page pagination.PageRequest) (*pagination.PageResponse[models.AssetChange], error)
	GetAllChanges(page pagination.PageRequest) (*pagination.PageResponse[models.AssetChange], error)
}

// DashboardServicer computes the live valuation of the portfolio.
type DashboardServicer interface {
	GetValuation(ctx context.Context) (*valuation.Result, error)
	GetHistory(page pagination.PageRequest) (*pagination.PageResponse[models.HistoryEntry], error)
}

// SnapshotServicer defines the contract for snapshot capture and retrieval.
type SnapshotServicer interface {
	CreateManual(ctx context.Context, note string, overrides map[string]float64) (*models.Snapshot, error)
	RunAutomatic(ctx context.Context, now time.Time) (*models.Snapshot, error)
	GetSnapshots(page pagination.PageRequest) (*pagination.PageResponse[models.Snapshot], error)
	GetSnapshotByID(id string) (*models.Snapshot, error)
	DeleteSnapshot(id string) error
}

// GoalServicer defines the contract for goal management and evaluation.
type GoalServicer interface {
	Evaluate(ctx context.Context) ([]GoalProgress, error)
	CreateGoal(input GoalInput) (*models.Goal, error)
	UpdateGoal(id string, input GoalInput) (*models.Goal, error)
	DeleteGoal(id string) error
	MarkCelebrated(id string) error
}

// SettingsServicer defines the contract for the settings singleton.
type SettingsServicer interface {
	Get() (*models.Settings, error)
	Update(ctx context.Context, input UpdateSettingsInput) (*models.Settings, error)
}

// PortfolioServicer defines the contract for whole-store operations:
// export, destructive import, delete-all, and sample data.
type PortfolioServicer interface {
	Export() (*ExportEnvelope, error)
	Import(raw []byte) error
	DeleteAll() error
	LoadSampleData() error
}
