package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
)

// defaultCategories seeds a fresh installation. Sort order follows slice order.
var defaultCategories = []models.Category{
	{Name: "Crypto", Icon: "bitcoin", Color: "#F7931A"},
	{Name: "Stocks & ETFs", Icon: "chart", Color: "#2E86DE"},
	{Name: "Cash & Savings", Icon: "wallet", Color: "#27AE60"},
	{Name: "Real Estate", Icon: "home", Color: "#8E44AD"},
	{Name: "Collectibles", Icon: "gem", Color: "#E67E22"},
	{Name: "Debts & Loans", Icon: "credit-card", Color: "#C0392B", IsLiability: true},
}

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// UpdateCategoryInput carries optional field updates; nil fields are left
// unchanged.
type UpdateCategoryInput struct {
	Name  *string
	Icon  *string
	Color *string
}

// CreateCategory creates a new category at the end of the sort order.
func (s *categoryService) CreateCategory(ctx context.Context, name, icon, color string, isLiability bool) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	var maxOrder int
	if err := s.db.Model(&models.Category{}).
		Select("COALESCE(MAX(sort_order), -1)").
		Scan(&maxOrder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	category := &models.Category{
		Name:        name,
		Icon:        icon,
		Color:       color,
		SortOrder:   maxOrder + 1,
		IsLiability: isLiability,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategories returns all categories ordered by their configured sort order.
func (s *categoryService) GetCategories() ([]models.Category, error) {
	var categories []models.Category
	if err := s.db.Order("sort_order, created_at").Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by id.
func (s *categoryService) GetCategoryByID(id string) (*models.Category, error) {
	var category models.Category
	if err := s.db.First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category's display fields.
func (s *categoryService) UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*models.Category, error) {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
		}
		updates["name"] = *input.Name
	}
	if input.Icon != nil {
		updates["icon"] = *input.Icon
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// SwapSortOrder exchanges the display positions of two categories as one
// transaction, so a crash mid-swap cannot leave both with the same position.
func (s *categoryService) SwapSortOrder(idA, idB string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var a, b models.Category
		if err := tx.First(&a, "id = ?", idA).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.First(&b, "id = ?", idB).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrCategoryNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// The first Update writes through to struct a, so its original
		// order must be captured before the swap.
		origA := a.SortOrder
		if err := tx.Model(&a).Update("sort_order", b.SortOrder).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&b).Update("sort_order", origA).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// DeleteCategory deletes a category. Deletion is refused while any asset
// still references it; callers must reassign or delete those assets first.
func (s *categoryService) DeleteCategory(id string) error {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return err
	}

	var assetCount int64
	if err := s.db.Model(&models.Asset{}).Where("category_id = ?", id).Count(&assetCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if assetCount > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// SeedDefaults creates the default category set on a fresh installation.
// No-ops when any category already exists.
func (s *categoryService) SeedDefaults() error {
	var count int64
	if err := s.db.Model(&models.Category{}).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, def := range defaultCategories {
			category := def
			category.SortOrder = i
			category.IsDefault = true
			if err := tx.Create(&category).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}
