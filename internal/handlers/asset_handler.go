package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/pagination"
	"dashworth/internal/services"
)

// AssetHandler handles asset-related requests.
type AssetHandler struct {
	assetService services.AssetServicer
}

// NewAssetHandler creates a new AssetHandler.
func NewAssetHandler(assetService services.AssetServicer) *AssetHandler {
	return &AssetHandler{assetService: assetService}
}

// CreateAssetRequest represents the request payload for creating an asset.
type CreateAssetRequest struct {
	Name         string             `json:"name" binding:"required,min=1,max=100"`
	CategoryID   string             `json:"category_id" binding:"required"`
	Group        string             `json:"group" binding:"max=100"`
	Currency     string             `json:"currency" binding:"required,display_currency"`
	CurrentValue float64            `json:"current_value"`
	Notes        string             `json:"notes" binding:"max=1000"`
	Ticker       string             `json:"ticker" binding:"max=50"`
	PriceSource  models.PriceSource `json:"price_source" binding:"omitempty,price_source"`
	Quantity     float64            `json:"quantity" binding:"gte=0"`
	UnitPrice    float64            `json:"unit_price" binding:"gte=0"`
}

// UpdateAssetRequest represents the request payload for updating an asset.
type UpdateAssetRequest struct {
	Name         *string             `json:"name" binding:"omitempty,min=1,max=100"`
	CategoryID   *string             `json:"category_id"`
	Group        *string             `json:"group" binding:"omitempty,max=100"`
	Currency     *string             `json:"currency" binding:"omitempty,display_currency"`
	CurrentValue *float64            `json:"current_value"`
	Notes        *string             `json:"notes" binding:"omitempty,max=1000"`
	Ticker       *string             `json:"ticker" binding:"omitempty,max=50"`
	PriceSource  *models.PriceSource `json:"price_source" binding:"omitempty,price_source"`
	Quantity     *float64            `json:"quantity" binding:"omitempty,gte=0"`
	UnitPrice    *float64            `json:"unit_price" binding:"omitempty,gte=0"`
	Note         string              `json:"note" binding:"max=500"`
}

// QuickUpdateRequest represents the fast-path value update from the dashboard.
type QuickUpdateRequest struct {
	Mode     string  `json:"mode" binding:"required,quick_mode"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency" binding:"omitempty,display_currency"`
	Note     string  `json:"note" binding:"max=500"`
}

// ArchiveRequest represents the archive flag toggle.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

// CreateAsset handles the creation of a new asset.
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.CreateAsset(c.Request.Context(), services.CreateAssetInput{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		Group:        req.Group,
		Currency:     req.Currency,
		CurrentValue: req.CurrentValue,
		Notes:        req.Notes,
		Ticker:       req.Ticker,
		PriceSource:  req.PriceSource,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"asset": asset})
}

// GetAssets returns all assets; archived ones only when ?include_archived=true.
func (h *AssetHandler) GetAssets(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"

	assets, err := h.assetService.GetAssets(includeArchived)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

// GetAssetByID returns a single asset.
func (h *AssetHandler) GetAssetByID(c *gin.Context) {
	asset, err := h.assetService.GetAssetByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// UpdateAsset handles a full field edit of an asset.
func (h *AssetHandler) UpdateAsset(c *gin.Context) {
	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.UpdateAsset(c.Request.Context(), c.Param("id"), services.UpdateAssetInput{
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		Group:        req.Group,
		Currency:     req.Currency,
		CurrentValue: req.CurrentValue,
		Notes:        req.Notes,
		Ticker:       req.Ticker,
		PriceSource:  req.PriceSource,
		Quantity:     req.Quantity,
		UnitPrice:    req.UnitPrice,
		Note:         req.Note,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// QuickUpdate handles the dashboard's fast value edit.
func (h *AssetHandler) QuickUpdate(c *gin.Context) {
	var req QuickUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.QuickUpdate(c.Request.Context(), c.Param("id"), services.QuickUpdateInput{
		Mode:     req.Mode,
		Amount:   req.Amount,
		Currency: req.Currency,
		Note:     req.Note,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// SetArchived toggles the archive flag of an asset.
func (h *AssetHandler) SetArchived(c *gin.Context) {
	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	asset, err := h.assetService.SetArchived(c.Request.Context(), c.Param("id"), req.Archived)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"asset": asset})
}

// DeleteAsset deletes an asset; its change log and snapshots survive.
func (h *AssetHandler) DeleteAsset(c *gin.Context) {
	if err := h.assetService.DeleteAsset(c.Request.Context(), c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Asset deleted"})
}

// GetChanges returns the change log for one asset, newest first.
func (h *AssetHandler) GetChanges(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	changes, err := h.assetService.GetChanges(c.Param("id"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, changes)
}

// GetAllChanges returns the change log across all assets, newest first.
func (h *AssetHandler) GetAllChanges(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	changes, err := h.assetService.GetAllChanges(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, changes)
}
