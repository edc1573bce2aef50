package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/services"
)

// SettingsHandler handles the settings singleton requests.
type SettingsHandler struct {
	settingsService services.SettingsServicer
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(settingsService services.SettingsServicer) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// UpdateSettingsRequest represents the request payload for settings changes.
type UpdateSettingsRequest struct {
	PrimaryCurrency  *string           `json:"primary_currency" binding:"omitempty,display_currency"`
	Theme            *string           `json:"theme" binding:"omitempty,oneof=system light dark"`
	SnapshotReminder *models.Cadence   `json:"snapshot_reminder" binding:"omitempty,cadence"`
	AutoSnapshot     *models.Cadence   `json:"auto_snapshot" binding:"omitempty,cadence"`
	CustomColors     map[string]string `json:"custom_colors"`
}

// GetSettings returns the settings singleton.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateSettings applies partial settings changes.
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), services.UpdateSettingsInput{
		PrimaryCurrency:  req.PrimaryCurrency,
		Theme:            req.Theme,
		SnapshotReminder: req.SnapshotReminder,
		AutoSnapshot:     req.AutoSnapshot,
		CustomColors:     req.CustomColors,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
