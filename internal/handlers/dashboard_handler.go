package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/pagination"
	"dashworth/internal/services"
)

// DashboardHandler serves the aggregated portfolio views.
type DashboardHandler struct {
	dashboardService services.DashboardServicer
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService services.DashboardServicer) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetValuation returns the full converted valuation: breakdown, sections,
// groups, and display-formatted totals.
func (h *DashboardHandler) GetValuation(c *gin.Context) {
	result, err := h.dashboardService.GetValuation(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valuation": result,
		"display": gin.H{
			"total_assets":      formatAmount(result.Breakdown.TotalAssets, result.Currency),
			"total_liabilities": formatAmount(result.Breakdown.TotalLiabilities, result.Currency),
			"net_worth":         formatAmount(result.Breakdown.NetWorth, result.Currency),
		},
	})
}

// GetHistory returns the recorded net-worth time series, newest first.
func (h *DashboardHandler) GetHistory(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	history, err := h.dashboardService.GetHistory(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
