package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/pagination"
	"dashworth/internal/services"
)

// SnapshotHandler handles snapshot capture and retrieval requests.
type SnapshotHandler struct {
	snapshotService services.SnapshotServicer
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotService services.SnapshotServicer) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: snapshotService}
}

// CreateSnapshotRequest represents the request payload for a manual snapshot.
// Overrides replace individual asset values before freezing, keyed by asset id.
type CreateSnapshotRequest struct {
	Note      string             `json:"note" binding:"max=500"`
	Overrides map[string]float64 `json:"overrides"`
}

// CreateSnapshot captures a manual snapshot of the current portfolio.
func (h *SnapshotHandler) CreateSnapshot(c *gin.Context) {
	var req CreateSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	snapshot, err := h.snapshotService.CreateManual(c.Request.Context(), req.Note, req.Overrides)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// RunAutomatic triggers the cadence check on demand; the client calls this on
// startup so a machine that slept through the schedule still catches up.
func (h *SnapshotHandler) RunAutomatic(c *gin.Context) {
	snapshot, err := h.snapshotService.RunAutomatic(c.Request.Context(), time.Now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{"snapshot": nil, "message": "No snapshot due"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// GetSnapshots returns snapshots newest first.
func (h *SnapshotHandler) GetSnapshots(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	snapshots, err := h.snapshotService.GetSnapshots(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

// GetSnapshotByID returns one snapshot with its frozen entries.
func (h *SnapshotHandler) GetSnapshotByID(c *gin.Context) {
	snapshot, err := h.snapshotService.GetSnapshotByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// DeleteSnapshot removes a snapshot and its entries.
func (h *SnapshotHandler) DeleteSnapshot(c *gin.Context) {
	if err := h.snapshotService.DeleteSnapshot(c.Param("id")); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Snapshot deleted"})
}
