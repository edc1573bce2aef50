package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/services"
)

// importSizeLimit caps uploaded export files. A legitimate export of a
// personal portfolio is a few megabytes at most.
const importSizeLimit = 32 << 20

// PortfolioHandler handles whole-store requests: export, import, reset.
type PortfolioHandler struct {
	portfolioService services.PortfolioServicer
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioService services.PortfolioServicer) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// Export streams the full store as a downloadable JSON file.
func (h *PortfolioHandler) Export(c *gin.Context) {
	envelope, err := h.portfolioService.Export()
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("dashworth-export-%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.JSON(http.StatusOK, envelope)
}

// Import replaces the full store with the uploaded export file. The file is
// validated before anything is deleted.
func (h *PortfolioHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, importSizeLimit))
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidImportFile, err))
		return
	}

	if err := h.portfolioService.Import(raw); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Portfolio imported"})
}

// DeleteAll wipes the store back to a fresh installation.
func (h *PortfolioHandler) DeleteAll(c *gin.Context) {
	if err := h.portfolioService.DeleteAll(); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All data deleted"})
}

// LoadSampleData replaces the store with the example portfolio.
func (h *PortfolioHandler) LoadSampleData(c *gin.Context) {
	if err := h.portfolioService.LoadSampleData(); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sample data loaded"})
}
