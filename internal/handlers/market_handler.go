package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/models"
	"dashworth/internal/oracle"
)

// Lookuper resolves a ticker through a price source.
type Lookuper interface {
	Lookup(ctx context.Context, ticker string, source models.PriceSource) (*oracle.Quote, error)
}

// MarketHandler serves ticker lookups so the client can preview a quote
// before saving an auto-priced asset.
type MarketHandler struct {
	oracle Lookuper
}

// NewMarketHandler creates a new MarketHandler.
func NewMarketHandler(o Lookuper) *MarketHandler {
	return &MarketHandler{oracle: o}
}

// Lookup resolves ?ticker= through ?source= and returns the live quote.
func (h *MarketHandler) Lookup(c *gin.Context) {
	ticker := c.Query("ticker")
	if ticker == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "ticker is required"))
		return
	}
	source := models.PriceSource(c.DefaultQuery("source", string(models.PriceSourceYahoo)))
	if source != models.PriceSourceCoinGecko && source != models.PriceSourceYahoo {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown price source"))
		return
	}

	quote, err := h.oracle.Lookup(c.Request.Context(), ticker, source)
	if err != nil {
		if errors.Is(err, oracle.ErrNotFound) {
			respondWithError(c, apperrors.ErrTickerNotFound)
			return
		}
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}
