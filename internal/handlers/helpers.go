package handlers

import (
	"errors"
	"math"

	"github.com/Rhymond/go-money"
	"github.com/gin-gonic/gin"

	apperrors "dashworth/internal/errors"
	"dashworth/internal/logger"
)

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// formatAmount renders a float amount as a localized currency string, e.g.
// "$1,234.56". Unknown codes fall back to a bare two-decimal rendering.
func formatAmount(amount float64, currencyCode string) string {
	if money.GetCurrency(currencyCode) == nil {
		return money.New(int64(math.Round(amount*100)), money.USD).Display()
	}
	return money.New(int64(math.Round(amount*100)), currencyCode).Display()
}
