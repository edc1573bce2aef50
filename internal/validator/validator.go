// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"dashworth/internal/models"
)

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("display_currency", validateDisplayCurrency)
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("price_source", validatePriceSource)
		_ = v.RegisterValidation("cadence", validateCadence)
		_ = v.RegisterValidation("link_type", validateLinkType)
		_ = v.RegisterValidation("quick_mode", validateQuickMode)
	}
}

// validateDisplayCurrency accepts the currencies the conversion table
// carries, not the full ISO 4217 set: a currency without a rate would
// silently convert 1:1.
func validateDisplayCurrency(fl validator.FieldLevel) bool {
	return models.IsSupportedCurrency(fl.Field().String())
}

func validateHexColor(fl validator.FieldLevel) bool {
	return hexColorRegex.MatchString(fl.Field().String())
}

func validatePriceSource(fl validator.FieldLevel) bool {
	switch models.PriceSource(fl.Field().String()) {
	case models.PriceSourceManual, models.PriceSourceCoinGecko, models.PriceSourceYahoo:
		return true
	}
	return false
}

func validateCadence(fl validator.FieldLevel) bool {
	switch models.Cadence(fl.Field().String()) {
	case models.CadenceOff, models.CadenceDaily, models.CadenceWeekly, models.CadenceMonthly:
		return true
	}
	return false
}

func validateLinkType(fl validator.FieldLevel) bool {
	switch models.LinkType(fl.Field().String()) {
	case models.LinkTypeNetWorth, models.LinkTypeAsset, models.LinkTypeCategory:
		return true
	}
	return false
}

func validateQuickMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "add", "set-qty", "set-value":
		return true
	}
	return false
}
