package models

// Supported display currencies. USD is the anchor currency: exchange rate
// tables express every other currency relative to USD = 1.0.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyCZK = "CZK"
)

// SupportedCurrencies lists the currencies an asset or the display setting
// may use.
var SupportedCurrencies = []string{CurrencyUSD, CurrencyEUR, CurrencyCZK}

// IsSupportedCurrency reports whether code is one of the supported currencies.
func IsSupportedCurrency(code string) bool {
	for _, c := range SupportedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
