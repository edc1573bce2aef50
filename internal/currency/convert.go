// Package currency converts amounts between display currencies using a rate
// table anchored to USD.
package currency

import "math"

// Rates maps a currency code to its value relative to the anchor currency
// (USD = 1.0). A rate of 0.92 for EUR means 1 USD buys 0.92 EUR.
type Rates map[string]float64

// Fallback is the hardcoded rate table used when no fetched table is
// available. Approximate values; the rate client replaces them on the first
// successful fetch.
var Fallback = Rates{
	"USD": 1.0,
	"EUR": 0.92,
	"CZK": 23.5,
}

// Convert converts amount from one currency to another. Same-currency
// conversions return the amount unchanged with no floating round-trip.
// A currency missing from the table degrades to the identity rate 1 rather
// than erroring, so valuation never fails on an unknown code.
func Convert(amount float64, from, to string, rates Rates) float64 {
	if from == to {
		return amount
	}
	return amount / rateOrIdentity(rates, from) * rateOrIdentity(rates, to)
}

// Round rounds a converted amount to the nearest whole unit. Change
// detection compares rounded values so float noise never produces entries.
func Round(amount float64) float64 {
	return math.Round(amount)
}

func rateOrIdentity(rates Rates, code string) float64 {
	if r, ok := rates[code]; ok && r != 0 {
		return r
	}
	return 1
}
