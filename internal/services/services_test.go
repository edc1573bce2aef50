package services

import (
	"context"

	"dashworth/internal/currency"
)

// staticRates serves the offline fallback table, keeping conversion math in
// tests deterministic.
type staticRates struct{}

func (staticRates) Current(context.Context) currency.Rates { return currency.Fallback }

// recordingObserver captures every observed net-worth total.
type recordingObserver struct {
	totals     []float64
	currencies []string
}

func (r *recordingObserver) Observe(total float64, currencyCode string) {
	r.totals = append(r.totals, total)
	r.currencies = append(r.currencies, currencyCode)
}

func ptr[T any](v T) *T { return &v }
