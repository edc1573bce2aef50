// Package oracle fetches live quotes for auto-priced assets from external
// data sources. Every lookup failure is a soft failure: callers skip the
// affected asset and move on.
package oracle

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"dashworth/internal/models"
)

// ErrNotFound signals that a provider does not know the requested ticker.
var ErrNotFound = errors.New("ticker not found")

// Quote is a resolved ticker with its unit price per currency. A currency
// missing from PriceByCurrency means the provider could not quote in it;
// callers treat that the same as a failed lookup for that currency.
type Quote struct {
	Name            string             `json:"name"`
	Symbol          string             `json:"symbol"`
	PriceByCurrency map[string]float64 `json:"price_by_currency"`
}

// Provider fetches quotes from one external data source.
type Provider interface {
	// Name returns the provider's display name (e.g. "Yahoo Finance").
	Name() string

	// Supports returns true if this provider serves the given price source.
	Supports(source models.PriceSource) bool

	// Lookup fetches the current quote for a ticker. Returns ErrNotFound
	// when the source does not know the ticker.
	Lookup(ctx context.Context, ticker string) (*Quote, error)
}

// cachedQuote is a quote with its fetch time for TTL checks.
type cachedQuote struct {
	quote     *Quote
	fetchedAt time.Time
}

// Oracle dispatches lookups to the provider matching an asset's price source
// and caches results for a bounded TTL to avoid redundant calls during a
// refresh batch.
type Oracle struct {
	providers []Provider
	ttl       time.Duration

	mu    sync.Mutex
	cache map[string]cachedQuote
}

// New creates an Oracle over the given providers.
func New(ttl time.Duration, providers ...Provider) *Oracle {
	return &Oracle{
		providers: providers,
		ttl:       ttl,
		cache:     make(map[string]cachedQuote),
	}
}

// NewDefault creates an Oracle with the CoinGecko and Yahoo providers.
func NewDefault(httpClient *http.Client, coingeckoURL, yahooURL string, ttl time.Duration) *Oracle {
	return New(ttl,
		NewCoinGeckoProvider(httpClient, coingeckoURL),
		NewYahooProvider(httpClient, yahooURL),
	)
}

// Lookup resolves a ticker through the provider serving the given source.
func (o *Oracle) Lookup(ctx context.Context, ticker string, source models.PriceSource) (*Quote, error) {
	key := string(source) + ":" + ticker

	o.mu.Lock()
	cached, ok := o.cache[key]
	o.mu.Unlock()
	if ok && time.Since(cached.fetchedAt) < o.ttl {
		return cached.quote, nil
	}

	for _, p := range o.providers {
		if !p.Supports(source) {
			continue
		}
		quote, err := p.Lookup(ctx, ticker)
		if err != nil {
			return nil, err
		}
		o.mu.Lock()
		o.cache[key] = cachedQuote{quote: quote, fetchedAt: time.Now()}
		o.mu.Unlock()
		return quote, nil
	}

	return nil, ErrNotFound
}
