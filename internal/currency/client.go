package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"dashworth/internal/logger"
	"dashworth/internal/models"
)

// Client fetches exchange rates from a frankfurter-style endpoint and keeps
// the last successfully fetched table in memory. Rate fetching is strictly
// best-effort: Current never fails, it falls back to the cached table and
// finally to the hardcoded Fallback rates.
type Client struct {
	httpClient *http.Client
	baseURL    string // overridable for tests

	mu        sync.RWMutex
	rates     Rates
	fetchedAt time.Time
	ttl       time.Duration
}

// NewClient creates a rate client. ttl bounds how long a fetched table is
// served before a refresh is attempted.
func NewClient(httpClient *http.Client, baseURL string, ttl time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		ttl:        ttl,
	}
}

// ratesResponse is the frankfurter-style latest-rates payload.
type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// Current returns the freshest available rate table. It refreshes from the
// remote endpoint when the cached table is stale, and silently degrades to
// the cached or fallback table when the fetch fails.
func (c *Client) Current(ctx context.Context) Rates {
	c.mu.RLock()
	cached := c.rates
	fresh := cached != nil && time.Since(c.fetchedAt) < c.ttl
	c.mu.RUnlock()

	if fresh {
		return cached
	}

	fetched, err := c.fetch(ctx)
	if err != nil {
		logger.Get().Warnw("rate fetch failed, using offline rates", "error", err.Error())
		if cached != nil {
			return cached
		}
		return Fallback
	}

	c.mu.Lock()
	c.rates = fetched
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	return fetched
}

// fetch retrieves the latest rate table anchored at USD.
func (c *Client) fetch(ctx context.Context) (Rates, error) {
	symbols := make([]string, 0, len(models.SupportedCurrencies)-1)
	for _, code := range models.SupportedCurrencies {
		if code != models.CurrencyUSD {
			symbols = append(symbols, code)
		}
	}
	url := fmt.Sprintf("%s?base=USD&symbols=%s", c.baseURL, strings.Join(symbols, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rates http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rates request: unexpected status %d", resp.StatusCode)
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding rates response: %w", err)
	}

	rates := Rates{models.CurrencyUSD: 1.0}
	for code, rate := range payload.Rates {
		if rate > 0 {
			rates[code] = rate
		}
	}
	if len(rates) < 2 {
		return nil, fmt.Errorf("rates response contained no usable rates")
	}

	return rates, nil
}
