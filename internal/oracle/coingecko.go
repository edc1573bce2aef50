package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dashworth/internal/models"
)

// CoinGeckoProvider fetches crypto prices from the CoinGecko simple-price
// endpoint. Tickers are CoinGecko coin ids ("bitcoin", "ethereum").
type CoinGeckoProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewCoinGeckoProvider creates a new CoinGecko price provider.
func NewCoinGeckoProvider(httpClient *http.Client, baseURL string) *CoinGeckoProvider {
	return &CoinGeckoProvider{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the provider's display name.
func (p *CoinGeckoProvider) Name() string { return "CoinGecko" }

// Supports returns true for the coingecko price source only.
func (p *CoinGeckoProvider) Supports(source models.PriceSource) bool {
	return source == models.PriceSourceCoinGecko
}

// Lookup fetches the current price of a coin in every supported currency.
func (p *CoinGeckoProvider) Lookup(ctx context.Context, ticker string) (*Quote, error) {
	id := strings.ToLower(strings.TrimSpace(ticker))
	currencies := strings.ToLower(strings.Join(models.SupportedCurrencies, ","))
	url := fmt.Sprintf("%s?ids=%s&vs_currencies=%s", p.baseURL, id, currencies)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building coingecko request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko http request for %s: %w", id, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko request for %s: unexpected status %d", id, resp.StatusCode)
	}

	// Response shape: {"bitcoin": {"usd": 64000, "eur": 59000, ...}}.
	// An unknown id comes back as an empty object rather than an error.
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding coingecko response for %s: %w", id, err)
	}

	prices, ok := payload[id]
	if !ok || len(prices) == 0 {
		return nil, ErrNotFound
	}

	byCurrency := make(map[string]float64, len(prices))
	for code, price := range prices {
		if price > 0 {
			byCurrency[strings.ToUpper(code)] = price
		}
	}
	if len(byCurrency) == 0 {
		return nil, ErrNotFound
	}

	return &Quote{Name: id, Symbol: id, PriceByCurrency: byCurrency}, nil
}
