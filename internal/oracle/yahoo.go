package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"dashworth/internal/models"
)

const yahooUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)"

// yahooChartResponse is the v8 chart API response. Only the meta block is
// used; a single-day range is requested purely for the current price.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				LongName           string  `json:"longName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooProvider fetches stock and ETF quotes from the Yahoo Finance chart
// API. Quotes come back in the listing's native currency only.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string // overridable for tests
}

// NewYahooProvider creates a new Yahoo Finance price provider.
func NewYahooProvider(httpClient *http.Client, baseURL string) *YahooProvider {
	return &YahooProvider{httpClient: httpClient, baseURL: baseURL}
}

// Name returns the provider's display name.
func (p *YahooProvider) Name() string { return "Yahoo Finance" }

// Supports returns true for the yahoo price source only.
func (p *YahooProvider) Supports(source models.PriceSource) bool {
	return source == models.PriceSourceYahoo
}

// Lookup fetches the current quote for a ticker.
func (p *YahooProvider) Lookup(ctx context.Context, ticker string) (*Quote, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	url := fmt.Sprintf("%s/%s?interval=1d&range=1d", p.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building yahoo request: %w", err)
	}
	req.Header.Set("User-Agent", yahooUA)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo http request for %s: %w", symbol, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo request for %s: unexpected status %d", symbol, resp.StatusCode)
	}

	var chartResp yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chartResp); err != nil {
		return nil, fmt.Errorf("decoding yahoo response for %s: %w", symbol, err)
	}

	if chartResp.Chart.Error != nil {
		return nil, ErrNotFound
	}
	if len(chartResp.Chart.Result) == 0 {
		return nil, ErrNotFound
	}

	meta := chartResp.Chart.Result[0].Meta
	if meta.RegularMarketPrice <= 0 || meta.Currency == "" {
		return nil, ErrNotFound
	}

	name := meta.LongName
	if name == "" {
		name = meta.Symbol
	}

	return &Quote{
		Name:            name,
		Symbol:          meta.Symbol,
		PriceByCurrency: map[string]float64{strings.ToUpper(meta.Currency): meta.RegularMarketPrice},
	}, nil
}
