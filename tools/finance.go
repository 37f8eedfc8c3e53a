package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// StockInfo looks up a quote summary for one ticker symbol from the public
// chart API.
type StockInfo struct {
	BaseURL string
	Client  *http.Client
}

func (StockInfo) Name() string { return "get_stock_info" }

func (StockInfo) Description() string {
	return "Get the latest price and daily change for a stock ticker symbol."
}

func (StockInfo) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{
				"type":        "string",
				"description": "The ticker symbol, e.g. AAPL",
			},
		},
		"required": []string{"symbol"},
	}
}

func (s StockInfo) Invoke(ctx context.Context, args map[string]any) (string, error) {
	symbol, _ := args["symbol"].(string)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("get_stock_info: empty symbol")
	}

	base := s.BaseURL
	if base == "" {
		base = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	endpoint := fmt.Sprintf("%s/%s?range=1d&interval=1d", base, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	body, err := doSearch(s.Client, req)
	if err != nil {
		return "", fmt.Errorf("get_stock_info: %w", err)
	}

	var parsed struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					Currency           string  `json:"currency"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
					PreviousClose      float64 `json:"chartPreviousClose"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Chart.Result) == 0 {
		return "", fmt.Errorf("get_stock_info: no data for %q", symbol)
	}

	meta := parsed.Chart.Result[0].Meta
	change := meta.RegularMarketPrice - meta.PreviousClose
	pct := 0.0
	if meta.PreviousClose != 0 {
		pct = change / meta.PreviousClose * 100
	}
	return fmt.Sprintf("%s: %.2f %s (%+.2f, %+.2f%% vs previous close %.2f)",
		meta.Symbol, meta.RegularMarketPrice, meta.Currency, change, pct, meta.PreviousClose), nil
}
