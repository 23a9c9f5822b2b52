// Package apisource fetches tickers, strategy decisions, and daily prices
// from the research data API.
package apisource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"strategy-perf-lab/internal/domain"
)

const (
	// AssetTypeStocks selects the stock decision and price endpoints.
	AssetTypeStocks = "stocks"
	// AssetTypeCrypto selects the crypto decision and price endpoints.
	AssetTypeCrypto = "crypto"

	defaultTimeout = 30 * time.Second
	dateLayout     = "2006-01-02"
)

// ClientOption configures Client.
type ClientOption func(*Client)

// Client is a bearer-token JSON client for the data API. Decision endpoints
// live on a different host than price endpoints, hence two base URLs.
type Client struct {
	baseURL         string
	decisionBaseURL string
	token           string
	httpClient      *http.Client
}

// NewClient creates a new API client. decisionBaseURL falls back to baseURL
// when empty.
func NewClient(baseURL, decisionBaseURL, token string, opts ...ClientOption) *Client {
	if decisionBaseURL == "" {
		decisionBaseURL = baseURL
	}
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		decisionBaseURL: strings.TrimRight(decisionBaseURL, "/"),
		token:           token,
		httpClient:      &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Tickers returns the tickers that have decisions in a dataset.
func (c *Client) Tickers(ctx context.Context, assetType, dataset string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/backtester_decisions/%s/tickers", c.decisionBaseURL, assetType)

	var tickers []string
	params := url.Values{"dataset": {dataset}}
	if err := c.getJSON(ctx, endpoint, params, &tickers); err != nil {
		return nil, fmt.Errorf("fetch tickers: %w", err)
	}
	return tickers, nil
}

// decisionRow is the wire format of a decision record.
type decisionRow struct {
	Ticker   string `json:"ticker"`
	Strategy string `json:"strategy"`
	Date     string `json:"date"`
	Action   string `json:"action"`
}

// Decisions returns all strategy decisions for a ticker in a dataset. Rows
// missing a ticker are backfilled with the requested one.
func (c *Client) Decisions(ctx context.Context, assetType, ticker, dataset string) ([]domain.Decision, error) {
	endpoint := fmt.Sprintf("%s/backtester_decisions/%s/%s", c.decisionBaseURL, assetType, url.PathEscape(ticker))

	var rows []decisionRow
	params := url.Values{"dataset": {dataset}}
	if err := c.getJSON(ctx, endpoint, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch decisions for %s: %w", ticker, err)
	}

	decisions := make([]domain.Decision, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("parse decision date %q for %s: %w", row.Date, ticker, err)
		}
		if row.Ticker == "" {
			row.Ticker = ticker
		}
		decisions = append(decisions, domain.Decision{
			Ticker:   row.Ticker,
			Strategy: row.Strategy,
			Date:     domain.Day(date),
			Action:   domain.ParseAction(row.Action),
		})
	}
	return decisions, nil
}

// priceRow is the wire format of a daily price record.
type priceRow struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Prices returns daily closes for a ticker within [start, end].
func (c *Client) Prices(ctx context.Context, assetType, ticker string, start, end time.Time) ([]domain.PriceObservation, error) {
	resource := "stock_prices"
	if assetType == AssetTypeCrypto {
		resource = "crypto_prices"
	}
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, resource)

	params := url.Values{
		"ticker":     {ticker},
		"start_date": {start.Format(dateLayout)},
		"end_date":   {end.Format(dateLayout)},
	}

	var rows []priceRow
	if err := c.getJSON(ctx, endpoint, params, &rows); err != nil {
		return nil, fmt.Errorf("fetch prices for %s: %w", ticker, err)
	}

	prices := make([]domain.PriceObservation, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, fmt.Errorf("parse price date %q for %s: %w", row.Date, ticker, err)
		}
		prices = append(prices, domain.PriceObservation{
			Ticker: ticker,
			Date:   domain.Day(date),
			Close:  row.Close,
		})
	}
	return prices, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if len(params) > 0 {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
