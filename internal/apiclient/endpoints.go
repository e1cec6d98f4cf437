package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/newthinker/stockboard/internal/core"
)

type watchlistResponse struct {
	Symbols []string `json:"symbols"`
}

type alertsResponse struct {
	Alerts []core.Alert `json:"alerts"`
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// HoldingRequest is the body of POST /portfolio.
type HoldingRequest struct {
	Symbol  string  `json:"symbol"`
	Shares  float64 `json:"shares"`
	AvgCost float64 `json:"avg_cost"`
}

// AlertRequest is the body of POST /alerts.
type AlertRequest struct {
	Symbol    string         `json:"symbol"`
	Condition core.Condition `json:"condition"`
	Price     float64        `json:"price"`
}

func symbolPath(prefix, symbol string) string {
	return prefix + url.PathEscape(symbol)
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*core.Health, error) {
	var h core.Health
	if err := c.Do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Watchlist returns the watchlist symbols in membership order.
func (c *Client) Watchlist(ctx context.Context) ([]string, error) {
	var resp watchlistResponse
	if err := c.Do(ctx, http.MethodGet, "/watchlist", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// AddWatchlist adds a symbol to the watchlist.
func (c *Client) AddWatchlist(ctx context.Context, symbol string) error {
	return c.Do(ctx, http.MethodPost, "/watchlist", symbolRequest{Symbol: symbol}, nil)
}

// RemoveWatchlist removes a symbol from the watchlist.
func (c *Client) RemoveWatchlist(ctx context.Context, symbol string) error {
	return c.Do(ctx, http.MethodDelete, symbolPath("/watchlist/", symbol), nil, nil)
}

// Quote fetches the data-only view of a symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (*core.Quote, error) {
	var q core.Quote
	if err := c.Do(ctx, http.MethodGet, symbolPath("/quote/", symbol), nil, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Analyze fetches a quote plus AI analysis.
func (c *Client) Analyze(ctx context.Context, symbol string) (*core.Analysis, error) {
	var a core.Analysis
	if err := c.Do(ctx, http.MethodGet, symbolPath("/analyze/", symbol), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Portfolio fetches holdings with server-computed figures.
func (c *Client) Portfolio(ctx context.Context) (*core.Portfolio, error) {
	var p core.Portfolio
	if err := c.Do(ctx, http.MethodGet, "/portfolio", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddHolding adds a position.
func (c *Client) AddHolding(ctx context.Context, h HoldingRequest) error {
	return c.Do(ctx, http.MethodPost, "/portfolio", h, nil)
}

// RemoveHolding removes a position.
func (c *Client) RemoveHolding(ctx context.Context, symbol string) error {
	return c.Do(ctx, http.MethodDelete, symbolPath("/portfolio/", symbol), nil, nil)
}

// Alerts lists price alerts.
func (c *Client) Alerts(ctx context.Context) ([]core.Alert, error) {
	var resp alertsResponse
	if err := c.Do(ctx, http.MethodGet, "/alerts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Alerts, nil
}

// CreateAlert creates a price alert.
func (c *Client) CreateAlert(ctx context.Context, a AlertRequest) error {
	return c.Do(ctx, http.MethodPost, "/alerts", a, nil)
}

// CheckAlerts asks the server to evaluate every active alert.
func (c *Client) CheckAlerts(ctx context.Context) (*core.AlertCheck, error) {
	var check core.AlertCheck
	if err := c.Do(ctx, http.MethodPost, "/check-alerts", nil, &check); err != nil {
		return nil, err
	}
	return &check, nil
}

// Briefing requests the daily briefing.
func (c *Client) Briefing(ctx context.Context) (*core.Briefing, error) {
	var b core.Briefing
	if err := c.Do(ctx, http.MethodPost, "/briefing", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
