package apiclient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/newthinker/stockboard/internal/apiclient/apitest"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestEndpoints_Watchlist(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.SetWatchlist("MSFT")

	c := New(api.URL)
	ctx := context.Background()

	require.NoError(t, c.AddWatchlist(ctx, "AAPL"))
	symbols, err := c.Watchlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT", "AAPL"}, symbols)

	require.NoError(t, c.RemoveWatchlist(ctx, "MSFT"))
	symbols, err = c.Watchlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL"}, symbols)

	err = c.RemoveWatchlist(ctx, "NOPE")
	require.Error(t, err)
	assert.Equal(t, "NOPE not in watchlist", err.Error())

	reqs := api.Requests()
	assert.Equal(t, "AAPL", reqs[0].Body["symbol"])
}

func TestEndpoints_QuoteAndAnalyze(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.SetQuote(core.Quote{Symbol: "AAPL", Price: f(190.5), ChangePct: f(1.2),
		Technicals: core.Technicals{{Name: "rsi_14", Value: f(55)}}})
	api.SetAnalysis(core.Analysis{Quote: core.Quote{Symbol: "AAPL"}, AIRecommendation: "BUY", AIAnalysis: "## Good"})

	c := New(api.URL)
	ctx := context.Background()

	q, err := c.Quote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.5, *q.Price)
	rsi, ok := q.Technicals.Get("rsi_14")
	require.True(t, ok)
	assert.Equal(t, 55.0, *rsi)

	a, err := c.Analyze(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", a.Symbol)
	assert.Equal(t, "BUY", a.AIRecommendation)
	assert.Equal(t, "## Good", a.AIAnalysis)

	_, err = c.Quote(ctx, "ZZZZ")
	assert.EqualError(t, err, "No data for ZZZZ")
}

func TestEndpoints_SymbolIsPathEscaped(t *testing.T) {
	api := apitest.New()
	defer api.Close()

	_, _ = New(api.URL).Quote(context.Background(), "A B")

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/quote/A B", reqs[0].Path)
}

func TestEndpoints_Portfolio(t *testing.T) {
	api := apitest.New()
	defer api.Close()

	c := New(api.URL)
	ctx := context.Background()

	p, err := c.Portfolio(ctx)
	require.NoError(t, err)
	assert.Empty(t, p.Holdings)
	assert.Equal(t, core.EmptyPortfolioSentinel, p.AISummary)
	assert.False(t, p.HasSummary())

	require.NoError(t, c.AddHolding(ctx, HoldingRequest{Symbol: "AAPL", Shares: 10, AvgCost: 150}))
	reqs := api.Requests()
	body := reqs[len(reqs)-1].Body
	assert.Equal(t, 10.0, body["shares"])
	assert.Equal(t, 150.0, body["avg_cost"])

	p, err = c.Portfolio(ctx)
	require.NoError(t, err)
	require.Len(t, p.Holdings, 1)

	require.NoError(t, c.RemoveHolding(ctx, "AAPL"))
	assert.Equal(t, 1, api.Count(http.MethodDelete, "/portfolio/AAPL"))
}

func TestEndpoints_Alerts(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.SetCheck(core.AlertCheck{
		Message:   "1 alert triggered",
		Triggered: []core.TriggeredAlert{{ID: 1, Symbol: "MSFT", Condition: core.ConditionAbove, TargetPrice: 400, CurrentPrice: 405}},
	})

	c := New(api.URL)
	ctx := context.Background()

	require.NoError(t, c.CreateAlert(ctx, AlertRequest{Symbol: "MSFT", Condition: core.ConditionAbove, Price: 400}))
	alerts, err := c.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.True(t, bool(alerts[0].Active))

	check, err := c.CheckAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1 alert triggered", check.Message)
	require.Len(t, check.Triggered, 1)
	assert.Equal(t, 405.0, check.Triggered[0].CurrentPrice)

	alerts, err = c.Alerts(ctx)
	require.NoError(t, err)
	assert.False(t, bool(alerts[0].Active))
}

func TestEndpoints_HealthAndBriefing(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	ts := time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)
	api.SetBriefing(core.Briefing{AISummary: "calm", WatchlistData: []core.Quote{{Symbol: "AAPL"}}, Timestamp: ts})

	c := New(api.URL)
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.True(t, h.OK())
	assert.Equal(t, "ollama", h.Provider)

	b, err := c.Briefing(ctx)
	require.NoError(t, err)
	assert.Equal(t, "calm", b.AISummary)
	assert.True(t, ts.Equal(b.Timestamp))
	require.Len(t, b.WatchlistData, 1)

	api.Fail(http.MethodPost, "/briefing", http.StatusServiceUnavailable, "LLM offline")
	_, err = c.Briefing(ctx)
	assert.EqualError(t, err, "LLM offline")
}
