package app

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/stockboard/internal/apiclient/apitest"
	"github.com/newthinker/stockboard/internal/config"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, api *apitest.Server, opts ...func(*config.Config)) *App {
	t.Helper()
	cfg := config.Defaults()
	cfg.API.BaseURL = api.URL
	cfg.API.Timeout = 5 * time.Second
	for _, opt := range opts {
		opt(cfg)
	}

	app, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app
}

func TestApp_New(t *testing.T) {
	api := apitest.New()
	defer api.Close()

	app := newTestApp(t, api)

	stats := app.GetStats()
	assert.False(t, stats["running"].(bool))
	assert.Equal(t, view.TabWatchlist, stats["active_tab"])
	assert.Equal(t, 16, stats["commands"])
}

func TestApp_NewRejectsUnknownInitialTab(t *testing.T) {
	cfg := config.Defaults()
	cfg.UI.InitialTab = "settings"

	_, err := New(cfg, nil)
	assert.ErrorIs(t, err, core.ErrUnknownTab)
}

func TestApp_BootstrapLoadsConcurrently(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.SetWatchlist("AAPL")
	api.SetQuote(core.Quote{Symbol: "AAPL"})

	// A slow health check must not hold back the other panels
	release := make(chan struct{})
	api.Hook(http.MethodGet, "/health", func() { <-release })

	app := newTestApp(t, api)
	app.Bootstrap(context.Background())

	require.Eventually(t, func() bool {
		return app.Document().Region(view.RegionWatchlist).State() == view.StateSuccess &&
			app.Document().Region(view.RegionAlerts).State() == view.StateSuccess
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, view.StateLoading, app.Document().Region(view.RegionHealth).State())

	close(release)
	app.Wait()
	assert.Equal(t, view.StateSuccess, app.Document().Region(view.RegionHealth).State())
}

func TestApp_StartTicksHealth(t *testing.T) {
	api := apitest.New()
	defer api.Close()

	app := newTestApp(t, api, func(c *config.Config) { c.Refresh.HealthInterval = 20 * time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	require.Eventually(t, func() bool {
		return api.Count(http.MethodGet, "/health") >= 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, app.GetStats()["running"].(bool))

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
	assert.False(t, app.GetStats()["running"].(bool))
}

func TestApp_StartTwice(t *testing.T) {
	api := apitest.New()
	defer api.Close()

	app := newTestApp(t, api, func(c *config.Config) { c.Refresh.HealthInterval = time.Hour })

	go func() { _ = app.Start(context.Background()) }()
	require.Eventually(t, func() bool { return app.GetStats()["running"].(bool) }, time.Second, 5*time.Millisecond)

	err := app.Start(context.Background())
	assert.Error(t, err)
	app.Stop()
}

func TestApp_HealthFailureShowsDisconnected(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.Fail(http.MethodGet, "/health", http.StatusBadGateway, "")

	app := newTestApp(t, api)
	app.Bootstrap(context.Background())
	app.Wait()

	snap := app.Document().Region(view.RegionHealth).Snapshot()
	assert.True(t, strings.Contains(string(snap.HTML), "Disconnected"))
	assert.Empty(t, app.Notifier().Active())
}

func TestApp_CommandsReachPanels(t *testing.T) {
	api := apitest.New()
	defer api.Close()
	api.SetQuote(core.Quote{Symbol: "AAPL"})

	app := newTestApp(t, api)

	require.NoError(t, app.Bus().Submit("watchlist.add", []byte(`{"symbol":"aapl"}`)))
	app.Bus().Wait()

	assert.Equal(t, []string{"AAPL"}, api.Watchlist())
	active := app.Notifier().Active()
	require.Len(t, active, 1)
	assert.Equal(t, "AAPL added to watchlist", active[0].Message)
}
