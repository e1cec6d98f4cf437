package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/stockboard/internal/apiclient"
	"github.com/newthinker/stockboard/internal/config"
	"github.com/newthinker/stockboard/internal/dispatch"
	"github.com/newthinker/stockboard/internal/metrics"
	"github.com/newthinker/stockboard/internal/notify"
	"github.com/newthinker/stockboard/internal/panel"
	"github.com/newthinker/stockboard/internal/render"
	"github.com/newthinker/stockboard/internal/view"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// App is the main application orchestrator. It owns the view state and wires
// the panels, the command bus and the background refresh.
type App struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Registry

	client   *apiclient.Client
	doc      *view.Document
	tabs     *view.Tabs
	notifier *notify.Channel
	panels   *panel.Set
	bus      *dispatch.Bus

	interval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      conc.WaitGroup
}

// New creates a new App instance
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := metrics.NewRegistry()

	renderer, err := render.New()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	client := apiclient.New(cfg.API.BaseURL,
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(logger.Named("api")),
		apiclient.WithRecorder(reg),
	)

	initial := cfg.UI.InitialTab
	if initial == "" {
		initial = view.TabWatchlist
	}
	tabs, err := view.NewTabs(view.DefaultTabs, initial)
	if err != nil {
		return nil, err
	}

	doc := view.NewDashboard()
	doc.SetRecorder(reg)

	notifier := notify.New(cfg.Notify.TTL, logger.Named("notify"))
	notifier.SetRecorder(reg)

	panels := panel.NewSet(panel.Deps{
		API:      client,
		Doc:      doc,
		Tabs:     tabs,
		Notifier: notifier,
		Renderer: renderer,
		Logger:   logger.Named("panel"),
		Recorder: reg,
	}, panel.Options{MaxConcurrency: cfg.Watchlist.MaxConcurrency})

	bus := dispatch.NewBus(logger.Named("dispatch"), reg)
	dispatch.Register(bus, dispatch.Dashboard{Panels: panels, Doc: doc, Tabs: tabs})

	interval := cfg.Refresh.HealthInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		metrics:  reg,
		client:   client,
		doc:      doc,
		tabs:     tabs,
		notifier: notifier,
		panels:   panels,
		bus:      bus,
		interval: interval,
	}, nil
}

// Start bootstraps the dashboard and refreshes health until ctx ends.
// Health, watchlist and alerts load concurrently; none waits for another.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	interval := a.interval
	a.mu.Unlock()

	a.logger.Info("stockboard starting",
		zap.String("api", a.client.BaseURL()),
		zap.Duration("health_interval", interval),
	)

	a.Bootstrap(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stockboard shutting down")
			a.wg.Wait()
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.wg.Go(func() { a.checkHealth(ctx) })
		}
	}
}

// Bootstrap fires the initial loads without waiting for them.
func (a *App) Bootstrap(ctx context.Context) {
	a.wg.Go(func() { a.checkHealth(ctx) })
	a.wg.Go(func() {
		if err := a.panels.Watchlist.Load(ctx); err != nil {
			a.logger.Warn("initial watchlist load failed", zap.Error(err))
		}
	})
	a.wg.Go(func() {
		if err := a.panels.Alerts.Load(ctx); err != nil {
			a.logger.Warn("initial alerts load failed", zap.Error(err))
		}
	})
}

// Wait blocks until background loads started by Bootstrap have finished.
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) checkHealth(ctx context.Context) {
	if err := a.panels.Health.Check(ctx); err != nil {
		a.logger.Debug("health check failed", zap.Error(err))
	}
}

// Stop stops the refresh loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// Close stops the app and releases its subscriptions and timers.
func (a *App) Close() {
	a.Stop()
	a.bus.Close()
	a.notifier.Close()
	a.tabs.Close()
	a.doc.Close()
}

// GetStats returns application statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"running":       a.running,
		"active_tab":    a.tabs.Active(),
		"notifications": len(a.notifier.Active()),
		"commands":      len(a.bus.Names()),
		"api":           a.client.BaseURL(),
	}
}

// Document returns the view document.
func (a *App) Document() *view.Document { return a.doc }

// Tabs returns the tab switch.
func (a *App) Tabs() *view.Tabs { return a.tabs }

// Notifier returns the notification channel.
func (a *App) Notifier() *notify.Channel { return a.notifier }

// Bus returns the command bus.
func (a *App) Bus() *dispatch.Bus { return a.bus }

// Panels returns the panel controllers.
func (a *App) Panels() *panel.Set { return a.panels }

// Metrics returns the metrics registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Client returns the API client.
func (a *App) Client() *apiclient.Client { return a.client }
