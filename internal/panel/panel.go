// Package panel implements the dashboard panel controllers. Each controller
// owns one or more view regions, calls the remote API, and commits rendered
// results through region tickets so stale responses are dropped.
package panel

import (
	"context"
	"errors"

	"github.com/newthinker/stockboard/internal/apiclient"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/notify"
	"github.com/newthinker/stockboard/internal/render"
	"github.com/newthinker/stockboard/internal/view"
	"go.uber.org/zap"
)

// Panel outcomes recorded in metrics.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
	OutcomeInvalid = "invalid"
)

// API is the subset of the StockBot client the panels use.
type API interface {
	Health(ctx context.Context) (*core.Health, error)
	Watchlist(ctx context.Context) ([]string, error)
	AddWatchlist(ctx context.Context, symbol string) error
	RemoveWatchlist(ctx context.Context, symbol string) error
	Quote(ctx context.Context, symbol string) (*core.Quote, error)
	Analyze(ctx context.Context, symbol string) (*core.Analysis, error)
	Portfolio(ctx context.Context) (*core.Portfolio, error)
	AddHolding(ctx context.Context, h apiclient.HoldingRequest) error
	RemoveHolding(ctx context.Context, symbol string) error
	Alerts(ctx context.Context) ([]core.Alert, error)
	CreateAlert(ctx context.Context, a apiclient.AlertRequest) error
	CheckAlerts(ctx context.Context) (*core.AlertCheck, error)
	Briefing(ctx context.Context) (*core.Briefing, error)
}

// Recorder receives panel metrics.
type Recorder interface {
	RecordPanel(panel, outcome string)
	RecordPartialFailures(panel string, n int)
	SetWatchlistSize(size int)
}

type nopRecorder struct{}

func (nopRecorder) RecordPanel(string, string)        {}
func (nopRecorder) RecordPartialFailures(string, int) {}
func (nopRecorder) SetWatchlistSize(int)              {}

// Deps are the collaborators shared by every panel.
type Deps struct {
	API      API
	Doc      *view.Document
	Tabs     *view.Tabs
	Notifier notify.Notifier
	Renderer *render.Renderer
	Logger   *zap.Logger
	Recorder Recorder
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Renderer == nil {
		d.Renderer = render.Must()
	}
	return d
}

// Options tunes panel behavior.
type Options struct {
	// MaxConcurrency caps the watchlist quote fan-out. Zero means one
	// goroutine per symbol.
	MaxConcurrency int
}

// Set is every panel of the dashboard.
type Set struct {
	Health    *Health
	Watchlist *Watchlist
	Quote     *Quote
	Analysis  *Analysis
	Portfolio *Portfolio
	Alerts    *Alerts
	Briefing  *Briefing
}

// NewSet wires all panels against the same document and API.
func NewSet(d Deps, opts Options) *Set {
	d = d.withDefaults()
	analysis := NewAnalysis(d)
	return &Set{
		Health:    NewHealth(d),
		Watchlist: NewWatchlist(d, opts.MaxConcurrency, analysis),
		Quote:     NewQuote(d),
		Analysis:  analysis,
		Portfolio: NewPortfolio(d),
		Alerts:    NewAlerts(d),
		Briefing:  NewBriefing(d),
	}
}

// Message returns the user-facing text of an error.
func Message(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.Message
	}
	return err.Error()
}

// base carries the shared collaborators and reporting helpers.
type base struct {
	name string
	Deps
}

func newBase(name string, d Deps) base {
	return base{name: name, Deps: d.withDefaults()}
}

func (b *base) notifyError(err error) {
	b.Notifier.Notify(Message(err), true)
}

func (b *base) notifyOK(msg string) {
	b.Notifier.Notify(msg, false)
}

func (b *base) record(outcome string) {
	b.Recorder.RecordPanel(b.name, outcome)
}

// committed records the outcome of a ticketed commit.
func (b *base) committed(applied bool, outcome string) {
	if !applied {
		b.record(OutcomeStale)
		return
	}
	b.record(outcome)
}

func (b *base) logFailure(op string, err error, fields ...zap.Field) {
	b.Logger.Warn(b.name+" "+op+" failed", append(fields, zap.Error(err))...)
}

// resolveSymbol normalizes raw, falling back to the symbol input field when
// raw is blank. An empty result notifies and returns ErrSymbolRequired.
func (b *base) resolveSymbol(raw string) (string, error) {
	if raw == "" {
		raw = b.Doc.Field(view.FieldSymbol)
	}
	sym, err := core.NormalizeSymbol(raw)
	if err != nil {
		b.Notifier.Notify(core.ErrSymbolRequired.Message, true)
		b.record(OutcomeInvalid)
		return "", err
	}
	return sym, nil
}
