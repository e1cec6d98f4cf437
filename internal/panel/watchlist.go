package panel

import (
	"context"

	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/render"
	"github.com/newthinker/stockboard/internal/view"
	"go.uber.org/zap"
)

// Watchlist renders one card per watched symbol.
type Watchlist struct {
	base
	region         *view.Region
	maxConcurrency int
	analysis       *Analysis
}

// NewWatchlist creates the watchlist panel. Card clicks route into analysis.
func NewWatchlist(d Deps, maxConcurrency int, analysis *Analysis) *Watchlist {
	b := newBase("watchlist", d)
	b.Doc.Region(view.RegionWatchlist).SetFrames(b.Renderer.Placeholder("Loading watchlist..."), "")
	return &Watchlist{
		base:           b,
		region:         b.Doc.Region(view.RegionWatchlist),
		maxConcurrency: maxConcurrency,
		analysis:       analysis,
	}
}

// Load fetches the membership, then every quote concurrently. Symbols whose
// quote fails render as degraded cards; only a membership failure fails the
// panel.
func (w *Watchlist) Load(ctx context.Context) error {
	t := w.region.Begin()

	symbols, err := w.API.Watchlist(ctx)
	if err != nil {
		w.logFailure("load", err)
		html := w.Renderer.Error(Message(err))
		w.committed(w.region.Commit(t, func(c *view.Content) { c.Fail(html) }), OutcomeError)
		return err
	}
	w.Recorder.SetWatchlistSize(len(symbols))
	if len(symbols) == 0 {
		html, err := w.Renderer.Watchlist(nil)
		if err != nil {
			return err
		}
		w.committed(w.region.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
		return nil
	}

	results := SettleAll(ctx, symbols, w.maxConcurrency, func(ctx context.Context, sym string) (*core.Quote, error) {
		q, err := w.API.Quote(ctx, sym)
		if err != nil {
			return nil, core.WrapError(core.ErrPartial, err)
		}
		return q, nil
	})

	cards := make([]render.WatchlistCard, len(symbols))
	for i, r := range results {
		if !r.OK() {
			w.Logger.Debug("watchlist quote failed", zap.String("symbol", symbols[i]), zap.Error(r.Err))
		}
		cards[i] = render.NewWatchlistCard(symbols[i], r.Value)
	}
	if n := Failed(results); n > 0 {
		w.Recorder.RecordPartialFailures(w.name, n)
	}

	html, err := w.Renderer.Watchlist(cards)
	if err != nil {
		w.committed(w.region.Commit(t, func(c *view.Content) { c.Fail(w.Renderer.Error(err.Error())) }), OutcomeError)
		return err
	}
	w.committed(w.region.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
	return nil
}

// Add normalizes raw and adds it. A blank symbol does nothing. Failures only
// notify; the list is left as it was.
func (w *Watchlist) Add(ctx context.Context, raw string) error {
	sym, err := core.NormalizeSymbol(raw)
	if err != nil {
		return nil
	}
	if err := w.API.AddWatchlist(ctx, sym); err != nil {
		w.logFailure("add", err, zap.String("symbol", sym))
		w.notifyError(err)
		return err
	}
	w.Doc.ClearFields(view.FieldWatchlistAdd)
	w.notifyOK(sym + " added to watchlist")
	return w.Load(ctx)
}

// Remove drops a symbol and reloads.
func (w *Watchlist) Remove(ctx context.Context, symbol string) error {
	if err := w.API.RemoveWatchlist(ctx, symbol); err != nil {
		w.logFailure("remove", err, zap.String("symbol", symbol))
		w.notifyError(err)
		return err
	}
	w.notifyOK(symbol + " removed")
	return w.Load(ctx)
}

// Select handles a card click: the symbol is copied into the symbol input and
// analysed.
func (w *Watchlist) Select(ctx context.Context, symbol string) error {
	if err := w.Doc.SetField(view.FieldSymbol, symbol); err != nil {
		return err
	}
	return w.analysis.Load(ctx, symbol)
}
