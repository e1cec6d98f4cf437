package panel

import (
	"context"

	"github.com/newthinker/stockboard/internal/apiclient"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/view"
	"go.uber.org/zap"
)

// Portfolio renders the holdings table and the AI summary box.
type Portfolio struct {
	base
	table   *view.Region
	summary *view.Region
}

// NewPortfolio creates the portfolio panel.
func NewPortfolio(d Deps) *Portfolio {
	b := newBase("portfolio", d)
	b.Doc.Region(view.RegionPortfolio).SetFrames(b.Renderer.Placeholder("Press Refresh to load your holdings."), "")
	return &Portfolio{
		base:    b,
		table:   b.Doc.Region(view.RegionPortfolio),
		summary: b.Doc.Region(view.RegionPortfolioSummary),
	}
}

// Load shows the loading flag, hides the summary box and fetches holdings.
// A failure notifies and keeps the previous table. The loading flag is
// always cleared.
func (p *Portfolio) Load(ctx context.Context) error {
	prev := p.table.State()
	if prev == view.StateLoading {
		prev = view.StateIdle
	}
	t := p.table.Begin()
	st := p.summary.Begin(func(c *view.Content) { c.Hidden = true })

	pf, err := p.API.Portfolio(ctx)
	if err != nil {
		p.logFailure("load", err)
		applied := p.table.Commit(t, func(c *view.Content) { c.State = prev })
		p.summary.Commit(st, func(c *view.Content) { c.Reset() })
		p.committed(applied, OutcomeError)
		p.notifyError(err)
		return err
	}

	html, err := p.Renderer.Portfolio(*pf)
	if err != nil {
		p.table.Commit(t, func(c *view.Content) { c.Fail(p.Renderer.Error(err.Error())) })
		p.summary.Commit(st, func(c *view.Content) { c.Reset() })
		p.record(OutcomeError)
		return err
	}
	p.committed(p.table.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)

	if !pf.HasSummary() {
		p.summary.Commit(st, func(c *view.Content) { c.Reset() })
		return nil
	}
	summary, err := p.Renderer.PortfolioSummary(pf.AISummary)
	if err != nil {
		p.Logger.Warn("rendering portfolio summary", zap.Error(err))
		p.summary.Commit(st, func(c *view.Content) { c.Reset() })
		return nil
	}
	p.summary.Commit(st, func(c *view.Content) {
		c.Success(summary)
		c.Hidden = false
	})
	return nil
}

// Add validates the raw form and adds a holding. Missing or zero values
// notify "Fill all fields" without sending a request.
func (p *Portfolio) Add(ctx context.Context, in HoldingInput) error {
	if err := in.normalize(); err != nil {
		p.record(OutcomeInvalid)
		p.Notifier.Notify("Fill all fields", true)
		return err
	}

	req := apiclient.HoldingRequest{Symbol: in.Symbol, Shares: in.Shares, AvgCost: in.AvgCost}
	if err := p.API.AddHolding(ctx, req); err != nil {
		p.logFailure("add", err, zap.String("symbol", in.Symbol))
		p.notifyError(err)
		return err
	}
	p.Doc.ClearFields(view.FieldPortfolioSym, view.FieldPortfolioShare, view.FieldPortfolioCost)
	p.notifyOK(in.Symbol + " added to portfolio")
	return p.Load(ctx)
}

// Remove drops a holding and reloads.
func (p *Portfolio) Remove(ctx context.Context, symbol string) error {
	if symbol == "" {
		return core.WithMessage(core.ErrValidation, "symbol is required")
	}
	if err := p.API.RemoveHolding(ctx, symbol); err != nil {
		p.logFailure("remove", err, zap.String("symbol", symbol))
		p.notifyError(err)
		return err
	}
	p.notifyOK(symbol + " removed")
	return p.Load(ctx)
}
