package panel

import (
	"context"

	"github.com/newthinker/stockboard/internal/view"
	"go.uber.org/zap"
)

// Quote shows the data-only view of one symbol.
type Quote struct {
	base
	region *view.Region
}

// NewQuote creates the quote panel.
func NewQuote(d Deps) *Quote {
	b := newBase("quote", d)
	region := b.Doc.Region(view.RegionQuote)
	region.SetFrames("", b.Renderer.Loading(""))
	return &Quote{base: b, region: region}
}

// Load fetches and renders a quote. A blank raw symbol falls back to the
// symbol input. The region ends in exactly one of success or error.
func (q *Quote) Load(ctx context.Context, raw string) error {
	sym, err := q.resolveSymbol(raw)
	if err != nil {
		return err
	}

	t := q.region.Begin(func(c *view.Content) { c.Hidden = false })

	quote, err := q.API.Quote(ctx, sym)
	if err == nil {
		html, rerr := q.Renderer.Quote(*quote)
		if rerr == nil {
			q.committed(q.region.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
			return nil
		}
		err = rerr
	}

	q.logFailure("load", err, zap.String("symbol", sym))
	html := q.Renderer.Error(Message(err))
	q.committed(q.region.Commit(t, func(c *view.Content) { c.Fail(html) }), OutcomeError)
	return err
}
