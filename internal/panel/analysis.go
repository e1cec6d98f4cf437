package panel

import (
	"context"

	"github.com/newthinker/stockboard/internal/view"
	"go.uber.org/zap"
)

// Analysis shows a quote plus the AI narrative.
type Analysis struct {
	base
	region *view.Region
}

// NewAnalysis creates the analysis panel.
func NewAnalysis(d Deps) *Analysis {
	b := newBase("analysis", d)
	region := b.Doc.Region(view.RegionAnalysis)
	region.SetFrames(
		b.Renderer.Placeholder("Enter a symbol and press Analyze for an AI-powered analysis."),
		b.Renderer.Loading("Analyzing..."),
	)
	return &Analysis{base: b, region: region}
}

// Load switches to the analysis tab and runs an analysis. On failure the
// region returns to its placeholder and the error is notified.
func (a *Analysis) Load(ctx context.Context, raw string) error {
	sym, err := a.resolveSymbol(raw)
	if err != nil {
		return err
	}

	if a.Tabs != nil {
		if err := a.Tabs.Select(view.TabAnalysis); err != nil {
			a.Logger.Warn("selecting analysis tab", zap.Error(err))
		}
	}
	t := a.region.Begin()

	result, err := a.API.Analyze(ctx, sym)
	if err == nil {
		html, rerr := a.Renderer.Analysis(*result)
		if rerr == nil {
			a.committed(a.region.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
			return nil
		}
		err = rerr
	}

	a.logFailure("load", err, zap.String("symbol", sym))
	applied := a.region.Commit(t, func(c *view.Content) { c.Reset() })
	a.committed(applied, OutcomeError)
	a.notifyError(err)
	return err
}
