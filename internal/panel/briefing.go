package panel

import (
	"context"
	"sync/atomic"

	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/view"
)

// Briefing requests the daily briefing. Only one run may be in flight.
type Briefing struct {
	base
	region *view.Region
	busy   atomic.Bool
}

// NewBriefing creates the briefing panel.
func NewBriefing(d Deps) *Briefing {
	b := newBase("briefing", d)
	region := b.Doc.Region(view.RegionBriefing)
	region.SetFrames(
		b.Renderer.Placeholder("Generate a briefing for today's market summary."),
		b.Renderer.Loading("Generating briefing..."),
	)
	return &Briefing{base: b, region: region}
}

// Busy reports whether a run is in flight.
func (b *Briefing) Busy() bool {
	return b.busy.Load()
}

// Run disables the trigger, requests a briefing and renders it. A second call
// while one is in flight returns ErrBusy without a request. On failure the
// region returns to its placeholder. The trigger is always re-enabled.
func (b *Briefing) Run(ctx context.Context) error {
	if !b.busy.CompareAndSwap(false, true) {
		return core.ErrBusy
	}
	defer b.busy.Store(false)

	t := b.region.Begin(func(c *view.Content) { c.Disabled = true })
	defer b.region.Update(func(c *view.Content) { c.Disabled = false })

	result, err := b.API.Briefing(ctx)
	if err == nil {
		html, rerr := b.Renderer.Briefing(*result)
		if rerr == nil {
			b.committed(b.region.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
			return nil
		}
		err = rerr
	}

	b.logFailure("run", err)
	b.committed(b.region.Commit(t, func(c *view.Content) { c.Reset() }), OutcomeError)
	b.notifyError(err)
	return err
}
