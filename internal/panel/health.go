package panel

import (
	"context"

	"github.com/newthinker/stockboard/internal/view"
)

// Health drives the connection indicator.
type Health struct {
	base
	region *view.Region
}

// NewHealth creates the health panel.
func NewHealth(d Deps) *Health {
	b := newBase("health", d)
	return &Health{base: b, region: b.Doc.Region(view.RegionHealth)}
}

// Check calls GET /health. A failed check renders "Disconnected".
func (h *Health) Check(ctx context.Context) error {
	t := h.region.Begin()

	status, err := h.API.Health(ctx)
	if err != nil {
		h.Logger.Debug("health check failed")
		html, rerr := h.Renderer.Health(nil)
		if rerr != nil {
			html = h.Renderer.Error(Message(err))
		}
		h.committed(h.region.Commit(t, func(c *view.Content) { c.Fail(html) }), OutcomeError)
		return err
	}

	html, err := h.Renderer.Health(status)
	if err != nil {
		h.committed(h.region.Commit(t, func(c *view.Content) { c.Fail(h.Renderer.Error(err.Error())) }), OutcomeError)
		return err
	}
	h.committed(h.region.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
	return nil
}
