package panel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/stockboard/internal/apiclient"
	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/view"
	"go.uber.org/zap"
)

// Alerts lists price alerts and shows server-side check results.
type Alerts struct {
	base
	list  *view.Region
	check *view.Region
}

// NewAlerts creates the alerts panel.
func NewAlerts(d Deps) *Alerts {
	b := newBase("alerts", d)
	b.Doc.Region(view.RegionAlerts).SetFrames(b.Renderer.Placeholder("Loading alerts..."), "")
	return &Alerts{
		base:  b,
		list:  b.Doc.Region(view.RegionAlerts),
		check: b.Doc.Region(view.RegionAlertCheck),
	}
}

// Load renders the alert list, or an inline error.
func (a *Alerts) Load(ctx context.Context) error {
	t := a.list.Begin()

	alerts, err := a.API.Alerts(ctx)
	if err == nil {
		html, rerr := a.Renderer.Alerts(alerts)
		if rerr == nil {
			a.committed(a.list.Commit(t, func(c *view.Content) { c.Success(html) }), OutcomeSuccess)
			return nil
		}
		err = rerr
	}

	a.logFailure("load", err)
	html := a.Renderer.Error(Message(err))
	a.committed(a.list.Commit(t, func(c *view.Content) { c.Fail(html) }), OutcomeError)
	return err
}

// Create validates the raw form and creates an alert. The condition field is
// kept after success so repeated alerts reuse it.
func (a *Alerts) Create(ctx context.Context, in AlertInput) error {
	if err := in.normalize(); err != nil {
		a.record(OutcomeInvalid)
		a.Notifier.Notify(alertInputMessage(err), true)
		return err
	}

	req := apiclient.AlertRequest{Symbol: in.Symbol, Condition: core.Condition(in.Condition), Price: in.Price}
	if err := a.API.CreateAlert(ctx, req); err != nil {
		a.logFailure("create", err, zap.String("symbol", in.Symbol))
		a.notifyError(err)
		return err
	}
	a.Doc.ClearFields(view.FieldAlertSymbol, view.FieldAlertPrice)
	a.notifyOK(fmt.Sprintf("Alert created: %s %s $%s", in.Symbol, in.Condition, strconv.FormatFloat(in.Price, 'f', -1, 64)))
	return a.Load(ctx)
}

// CheckNow asks the server to evaluate alerts, shows the result box and
// reloads the list. A failure only notifies.
func (a *Alerts) CheckNow(ctx context.Context) error {
	result, err := a.API.CheckAlerts(ctx)
	if err != nil {
		a.logFailure("check", err)
		a.notifyError(err)
		return err
	}

	html, err := a.Renderer.AlertCheck(*result)
	if err != nil {
		a.notifyError(err)
		return err
	}
	a.check.Update(func(c *view.Content) {
		c.Success(html)
		c.Hidden = false
	})
	return a.Load(ctx)
}

func alertInputMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Fill symbol and price"
	}
	for _, fe := range verrs {
		if fe.Field() != "Condition" {
			return "Fill symbol and price"
		}
	}
	return "Condition must be above or below"
}
