package dispatch

import (
	"context"
	"encoding/json"

	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/panel"
	"github.com/newthinker/stockboard/internal/view"
)

// FormValue is a form input carried as a string. JSON numbers are accepted
// and kept in their literal form.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = FormValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = FormValue(n.String())
	return nil
}

// NoArgs is the argument type of commands without parameters.
type NoArgs struct{}

// TabArgs selects a tab.
type TabArgs struct {
	Tab string `json:"tab" validate:"required"`
}

// SymbolArgs names an existing symbol.
type SymbolArgs struct {
	Symbol string `json:"symbol" validate:"required"`
}

// InputArgs carries an optional symbol. When blank, the panel reads its
// input field.
type InputArgs struct {
	Symbol string `json:"symbol"`
}

// HoldingArgs is the portfolio form. Absent values are read from the form
// fields.
type HoldingArgs struct {
	Symbol  *FormValue `json:"symbol"`
	Shares  *FormValue `json:"shares"`
	AvgCost *FormValue `json:"avg_cost"`
}

// AlertArgs is the alert form. Absent values are read from the form fields.
type AlertArgs struct {
	Symbol    *FormValue `json:"symbol"`
	Condition *FormValue `json:"condition"`
	Price     *FormValue `json:"price"`
}

// FieldArgs writes an input field.
type FieldArgs struct {
	Name  string `json:"name" validate:"required"`
	Value string `json:"value"`
}

// Dashboard is what the dashboard commands act on.
type Dashboard struct {
	Panels *panel.Set
	Doc    *view.Document
	Tabs   *view.Tabs
}

// Register installs every dashboard command on b.
func Register(b *Bus, d Dashboard) {
	p := d.Panels

	Handle(b, "tab.select", func(_ context.Context, a TabArgs) error {
		return d.Tabs.Select(a.Tab)
	}, Inline())
	Handle(b, "field.set", func(_ context.Context, a FieldArgs) error {
		return d.Doc.SetField(a.Name, a.Value)
	}, Inline())

	Handle(b, "health.check", func(ctx context.Context, _ NoArgs) error {
		return p.Health.Check(ctx)
	})

	Handle(b, "watchlist.load", func(ctx context.Context, _ NoArgs) error {
		return p.Watchlist.Load(ctx)
	})
	Handle(b, "watchlist.add", func(ctx context.Context, a InputArgs) error {
		raw := a.Symbol
		if raw == "" {
			raw = d.Doc.Field(view.FieldWatchlistAdd)
		}
		return p.Watchlist.Add(ctx, raw)
	})
	Handle(b, "watchlist.remove", func(ctx context.Context, a SymbolArgs) error {
		return p.Watchlist.Remove(ctx, a.Symbol)
	})
	Handle(b, "watchlist.select", func(ctx context.Context, a SymbolArgs) error {
		return p.Watchlist.Select(ctx, a.Symbol)
	})

	Handle(b, "quote.load", func(ctx context.Context, a InputArgs) error {
		return p.Quote.Load(ctx, a.Symbol)
	})
	Handle(b, "analysis.load", func(ctx context.Context, a InputArgs) error {
		return p.Analysis.Load(ctx, a.Symbol)
	})

	Handle(b, "portfolio.load", func(ctx context.Context, _ NoArgs) error {
		return p.Portfolio.Load(ctx)
	})
	Handle(b, "portfolio.add", func(ctx context.Context, a HoldingArgs) error {
		return p.Portfolio.Add(ctx, panel.HoldingInput{
			Symbol:  formOr(a.Symbol, d.Doc, view.FieldPortfolioSym),
			Shares:  panel.ParseAmount(formOr(a.Shares, d.Doc, view.FieldPortfolioShare)),
			AvgCost: panel.ParseAmount(formOr(a.AvgCost, d.Doc, view.FieldPortfolioCost)),
		})
	})
	Handle(b, "portfolio.remove", func(ctx context.Context, a SymbolArgs) error {
		return p.Portfolio.Remove(ctx, a.Symbol)
	})

	Handle(b, "alerts.load", func(ctx context.Context, _ NoArgs) error {
		return p.Alerts.Load(ctx)
	})
	Handle(b, "alerts.create", func(ctx context.Context, a AlertArgs) error {
		return p.Alerts.Create(ctx, panel.AlertInput{
			Symbol:    formOr(a.Symbol, d.Doc, view.FieldAlertSymbol),
			Condition: formOr(a.Condition, d.Doc, view.FieldAlertCondition),
			Price:     panel.ParseAmount(formOr(a.Price, d.Doc, view.FieldAlertPrice)),
		})
	})
	Handle(b, "alerts.check", func(ctx context.Context, _ NoArgs) error {
		return p.Alerts.CheckNow(ctx)
	})

	Handle(b, "briefing.run", func(ctx context.Context, _ NoArgs) error {
		return p.Briefing.Run(ctx)
	}, WithGuard(func() error {
		if p.Briefing.Busy() {
			return core.ErrBusy
		}
		return nil
	}))
}

func formOr(v *FormValue, doc *view.Document, field string) string {
	if v != nil {
		return string(*v)
	}
	return doc.Field(field)
}
