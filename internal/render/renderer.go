// Package render turns API entities into HTML fragments for dashboard
// regions. It performs formatting only; every figure comes from the API.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"

	"github.com/newthinker/stockboard/internal/core"
)

//go:embed templates/*.html
var templateFS embed.FS

// MaxNewsItems caps the headlines shown per quote.
const MaxNewsItems = 5

// Renderer executes the embedded region templates.
type Renderer struct {
	tmpl *template.Template
	md   *Markdown
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("regions").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing region templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, md: NewMarkdown()}, nil
}

// Must parses the embedded templates or panics.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", name, err)
	}
	// Output of html/template is already escaped
	return template.HTML(buf.String()), nil
}

// Markdown renders an AI narrative.
func (r *Renderer) Markdown(text string) (template.HTML, error) {
	return r.md.Render(text)
}

// Error renders an inline error message.
func (r *Renderer) Error(msg string) template.HTML {
	html, err := r.execute("error", msg)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(msg))
	}
	return html
}

// Placeholder renders the idle text of a region.
func (r *Renderer) Placeholder(text string) template.HTML {
	html, err := r.execute("placeholder", text)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return html
}

// Loading renders a spinner with an optional caption.
func (r *Renderer) Loading(caption string) template.HTML {
	html, err := r.execute("loading", caption)
	if err != nil {
		return template.HTML(`<div class="spinner"></div>`)
	}
	return html
}

// HealthView is the connection indicator.
type HealthView struct {
	OK           bool
	Disconnected bool
	Provider     string
	Model        string
}

// Health renders the health indicator. A nil health means the check failed.
func (r *Renderer) Health(h *core.Health) (template.HTML, error) {
	if h == nil {
		return r.execute("health", HealthView{Disconnected: true})
	}
	return r.execute("health", HealthView{OK: h.OK(), Provider: h.Provider, Model: h.Model})
}

// WatchlistCard is one watchlist entry. Failed cards only carry the symbol.
type WatchlistCard struct {
	Symbol  string
	Failed  bool
	Price   string
	Badge   Badge
	Summary string
}

// NewWatchlistCard builds a card from a quote, or a degraded card when q is
// nil.
func NewWatchlistCard(symbol string, q *core.Quote) WatchlistCard {
	if q == nil {
		return WatchlistCard{Symbol: symbol, Failed: true}
	}
	sym := q.Symbol
	if sym == "" {
		sym = symbol
	}
	return WatchlistCard{
		Symbol:  sym,
		Price:   Price(q.Price),
		Badge:   ChangeBadge(q.ChangePct),
		Summary: q.SignalSummary,
	}
}

// Watchlist renders the card grid, or the empty state for no cards.
func (r *Renderer) Watchlist(cards []WatchlistCard) (template.HTML, error) {
	if len(cards) == 0 {
		return r.execute("watchlist_empty", nil)
	}
	return r.execute("watchlist", cards)
}

// QuoteView is the quote panel body.
type QuoteView struct {
	Symbol     string
	Price      string
	Badge      Badge
	Summary    string
	Indicators []Indicator
	News       []core.NewsItem
}

func newQuoteView(q core.Quote) QuoteView {
	news := q.News
	if len(news) > MaxNewsItems {
		news = news[:MaxNewsItems]
	}
	return QuoteView{
		Symbol:     q.Symbol,
		Price:      Price(q.Price),
		Badge:      ChangeBadge(q.ChangePct),
		Summary:    q.SignalSummary,
		Indicators: Indicators(q.Technicals),
		News:       news,
	}
}

// Quote renders a quote.
func (r *Renderer) Quote(q core.Quote) (template.HTML, error) {
	return r.execute("quote", newQuoteView(q))
}

// AnalysisView is the analysis panel body.
type AnalysisView struct {
	QuoteView
	Recommendation *Badge
	AI             template.HTML
}

// Analysis renders an analysis result with its recommendation badge and
// markdown narrative.
func (r *Renderer) Analysis(a core.Analysis) (template.HTML, error) {
	ai, err := r.md.Render(a.AIAnalysis)
	if err != nil {
		return "", fmt.Errorf("rendering analysis markdown: %w", err)
	}
	v := AnalysisView{QuoteView: newQuoteView(a.Quote), AI: ai}
	if b, ok := RecommendationBadge(a.AIRecommendation); ok {
		v.Recommendation = &b
	}
	return r.execute("analysis", v)
}

// HoldingRow is one portfolio table row.
type HoldingRow struct {
	Symbol          string
	Shares          string
	AvgCost         string
	CurrentPrice    string
	Value           string
	Daily           string
	DailyClass      string
	Unrealized      string
	UnrealizedClass string
}

// Totals is the portfolio totals line.
type Totals struct {
	Value      string
	Daily      string
	DailyClass string
}

// PortfolioView is the portfolio table.
type PortfolioView struct {
	Rows   []HoldingRow
	Totals *Totals
}

// Portfolio renders the holdings table. An empty portfolio renders a single
// full-width row and no totals.
func (r *Renderer) Portfolio(p core.Portfolio) (template.HTML, error) {
	v := PortfolioView{}
	for _, h := range p.Holdings {
		v.Rows = append(v.Rows, HoldingRow{
			Symbol:          h.Symbol,
			Shares:          strconv.FormatFloat(h.Shares, 'f', -1, 64),
			AvgCost:         Dollars(h.AvgCost),
			CurrentPrice:    Dollars(h.CurrentPrice),
			Value:           Dollars(h.Value),
			Daily:           PnLSign(h.DailyPnL),
			DailyClass:      PnLColor(h.DailyPnL),
			Unrealized:      PnLSign(h.UnrealizedPnL),
			UnrealizedClass: PnLColor(h.UnrealizedPnL),
		})
	}
	if len(v.Rows) > 0 {
		v.Totals = &Totals{
			Value:      Dollars(p.TotalValue),
			Daily:      PnLSign(p.DailyPnL),
			DailyClass: PnLColor(p.DailyPnL),
		}
	}
	return r.execute("portfolio", v)
}

// PortfolioSummary renders the AI summary box content.
func (r *Renderer) PortfolioSummary(summary string) (template.HTML, error) {
	md, err := r.md.Render(summary)
	if err != nil {
		return "", fmt.Errorf("rendering portfolio summary: %w", err)
	}
	return r.execute("portfolio_summary", md)
}

// AlertRow is one alert in the list.
type AlertRow struct {
	ID        int64
	Symbol    string
	Condition string
	Arrow     string
	Color     string
	Price     string
	Status    Badge
}

// Alerts renders the alert list, or the empty state.
func (r *Renderer) Alerts(alerts []core.Alert) (template.HTML, error) {
	if len(alerts) == 0 {
		return r.execute("alerts_empty", nil)
	}
	rows := make([]AlertRow, 0, len(alerts))
	for _, a := range alerts {
		row := AlertRow{
			ID:        a.ID,
			Symbol:    a.Symbol,
			Condition: string(a.Condition),
			Arrow:     ConditionArrow(string(a.Condition)),
			Color:     "text-red-400",
			Price:     Dollars(a.Price),
			Status:    Badge{Text: "Triggered", Tone: ToneRed},
		}
		if a.Condition == core.ConditionAbove {
			row.Color = "text-green-400"
		}
		if a.Active {
			row.Status = Badge{Text: "Active", Tone: ToneGreen}
		}
		rows = append(rows, row)
	}
	return r.execute("alerts", rows)
}

// TriggeredRow is one entry in a check result.
type TriggeredRow struct {
	Symbol    string
	Condition string
	Target    string
	Current   string
}

// AlertCheckView is the check result panel.
type AlertCheckView struct {
	Message   string
	Triggered []TriggeredRow
}

// AlertCheck renders the result of a server-side check pass.
func (r *Renderer) AlertCheck(c core.AlertCheck) (template.HTML, error) {
	v := AlertCheckView{Message: c.Message}
	for _, t := range c.Triggered {
		v.Triggered = append(v.Triggered, TriggeredRow{
			Symbol:    t.Symbol,
			Condition: string(t.Condition),
			Target:    Dollars(t.TargetPrice),
			Current:   Dollars(t.CurrentPrice),
		})
	}
	return r.execute("alert_check", v)
}

// BriefingCard is one watchlist entry in the briefing.
type BriefingCard struct {
	Symbol  string
	Price   string
	Badge   Badge
	Summary string
}

// BriefingView is the briefing panel body.
type BriefingView struct {
	Cards []BriefingCard
	AI    template.HTML
}

// Briefing renders the data cards and markdown narrative.
func (r *Renderer) Briefing(b core.Briefing) (template.HTML, error) {
	ai, err := r.md.Render(b.AISummary)
	if err != nil {
		return "", fmt.Errorf("rendering briefing markdown: %w", err)
	}
	v := BriefingView{AI: ai}
	for _, q := range b.WatchlistData {
		v.Cards = append(v.Cards, BriefingCard{
			Symbol:  q.Symbol,
			Price:   Price(q.Price),
			Badge:   ChangeBadge(q.ChangePct),
			Summary: q.SignalSummary,
		})
	}
	return r.execute("briefing", v)
}
