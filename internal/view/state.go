// Package view holds the server-side UI state: regions with their load
// lifecycle, input fields, and the active tab.
package view

// LoadState gates which part of a region is visible. Exactly one applies at
// any time.
type LoadState string

const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateSuccess LoadState = "success"
	StateError   LoadState = "error"
)

// Region IDs owned by the panel controllers.
const (
	RegionHealth           = "health"
	RegionWatchlist        = "watchlist"
	RegionQuote            = "quote"
	RegionAnalysis         = "analysis"
	RegionPortfolio        = "portfolio"
	RegionPortfolioSummary = "portfolio-summary"
	RegionAlerts           = "alerts"
	RegionAlertCheck       = "alert-check"
	RegionBriefing         = "briefing"
)

// Input field names.
const (
	FieldSymbol         = "symbol-input"
	FieldWatchlistAdd   = "watchlist-add-input"
	FieldPortfolioSym   = "pf-symbol"
	FieldPortfolioShare = "pf-shares"
	FieldPortfolioCost  = "pf-cost"
	FieldAlertSymbol    = "alert-symbol"
	FieldAlertCondition = "alert-condition"
	FieldAlertPrice     = "alert-price"
)

// Tab names.
const (
	TabWatchlist = "watchlist"
	TabQuote     = "quote"
	TabAnalysis  = "analysis"
	TabPortfolio = "portfolio"
	TabAlerts    = "alerts"
	TabBriefing  = "briefing"
)

// DefaultTabs is the tab order of the dashboard.
var DefaultTabs = []string{TabWatchlist, TabQuote, TabAnalysis, TabPortfolio, TabAlerts, TabBriefing}
