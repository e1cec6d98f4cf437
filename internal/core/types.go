package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EmptyPortfolioSentinel is the summary the API returns for a portfolio with
// no holdings. It is never displayed.
const EmptyPortfolioSentinel = "Portfolio is empty. Add holdings with POST /portfolio."

// NormalizeSymbol trims and upper-cases a user-entered ticker.
func NormalizeSymbol(raw string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrSymbolRequired
	}
	return s, nil
}

// NewsItem is a single headline attached to a quote.
type NewsItem struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Publisher string `json:"publisher"`
}

// Quote is the data-only view of a symbol. Nil pointers mean the API had no
// value for that field.
type Quote struct {
	Symbol        string              `json:"symbol"`
	Price         *float64            `json:"price"`
	ChangePct     *float64            `json:"change_pct"`
	Technicals    Technicals          `json:"technicals"`
	News          []NewsItem          `json:"news"`
	SignalSummary string              `json:"signal_summary"`
}

// Indicator is one named technical value. Value is nil when the API sent
// something other than a number.
type Indicator struct {
	Name  string
	Value *float64
}

// Technicals holds indicators in the order the API sent them. On the wire it
// is a JSON object.
type Technicals []Indicator

// Get returns the value of the named indicator.
func (t Technicals) Get(name string) (*float64, bool) {
	for _, ind := range t {
		if ind.Name == name {
			return ind.Value, true
		}
	}
	return nil, false
}

func (t *Technicals) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("technicals: expected object, got %v", tok)
	}

	out := Technicals{}
	index := map[string]int{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var raw any
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		ind := Indicator{Name: name}
		if f, ok := raw.(float64); ok {
			ind.Value = &f
		}

		// A repeated key keeps its first position and its last value.
		if i, ok := index[name]; ok {
			out[i] = ind
			continue
		}
		index[name] = len(out)
		out = append(out, ind)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*t = out
	return nil
}

func (t Technicals) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ind := range t {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(ind.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(ind.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Flag is a boolean that also accepts the 0/1 integers the API stores.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = n != 0
	return nil
}

// Analysis is a Quote plus the AI narrative.
type Analysis struct {
	Quote
	AIRecommendation string `json:"ai_recommendation"`
	AIAnalysis       string `json:"ai_analysis"`
}

// Holding is one portfolio position. All derived figures come from the API.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Shares        float64 `json:"shares"`
	AvgCost       float64 `json:"avg_cost"`
	CurrentPrice  float64 `json:"current_price"`
	Value         float64 `json:"value"`
	DailyPnL      float64 `json:"daily_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// Portfolio is the full holdings response.
type Portfolio struct {
	Holdings   []Holding `json:"holdings"`
	TotalValue float64   `json:"total_value"`
	DailyPnL   float64   `json:"daily_pnl"`
	AISummary  string    `json:"ai_summary"`
}

// HasSummary reports whether the AI summary should be shown.
func (p Portfolio) HasSummary() bool {
	return p.AISummary != "" && p.AISummary != EmptyPortfolioSentinel
}

// Condition is the direction of a price alert.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// Alert is a server-evaluated price alert. Active flips to false only when the
// server triggers it.
type Alert struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Condition Condition `json:"condition"`
	Price     float64   `json:"price"`
	Active    Flag      `json:"active"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// TriggeredAlert is an alert fired by a check pass.
type TriggeredAlert struct {
	ID           int64     `json:"id"`
	Symbol       string    `json:"symbol"`
	Condition    Condition `json:"condition"`
	TargetPrice  float64   `json:"target_price"`
	CurrentPrice float64   `json:"current_price"`
}

// AlertCheck is the result of a server-side evaluation pass.
type AlertCheck struct {
	Message   string           `json:"message"`
	Triggered []TriggeredAlert `json:"triggered"`
}

// Briefing is the daily watchlist briefing.
type Briefing struct {
	AISummary     string    `json:"ai_summary"`
	WatchlistData []Quote   `json:"watchlist_data"`
	Timestamp     time.Time `json:"timestamp"`
}

// Health is the remote API health report.
type Health struct {
	Status       string `json:"status"`
	LLMConnected bool   `json:"llm_connected"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
}

// OK reports whether the API and its LLM backend are both up.
func (h Health) OK() bool {
	return h.Status == "ok"
}
