package render

import (
	"fmt"
	"strings"

	"github.com/newthinker/stockboard/internal/core"
)

// Tone is the color family of a badge or figure.
type Tone string

const (
	ToneGreen  Tone = "green"
	ToneRed    Tone = "red"
	ToneYellow Tone = "yellow"
	ToneBlue   Tone = "blue"
	ToneGray   Tone = "gray"
)

// Badge is a small colored label.
type Badge struct {
	Text string
	Tone Tone
}

// Class returns the CSS class for the badge.
func (b Badge) Class() string {
	return "badge badge-" + string(b.Tone)
}

// PnLSign formats a profit/loss figure with two decimals. Positive values get
// an explicit plus sign; negative values keep their minus; zero is unsigned.
func PnLSign(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f", v)
	}
	if v == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", v)
}

// PnLTone returns green for gains, red for losses and gray for flat.
func PnLTone(v float64) Tone {
	switch {
	case v > 0:
		return ToneGreen
	case v < 0:
		return ToneRed
	default:
		return ToneGray
	}
}

// PnLColor returns the text color class for a profit/loss figure.
func PnLColor(v float64) string {
	return "text-" + string(PnLTone(v)) + "-400"
}

// ChangeBadge renders a daily change percentage.
func ChangeBadge(changePct *float64) Badge {
	if changePct == nil {
		return Badge{Text: "N/A", Tone: ToneBlue}
	}
	v := *changePct
	switch {
	case v > 0:
		return Badge{Text: fmt.Sprintf("+%.2f%%", v), Tone: ToneGreen}
	case v < 0:
		return Badge{Text: fmt.Sprintf("%.2f%%", v), Tone: ToneRed}
	default:
		return Badge{Text: "0.00%", Tone: ToneYellow}
	}
}

// Price formats an optional price in dollars.
func Price(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return Dollars(*p)
}

// Dollars formats a price with two decimals.
func Dollars(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// RecommendationBadge derives a badge from free-form recommendation text.
// BUY wins over SELL, which wins over HOLD.
func RecommendationBadge(text string) (Badge, bool) {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "BUY"):
		return Badge{Text: "BUY", Tone: ToneGreen}, true
	case strings.Contains(upper, "SELL"):
		return Badge{Text: "SELL", Tone: ToneRed}, true
	case strings.Contains(upper, "HOLD"):
		return Badge{Text: "HOLD", Tone: ToneYellow}, true
	default:
		return Badge{}, false
	}
}

// Indicator is one technical indicator row.
type Indicator struct {
	Name  string
	Value string
}

// Indicators drops nil values and keeps the API's order.
func Indicators(technicals core.Technicals) []Indicator {
	rows := make([]Indicator, 0, len(technicals))
	for _, ind := range technicals {
		if ind.Value == nil {
			continue
		}
		rows = append(rows, Indicator{Name: ind.Name, Value: fmt.Sprintf("%.2f", *ind.Value)})
	}
	return rows
}

// ConditionArrow returns the directional arrow for an alert condition.
func ConditionArrow(condition string) string {
	if condition == "above" {
		return "↑"
	}
	return "↓"
}
