package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newthinker/stockboard/internal/core"
)

func ptr(v float64) *float64 { return &v }

func TestPnLSignAndColor(t *testing.T) {
	tests := []struct {
		input     float64
		wantSign  string
		wantColor string
		wantTone  Tone
	}{
		{0, "0.00", "text-gray-400", ToneGray},
		{5.5, "+5.50", "text-green-400", ToneGreen},
		{-3.2, "-3.20", "text-red-400", ToneRed},
		{1234.567, "+1234.57", "text-green-400", ToneGreen},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.wantSign, PnLSign(tc.input), "PnLSign(%v)", tc.input)
		assert.Equal(t, tc.wantColor, PnLColor(tc.input), "PnLColor(%v)", tc.input)
		assert.Equal(t, tc.wantTone, PnLTone(tc.input), "PnLTone(%v)", tc.input)
	}
}

func TestChangeBadge(t *testing.T) {
	tests := []struct {
		name  string
		input *float64
		want  Badge
	}{
		{"nil", nil, Badge{Text: "N/A", Tone: ToneBlue}},
		{"zero", ptr(0), Badge{Text: "0.00%", Tone: ToneYellow}},
		{"positive", ptr(2.5), Badge{Text: "+2.50%", Tone: ToneGreen}},
		{"negative", ptr(-1), Badge{Text: "-1.00%", Tone: ToneRed}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ChangeBadge(tc.input))
		})
	}
	assert.Equal(t, "badge badge-green", ChangeBadge(ptr(1)).Class())
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "N/A", Price(nil))
	assert.Equal(t, "$189.50", Price(ptr(189.5)))
	assert.Equal(t, "$0.00", Price(ptr(0)))
}

func TestRecommendationBadge(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"RECOMMENDATION: BUY - strong momentum", "BUY", true},
		{"recommendation: sell, weak guidance", "SELL", true},
		{"Hold for now", "HOLD", true},
		// BUY is checked first
		{"Do not SELL, BUY more", "BUY", true},
		{"Hold or sell; buyers absent", "BUY", true},
		{"no opinion", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		b, ok := RecommendationBadge(tc.text)
		assert.Equal(t, tc.wantOK, ok, "RecommendationBadge(%q)", tc.text)
		assert.Equal(t, tc.want, b.Text, "RecommendationBadge(%q)", tc.text)
	}
}

func TestIndicators_DropsNilAndKeepsOrder(t *testing.T) {
	rows := Indicators(core.Technicals{
		{Name: "sma_50", Value: ptr(180.123)},
		{Name: "macd", Value: nil},
		{Name: "rsi_14", Value: ptr(55)},
	})

	assert.Equal(t, []Indicator{
		{Name: "sma_50", Value: "180.12"},
		{Name: "rsi_14", Value: "55.00"},
	}, rows)
}

func TestConditionArrow(t *testing.T) {
	assert.Equal(t, "↑", ConditionArrow("above"))
	assert.Equal(t, "↓", ConditionArrow("below"))
}
