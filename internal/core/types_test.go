package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"aapl", "AAPL", false},
		{"  msft \n", "MSFT", false},
		{"brk.b", "BRK.B", false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tc := range tests {
		got, err := NormalizeSymbol(tc.input)
		if tc.wantErr {
			if !errors.Is(err, ErrSymbolRequired) {
				t.Errorf("NormalizeSymbol(%q) error = %v, want ErrSymbolRequired", tc.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeSymbol(%q) unexpected error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestPortfolio_HasSummary(t *testing.T) {
	tests := []struct {
		summary string
		want    bool
	}{
		{"", false},
		{EmptyPortfolioSentinel, false},
		{"Your portfolio is up 2%.", true},
	}

	for _, tc := range tests {
		p := Portfolio{AISummary: tc.summary}
		if got := p.HasSummary(); got != tc.want {
			t.Errorf("HasSummary(%q) = %v, want %v", tc.summary, got, tc.want)
		}
	}
}

func TestError_IsByCode(t *testing.T) {
	wrapped := WrapError(ErrTransport, errors.New("connection refused"))

	if !errors.Is(wrapped, ErrTransport) {
		t.Error("expected wrapped error to match ErrTransport")
	}
	if errors.Is(wrapped, ErrAPI) {
		t.Error("did not expect wrapped error to match ErrAPI")
	}
	if wrapped.Error() != "[TRANSPORT] request failed: connection refused" {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
}

func TestAlert_DecodesIntegerActive(t *testing.T) {
	var alerts []Alert
	data := `[{"id":1,"symbol":"TSLA","condition":"above","price":300,"active":1},
	          {"id":2,"symbol":"MSFT","condition":"below","price":350,"active":0},
	          {"id":3,"symbol":"NVDA","condition":"above","price":900,"active":true}]`
	require.NoError(t, json.Unmarshal([]byte(data), &alerts))

	assert.True(t, bool(alerts[0].Active))
	assert.False(t, bool(alerts[1].Active))
	assert.True(t, bool(alerts[2].Active))
}

func TestQuote_TechnicalsToleratesNonNumbers(t *testing.T) {
	var q Quote
	data := `{"symbol":"AAPL","price":null,"technicals":{"rsi_14":55.5,"trend":"up","macd":null}}`
	require.NoError(t, json.Unmarshal([]byte(data), &q))

	assert.Nil(t, q.Price)
	rsi, ok := q.Technicals.Get("rsi_14")
	require.True(t, ok)
	require.NotNil(t, rsi)
	assert.Equal(t, 55.5, *rsi)

	trend, ok := q.Technicals.Get("trend")
	assert.True(t, ok)
	assert.Nil(t, trend)
	macd, ok := q.Technicals.Get("macd")
	assert.True(t, ok)
	assert.Nil(t, macd)

	_, ok = q.Technicals.Get("vwap")
	assert.False(t, ok)
}

func TestTechnicals_KeepsServerOrder(t *testing.T) {
	var tech Technicals
	data := `{"sma_50":180.1,"rsi_14":55,"macd":-1.5,"adx":22,"rsi_14":56}`
	require.NoError(t, json.Unmarshal([]byte(data), &tech))

	names := make([]string, len(tech))
	for i, ind := range tech {
		names[i] = ind.Name
	}
	assert.Equal(t, []string{"sma_50", "rsi_14", "macd", "adx"}, names)
	assert.Equal(t, 56.0, *tech[1].Value)

	out, err := json.Marshal(tech)
	require.NoError(t, err)
	assert.Equal(t, `{"sma_50":180.1,"rsi_14":56,"macd":-1.5,"adx":22}`, string(out))
}

func TestTechnicals_RejectsNonObject(t *testing.T) {
	var tech Technicals
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &tech))

	require.NoError(t, json.Unmarshal([]byte(`null`), &tech))
	assert.Nil(t, tech)
}
