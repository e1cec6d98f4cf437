package view

import (
	"errors"
	"html/template"
	"sync"
	"testing"

	"github.com/newthinker/stockboard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staleCounter struct {
	mu    sync.Mutex
	count map[string]int
}

func (s *staleCounter) RecordStaleCommit(region string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == nil {
		s.count = map[string]int{}
	}
	s.count[region]++
}

func TestRegion_BeginCommit(t *testing.T) {
	doc := NewDocument()
	r := doc.Define("quote", StateIdle, true)

	ticket := r.Begin(func(c *Content) { c.Hidden = false })
	snap := r.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.False(t, snap.Hidden)

	applied := r.Commit(ticket, func(c *Content) { c.Success("<p>AAPL</p>") })
	require.True(t, applied)

	snap = r.Snapshot()
	assert.Equal(t, StateSuccess, snap.State)
	assert.Equal(t, template.HTML("<p>AAPL</p>"), snap.HTML)
}

func TestRegion_Frames(t *testing.T) {
	doc := NewDocument()
	r := doc.Define("analysis", StateIdle, false)

	r.SetFrames("<p>press Analyze</p>", `<div class="spinner"></div>`)
	assert.Equal(t, template.HTML("<p>press Analyze</p>"), r.Snapshot().HTML)

	ticket := r.Begin()
	assert.Equal(t, template.HTML(`<div class="spinner"></div>`), r.Snapshot().HTML)

	require.True(t, r.Commit(ticket, func(c *Content) { c.Success("<p>AAPL buy</p>") }))
	assert.Equal(t, template.HTML("<p>AAPL buy</p>"), r.Snapshot().HTML)

	ticket = r.Begin()
	require.True(t, r.Commit(ticket, func(c *Content) { c.Reset() }))
	snap := r.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, template.HTML("<p>press Analyze</p>"), snap.HTML)
}

func TestRegion_EmptyLoadingFrameKeepsContent(t *testing.T) {
	doc := NewDocument()
	r := doc.Define("portfolio", StateIdle, false)
	r.SetFrames("<p>Press Refresh</p>", "")

	ticket := r.Begin()
	require.True(t, r.Commit(ticket, func(c *Content) { c.Success("<table></table>") }))

	// Changing frames on a loaded region leaves its content alone
	r.SetFrames("<p>other</p>", "")
	assert.Equal(t, template.HTML("<table></table>"), r.Snapshot().HTML)

	r.Begin()
	snap := r.Snapshot()
	assert.Equal(t, StateLoading, snap.State)
	assert.Equal(t, template.HTML("<table></table>"), snap.HTML)
}

func TestRegion_StaleCommitDropped(t *testing.T) {
	doc := NewDocument()
	rec := &staleCounter{}
	doc.SetRecorder(rec)
	r := doc.Define("quote", StateIdle, false)

	first := r.Begin()
	second := r.Begin()

	// The later request settles first
	require.True(t, r.Commit(second, func(c *Content) { c.Success("MSFT") }))
	// The earlier one settles late and must not overwrite
	assert.False(t, r.Commit(first, func(c *Content) { c.Success("AAPL") }))

	assert.Equal(t, template.HTML("MSFT"), r.Snapshot().HTML)
	// A fresh ticket supersedes both
	third := r.Begin()
	assert.False(t, r.Commit(second, func(c *Content) { c.Success("late") }))
	assert.True(t, r.Commit(third, func(c *Content) { c.Success("NVDA") }))
	assert.Equal(t, 1, rec.count["quote"])
}

func TestRegion_UpdateIgnoresTickets(t *testing.T) {
	doc := NewDocument()
	r := doc.Define("briefing", StateIdle, false)

	r.Begin(func(c *Content) { c.Disabled = true })
	r.Begin()
	r.Update(func(c *Content) { c.Disabled = false })

	assert.False(t, r.Snapshot().Disabled)
}

func TestRegion_ExactlyOneState(t *testing.T) {
	doc := NewDocument()
	r := doc.Define("analysis", StateIdle, false)

	tk := r.Begin()
	r.Commit(tk, func(c *Content) { c.Fail("boom") })
	assert.Equal(t, StateError, r.State())

	tk = r.Begin()
	r.Commit(tk, func(c *Content) { c.Reset() })
	assert.Equal(t, StateIdle, r.State())
}

func TestDocument_RegionPanicsWhenUndefined(t *testing.T) {
	doc := NewDocument()
	assert.Panics(t, func() { doc.Region("missing") })
}

func TestDocument_Fields(t *testing.T) {
	doc := NewDashboard()

	assert.Equal(t, "above", doc.Field(FieldAlertCondition))
	require.NoError(t, doc.SetField(FieldAlertSymbol, "TSLA"))
	assert.Equal(t, "TSLA", doc.Field(FieldAlertSymbol))

	doc.ClearFields(FieldAlertSymbol)
	assert.Equal(t, "", doc.Field(FieldAlertSymbol))

	err := doc.SetField("nope", "x")
	assert.True(t, errors.Is(err, core.ErrUnknownField))
}

func TestDocument_SnapshotAndSubscribe(t *testing.T) {
	doc := NewDashboard()
	changes, cancel := doc.Subscribe()
	defer cancel()

	r := doc.Region(RegionWatchlist)
	tk := r.Begin()
	r.Commit(tk, func(c *Content) { c.Success("cards") })
	require.NoError(t, doc.SetField(FieldSymbol, "AAPL"))

	var got []Change
	for i := 0; i < 3; i++ {
		got = append(got, <-changes)
	}
	assert.Equal(t, ChangeRegion, got[0].Type)
	assert.Equal(t, StateLoading, got[0].Region.State)
	assert.Equal(t, StateSuccess, got[1].Region.State)
	assert.Equal(t, ChangeField, got[2].Type)
	assert.Equal(t, "AAPL", got[2].Field.Value)

	snap := doc.Snapshot()
	assert.Len(t, snap.Regions, 9)
	assert.Equal(t, template.HTML("cards"), snap.Regions[RegionWatchlist].HTML)
	assert.True(t, snap.Regions[RegionQuote].Hidden)
	assert.Equal(t, "AAPL", snap.Fields[FieldSymbol])
}

func TestTabs(t *testing.T) {
	_, err := NewTabs(DefaultTabs, "settings")
	require.Error(t, err)

	tabs, err := NewTabs(DefaultTabs, TabWatchlist)
	require.NoError(t, err)
	assert.Equal(t, TabWatchlist, tabs.Active())

	events, cancel := tabs.Subscribe()
	defer cancel()

	require.NoError(t, tabs.Select(TabAnalysis))
	assert.Equal(t, TabAnalysis, <-events)
	assert.Equal(t, TabAnalysis, tabs.Active())

	// Reselecting is allowed
	require.NoError(t, tabs.Select(TabAnalysis))

	err = tabs.Select("history")
	assert.True(t, errors.Is(err, core.ErrUnknownTab))
	assert.Equal(t, TabAnalysis, tabs.Active())
	assert.Equal(t, DefaultTabs, tabs.Names())
}
