package panel

import (
	"sync"
	"testing"

	"github.com/newthinker/stockboard/internal/apiclient"
	"github.com/newthinker/stockboard/internal/apiclient/apitest"
	"github.com/newthinker/stockboard/internal/notify"
	"github.com/newthinker/stockboard/internal/view"
	"github.com/stretchr/testify/require"
)

type note struct {
	Message string
	IsError bool
}

type notes struct {
	mu   sync.Mutex
	list []note
}

func (n *notes) Notify(message string, isError bool) notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, note{message, isError})
	return notify.Notification{Message: message, IsError: isError}
}

func (n *notes) all() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note{}, n.list...)
}

type panelCounts struct {
	mu       sync.Mutex
	outcomes map[string]int
	partial  int
	size     int
}

func (p *panelCounts) RecordPanel(panel, outcome string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outcomes == nil {
		p.outcomes = make(map[string]int)
	}
	p.outcomes[panel+"/"+outcome]++
}

func (p *panelCounts) RecordPartialFailures(_ string, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.partial += n
}

func (p *panelCounts) SetWatchlistSize(size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.size = size
}

func (p *panelCounts) get(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outcomes[key]
}

type harness struct {
	api    *apitest.Server
	doc    *view.Document
	tabs   *view.Tabs
	notes  *notes
	counts *panelCounts
	set    *Set
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	api := apitest.New()
	t.Cleanup(api.Close)

	doc := view.NewDashboard()
	t.Cleanup(doc.Close)

	tabs, err := view.NewTabs(view.DefaultTabs, view.TabWatchlist)
	require.NoError(t, err)
	t.Cleanup(tabs.Close)

	h := &harness{
		api:    api,
		doc:    doc,
		tabs:   tabs,
		notes:  &notes{},
		counts: &panelCounts{},
	}
	h.set = NewSet(Deps{
		API:      apiclient.New(api.URL),
		Doc:      doc,
		Tabs:     tabs,
		Notifier: h.notes,
		Recorder: h.counts,
	}, Options{})
	return h
}

func (h *harness) region(id string) view.RegionSnapshot {
	return h.doc.Region(id).Snapshot()
}

func ptr(v float64) *float64 { return &v }
