package ui

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/stockboard/internal/notify"
	"github.com/newthinker/stockboard/internal/view"
)

type clientCounter struct {
	mu      sync.Mutex
	clients int
	resyncs int
}

func (c *clientCounter) SetWSClients(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients = n
}

func (c *clientCounter) RecordWSResync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resyncs++
}

func (c *clientCounter) resyncCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resyncs
}

func newTestHub(t *testing.T) (*Hub, State, *clientCounter, string) {
	t.Helper()

	tabs, err := view.NewTabs(view.DefaultTabs, view.TabWatchlist)
	require.NoError(t, err)
	state := State{Doc: view.NewDashboard(), Tabs: tabs, Notifier: notify.New(time.Minute, nil)}
	t.Cleanup(func() {
		state.Notifier.Close()
		tabs.Close()
		state.Doc.Close()
	})

	rec := &clientCounter{}
	hub := NewHub(state, nil, rec)
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})

	ts := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(ts.Close)

	return hub, state, rec, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (Message, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	err := conn.ReadJSON(&msg)
	return msg, err
}

func TestHub_MissedEventsForceResync(t *testing.T) {
	hub, state, rec, url := newTestHub(t)

	conn := dial(t, url)
	first, err := readMessage(t, conn)
	require.NoError(t, err)
	require.Equal(t, MessageSnapshot, first.Type)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	// Stall the relay loop so its document subscription overflows.
	region := state.Doc.Region(view.RegionBriefing)
	hub.mu.Lock()
	for i := 0; i < 400; i++ {
		n := i
		region.Update(func(c *view.Content) { c.Success(template.HTML(fmt.Sprintf("<p>%d</p>", n))) })
	}
	hub.mu.Unlock()

	require.Eventually(t, func() bool { return rec.resyncCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, hub.Clients())

	// The old connection is closed after any frames already queued for it.
	for {
		if _, err := readMessage(t, conn); err != nil {
			break
		}
	}

	// A reconnecting browser sees the latest content.
	conn = dial(t, url)
	snap, err := readMessage(t, conn)
	require.NoError(t, err)
	require.Equal(t, MessageSnapshot, snap.Type)
	briefing := snap.Snapshot.Regions[view.RegionBriefing]
	assert.Equal(t, template.HTML("<p>399</p>"), briefing.HTML)
	assert.Equal(t, region.Snapshot().Version, briefing.Version)
}

func TestHub_RelaysWithoutResync(t *testing.T) {
	_, state, rec, url := newTestHub(t)

	conn := dial(t, url)
	_, err := readMessage(t, conn)
	require.NoError(t, err)

	require.NoError(t, state.Tabs.Select(view.TabAlerts))
	msg, err := readMessage(t, conn)
	require.NoError(t, err)
	assert.Equal(t, MessageTab, msg.Type)
	assert.Equal(t, view.TabAlerts, msg.Tab)
	assert.Equal(t, 0, rec.resyncCount())
}
