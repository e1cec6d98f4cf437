package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/newthinker/stockboard/internal/notify"
	"github.com/newthinker/stockboard/internal/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// MessageType tags a websocket message.
type MessageType string

const (
	MessageSnapshot     MessageType = "snapshot"
	MessageRegion       MessageType = "region"
	MessageField        MessageType = "field"
	MessageTab          MessageType = "tab"
	MessageNotification MessageType = "notification"
)

// Message is one frame sent to a browser. Exactly one payload is set.
type Message struct {
	Type         MessageType          `json:"type"`
	Snapshot     *DocumentView        `json:"snapshot,omitempty"`
	Region       *view.RegionSnapshot `json:"region,omitempty"`
	Field        *view.FieldValue     `json:"field,omitempty"`
	Tab          string               `json:"tab,omitempty"`
	Notification *notify.Event        `json:"notification,omitempty"`
}

// ClientRecorder tracks connected clients and forced resyncs.
type ClientRecorder interface {
	SetWSClients(n int)
	RecordWSResync()
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans document, tab and notification events out to every websocket
// client. A client that cannot keep up is disconnected and reloads the
// snapshot when it reconnects. When the hub itself misses a document or tab
// event, every client is disconnected the same way.
type Hub struct {
	state    State
	logger   *zap.Logger
	recorder ClientRecorder

	mu      sync.Mutex
	clients map[*client]struct{}
	done    chan struct{}
	resync  chan struct{}
}

// NewHub creates a hub over state. recorder may be nil.
func NewHub(state State, logger *zap.Logger, recorder ClientRecorder) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		state:    state,
		logger:   logger,
		recorder: recorder,
		clients:  make(map[*client]struct{}),
		done:     make(chan struct{}),
		resync:   make(chan struct{}, 1),
	}
}

// Start subscribes to the view and relays events until ctx is cancelled or
// every source is closed. It returns once the subscriptions are in place.
func (h *Hub) Start(ctx context.Context) {
	docCh, stopDoc := h.state.Doc.Subscribe()
	tabCh, stopTabs := h.state.Tabs.Subscribe()
	noteCh, stopNotes := h.state.Notifier.Subscribe()
	h.state.Doc.OnDrop(h.missed)
	h.state.Tabs.OnDrop(h.missed)

	go func() {
		defer close(h.done)
		defer h.closeAll()
		defer stopNotes()
		defer stopTabs()
		defer stopDoc()

		for docCh != nil || tabCh != nil || noteCh != nil {
			var msg Message
			select {
			case <-ctx.Done():
				return
			case <-h.resync:
				h.resyncAll(docCh, tabCh)
				continue
			case c, ok := <-docCh:
				if !ok {
					docCh = nil
					continue
				}
				msg = changeMessage(c)
			case tab, ok := <-tabCh:
				if !ok {
					tabCh = nil
					continue
				}
				msg = Message{Type: MessageTab, Tab: tab}
			case ev, ok := <-noteCh:
				if !ok {
					noteCh = nil
					continue
				}
				msg = Message{Type: MessageNotification, Notification: &ev}
			}
			h.broadcast(msg)
		}
	}()
}

// missed runs inside the publisher and must not block.
func (h *Hub) missed() {
	select {
	case h.resync <- struct{}{}:
	default:
	}
}

// resyncAll discards queued events and disconnects every client. Browsers
// reconnect and start again from a fresh snapshot.
func (h *Hub) resyncAll(docCh <-chan view.Change, tabCh <-chan string) {
	drain(docCh)
	drain(tabCh)

	h.mu.Lock()
	n := len(h.clients)
	h.mu.Unlock()

	h.logger.Warn("hub missed view events, resyncing ws clients", zap.Int("clients", n))
	h.closeAll()
	if h.recorder != nil {
		h.recorder.RecordWSResync()
	}
}

func drain[T any](ch <-chan T) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Done is closed when the relay loop exits.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func changeMessage(c view.Change) Message {
	switch c.Type {
	case view.ChangeField:
		return Message{Type: MessageField, Field: c.Field}
	default:
		return Message{Type: MessageRegion, Region: c.Region}
	}
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("encoding ws message", zap.Error(err))
		return
	}

	h.mu.Lock()
	dropped := 0
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			c.close()
			dropped++
		}
	}
	n := len(h.clients)
	h.mu.Unlock()

	if dropped > 0 {
		h.logger.Warn("dropped slow ws clients", zap.Int("count", dropped))
		h.record(n)
	}
}

// ServeWS handles GET /ui/ws. The first frame is always a snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	// The snapshot is queued under the lock so no event can be sent ahead of it.
	h.mu.Lock()
	snap := h.state.Snapshot()
	data, err := json.Marshal(Message{Type: MessageSnapshot, Snapshot: &snap})
	if err != nil {
		h.mu.Unlock()
		h.logger.Error("encoding ws snapshot", zap.Error(err))
		_ = conn.Close()
		return
	}
	c.send <- data
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.record(n)

	h.logger.Debug("ws client connected", zap.String("remote", r.RemoteAddr))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Commands arrive over HTTP; inbound frames only keep the connection alive.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	c.close()
	if ok {
		h.record(n)
		h.logger.Debug("ws client disconnected")
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
	h.mu.Unlock()
	h.record(0)
}

func (h *Hub) record(n int) {
	if h.recorder != nil {
		h.recorder.SetWSClients(n)
	}
}
