// Package notify implements the transient toast channel used to report the
// outcome of user actions.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/stockboard/internal/event"
	"go.uber.org/zap"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 3500 * time.Millisecond

// Notification is a single toast.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IsError   bool      `json:"is_error"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EventKind distinguishes toast lifecycle events.
type EventKind string

const (
	EventAdded   EventKind = "added"
	EventRemoved EventKind = "removed"
)

// Event is published on every add and expiry.
type Event struct {
	Kind         EventKind    `json:"kind"`
	Notification Notification `json:"notification"`
}

// Recorder receives a count of every notification.
type Recorder interface {
	RecordNotification(isError bool)
}

// Notifier is the surface panels use to report outcomes.
type Notifier interface {
	Notify(message string, isError bool) Notification
}

// Channel stacks notifications and removes each one after the TTL. There is
// no dedup and no cap.
type Channel struct {
	ttl      time.Duration
	logger   *zap.Logger
	recorder Recorder
	events   *event.Broadcaster[Event]

	// For testing: replaceable clock and timer
	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer

	mu     sync.Mutex
	active []Notification
	timers map[string]*time.Timer
}

// New creates a notification channel. A non-positive ttl uses DefaultTTL.
func New(ttl time.Duration, logger *zap.Logger) *Channel {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		ttl:       ttl,
		logger:    logger,
		events:    event.NewBroadcaster[Event](event.DefaultBuffer),
		now:       time.Now,
		afterFunc: time.AfterFunc,
		timers:    make(map[string]*time.Timer),
	}
}

// SetRecorder attaches a metrics recorder.
func (c *Channel) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// Notify shows a message and schedules its removal.
func (c *Channel) Notify(message string, isError bool) Notification {
	now := c.now()
	n := Notification{
		ID:        uuid.NewString(),
		Message:   message,
		IsError:   isError,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.active = append(c.active, n)
	c.timers[n.ID] = c.afterFunc(c.ttl, func() { c.expire(n.ID) })
	recorder := c.recorder
	c.mu.Unlock()

	if recorder != nil {
		recorder.RecordNotification(isError)
	}
	if isError {
		c.logger.Warn("notify", zap.String("message", message))
	} else {
		c.logger.Debug("notify", zap.String("message", message))
	}

	c.events.Publish(Event{Kind: EventAdded, Notification: n})
	return n
}

func (c *Channel) expire(id string) {
	c.mu.Lock()
	var (
		removed Notification
		found   bool
	)
	for i, n := range c.active {
		if n.ID == id {
			removed, found = n, true
			c.active = append(c.active[:i:i], c.active[i+1:]...)
			break
		}
	}
	delete(c.timers, id)
	c.mu.Unlock()

	if found {
		c.events.Publish(Event{Kind: EventRemoved, Notification: removed})
	}
}

// Active returns the visible notifications, oldest first.
func (c *Channel) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]Notification, len(c.active))
	copy(result, c.active)
	return result
}

// Subscribe returns a stream of add/remove events.
func (c *Channel) Subscribe() (<-chan Event, func()) {
	return c.events.Subscribe()
}

// Close stops every pending removal and closes subscriber streams.
func (c *Channel) Close() {
	c.mu.Lock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.mu.Unlock()

	c.events.Close()
}
