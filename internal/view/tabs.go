package view

import (
	"fmt"
	"sync"

	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/event"
)

// Tabs is a single-selection switch over named panels. Selecting a known tab
// always succeeds; there is no history.
type Tabs struct {
	names  []string
	events *event.Broadcaster[string]

	mu     sync.RWMutex
	active string
}

// NewTabs creates a tab switch with initial selected.
func NewTabs(names []string, initial string) (*Tabs, error) {
	t := &Tabs{
		names:  append([]string(nil), names...),
		events: event.NewBroadcaster[string](event.DefaultBuffer),
	}
	if !t.known(initial) {
		return nil, core.WrapError(core.ErrUnknownTab, fmt.Errorf("%s", initial))
	}
	t.active = initial
	return t, nil
}

// Select makes name the only visible tab.
func (t *Tabs) Select(name string) error {
	if !t.known(name) {
		return core.WrapError(core.ErrUnknownTab, fmt.Errorf("%s", name))
	}

	t.mu.Lock()
	t.active = name
	t.mu.Unlock()

	t.events.Publish(name)
	return nil
}

// Active returns the selected tab.
func (t *Tabs) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Names returns the tab names in display order.
func (t *Tabs) Names() []string {
	return append([]string(nil), t.names...)
}

// Subscribe returns a stream of selected tab names.
func (t *Tabs) Subscribe() (<-chan string, func()) {
	return t.events.Subscribe()
}

// OnDrop sets a hook run whenever a selection is lost for a full subscriber.
func (t *Tabs) OnDrop(fn func()) {
	t.events.OnDrop(fn)
}

// Close ends every subscription.
func (t *Tabs) Close() {
	t.events.Close()
}

func (t *Tabs) known(name string) bool {
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}
