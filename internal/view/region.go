package view

import (
	"html/template"
	"sync"
)

// Ticket identifies one request issued against a region.
type Ticket uint64

// Region is a single panel-owned area of the dashboard.
//
// Every load starts with Begin, which issues a ticket newer than all before
// it. Commit applies a write only if its ticket is still the newest, so a
// slow earlier response can never overwrite a later one.
type Region struct {
	doc *Document

	mu          sync.Mutex
	snap        RegionSnapshot
	issued      Ticket
	placeholder template.HTML
	loading     template.HTML
}

// SetFrames sets the HTML shown while idle and while loading. An empty
// loading frame keeps the previous content visible during a load. An idle
// region switches to the new placeholder at once.
func (r *Region) SetFrames(placeholder, loading template.HTML) {
	r.mu.Lock()
	r.placeholder = placeholder
	r.loading = loading
	if r.snap.State != StateIdle {
		r.mu.Unlock()
		return
	}
	snap := r.apply(func(c *Content) { c.HTML = placeholder })
	r.mu.Unlock()

	r.publish(snap)
}

// Begin issues a new ticket and moves the region to the loading state,
// showing the loading frame when one is set. Any extra mutators are applied
// in the same write.
func (r *Region) Begin(mutators ...func(*Content)) Ticket {
	r.mu.Lock()
	r.issued++
	t := r.issued
	snap := r.apply(func(c *Content) {
		c.State = StateLoading
		if r.loading != "" {
			c.HTML = r.loading
		}
		for _, m := range mutators {
			m(c)
		}
	})
	r.mu.Unlock()

	r.publish(snap)
	return t
}

// Commit applies fn if t is still the newest ticket. It reports whether the
// write was applied.
func (r *Region) Commit(t Ticket, fn func(*Content)) bool {
	r.mu.Lock()
	if t != r.issued {
		id := r.snap.ID
		r.mu.Unlock()
		if rec := r.doc.staleRecorder(); rec != nil {
			rec.RecordStaleCommit(id)
		}
		return false
	}
	snap := r.apply(fn)
	r.mu.Unlock()

	r.publish(snap)
	return true
}

// Update applies fn unconditionally. It is meant for flags that must always
// be restored, such as re-enabling a trigger.
func (r *Region) Update(fn func(*Content)) {
	r.mu.Lock()
	snap := r.apply(fn)
	r.mu.Unlock()

	r.publish(snap)
}

// Snapshot returns a copy of the region state.
func (r *Region) Snapshot() RegionSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap
}

// State returns the current load state.
func (r *Region) State() LoadState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snap.State
}

// Content is the mutable part of a region handed to writers.
type Content struct {
	State    LoadState
	HTML     template.HTML
	Hidden   bool
	Disabled bool

	placeholder template.HTML
}

// Success sets the success state with html.
func (c *Content) Success(html template.HTML) {
	c.State = StateSuccess
	c.HTML = html
}

// Fail sets the error state with html.
func (c *Content) Fail(html template.HTML) {
	c.State = StateError
	c.HTML = html
}

// Reset returns the region to idle and its placeholder.
func (c *Content) Reset() {
	c.State = StateIdle
	c.HTML = c.placeholder
}

func (r *Region) apply(fn func(*Content)) RegionSnapshot {
	c := Content{
		State:    r.snap.State,
		HTML:     r.snap.HTML,
		Hidden:   r.snap.Hidden,
		Disabled: r.snap.Disabled,

		placeholder: r.placeholder,
	}
	fn(&c)
	r.snap.State = c.State
	r.snap.HTML = c.HTML
	r.snap.Hidden = c.Hidden
	r.snap.Disabled = c.Disabled
	r.snap.Version++
	return r.snap
}

func (r *Region) publish(snap RegionSnapshot) {
	r.doc.events.Publish(Change{Type: ChangeRegion, Region: &snap})
}
