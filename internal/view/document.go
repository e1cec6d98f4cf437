package view

import (
	"fmt"
	"html/template"
	"sync"

	"github.com/newthinker/stockboard/internal/core"
	"github.com/newthinker/stockboard/internal/event"
)

// RegionSnapshot is the visible state of one region.
type RegionSnapshot struct {
	ID       string        `json:"id"`
	State    LoadState     `json:"state"`
	HTML     template.HTML `json:"html"`
	Hidden   bool          `json:"hidden"`
	Disabled bool          `json:"disabled"`
	Version  uint64        `json:"version"`
}

// ChangeType identifies what a Change carries.
type ChangeType string

const (
	ChangeRegion ChangeType = "region"
	ChangeField  ChangeType = "field"
)

// Change is published whenever a region or field is written.
type Change struct {
	Type   ChangeType      `json:"type"`
	Region *RegionSnapshot `json:"region,omitempty"`
	Field  *FieldValue     `json:"field,omitempty"`
}

// FieldValue is one input field.
type FieldValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StaleRecorder counts writes dropped because a newer request was issued.
type StaleRecorder interface {
	RecordStaleCommit(region string)
}

// Snapshot is a point-in-time copy of the whole document.
type Snapshot struct {
	Regions map[string]RegionSnapshot `json:"regions"`
	Fields  map[string]string         `json:"fields"`
}

// Document owns every region and input field. Writes to a region are atomic
// and the last committed write wins.
type Document struct {
	mu       sync.RWMutex
	regions  map[string]*Region
	fields   map[string]string
	events   *event.Broadcaster[Change]
	recorder StaleRecorder
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		regions: make(map[string]*Region),
		fields:  make(map[string]string),
		events:  event.NewBroadcaster[Change](256),
	}
}

// NewDashboard creates a document with every region and field the dashboard
// panels use, in their initial template state.
func NewDashboard() *Document {
	d := NewDocument()

	d.Define(RegionHealth, StateIdle, false)
	d.Define(RegionWatchlist, StateIdle, false)
	d.Define(RegionQuote, StateIdle, true)
	d.Define(RegionAnalysis, StateIdle, false)
	d.Define(RegionPortfolio, StateIdle, false)
	d.Define(RegionPortfolioSummary, StateIdle, true)
	d.Define(RegionAlerts, StateIdle, false)
	d.Define(RegionAlertCheck, StateIdle, true)
	d.Define(RegionBriefing, StateIdle, false)

	for _, f := range []string{
		FieldSymbol, FieldWatchlistAdd,
		FieldPortfolioSym, FieldPortfolioShare, FieldPortfolioCost,
		FieldAlertSymbol, FieldAlertPrice,
	} {
		d.DefineField(f, "")
	}
	d.DefineField(FieldAlertCondition, string(core.ConditionAbove))

	return d
}

// SetRecorder attaches a stale-commit recorder.
func (d *Document) SetRecorder(r StaleRecorder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.recorder = r
}

// Define registers a region. Redefining an existing ID returns the existing
// region unchanged.
func (d *Document) Define(id string, initial LoadState, hidden bool) *Region {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.regions[id]; ok {
		return r
	}
	r := &Region{
		doc: d,
		snap: RegionSnapshot{
			ID:     id,
			State:  initial,
			Hidden: hidden,
		},
	}
	d.regions[id] = r
	return r
}

// Region returns a defined region or panics. Regions are fixed at startup,
// so a missing one is a programming error.
func (d *Document) Region(id string) *Region {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r, ok := d.regions[id]
	if !ok {
		panic(fmt.Sprintf("view: region %q not defined", id))
	}
	return r
}

// DefineField registers an input field with its initial value.
func (d *Document) DefineField(name, initial string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.fields[name]; !ok {
		d.fields[name] = initial
	}
}

// Field returns the current value of an input field.
func (d *Document) Field(name string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fields[name]
}

// SetField writes an input field. Unknown names are rejected.
func (d *Document) SetField(name, value string) error {
	d.mu.Lock()
	if _, ok := d.fields[name]; !ok {
		d.mu.Unlock()
		return core.WrapError(core.ErrUnknownField, fmt.Errorf("%s", name))
	}
	d.fields[name] = value
	d.mu.Unlock()

	d.events.Publish(Change{Type: ChangeField, Field: &FieldValue{Name: name, Value: value}})
	return nil
}

// ClearFields resets the named fields to empty.
func (d *Document) ClearFields(names ...string) {
	for _, n := range names {
		_ = d.SetField(n, "")
	}
}

// Snapshot copies every region and field.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	regions := make([]*Region, 0, len(d.regions))
	for _, r := range d.regions {
		regions = append(regions, r)
	}
	fields := make(map[string]string, len(d.fields))
	for k, v := range d.fields {
		fields[k] = v
	}
	d.mu.RUnlock()

	snap := Snapshot{
		Regions: make(map[string]RegionSnapshot, len(regions)),
		Fields:  fields,
	}
	for _, r := range regions {
		s := r.Snapshot()
		snap.Regions[s.ID] = s
	}
	return snap
}

// Subscribe returns a stream of region and field changes.
func (d *Document) Subscribe() (<-chan Change, func()) {
	return d.events.Subscribe()
}

// OnDrop sets a hook run whenever a change is lost because a subscriber's
// buffer is full. fn must not block or call back into the document.
func (d *Document) OnDrop(fn func()) {
	d.events.OnDrop(fn)
}

// Close ends every subscription.
func (d *Document) Close() {
	d.events.Close()
}

func (d *Document) staleRecorder() StaleRecorder {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.recorder
}
