package source

import (
	"sort"
	"sync"

	"github.com/vigil-dev/vigil"
	"github.com/vigil-dev/vigil/pkg/reactive"
)

// Item is one in-memory record. Fields live behind a signal, so a
// watcher that projected the item subscribes to them and a later
// SetField surfaces as an "updated" report. Items are handed to vigil
// by pointer; identity is the pointer.
type Item struct {
	fields *reactive.Signal[map[string]any]
}

// NewItem creates an item with a copy of the given fields.
func NewItem(fields map[string]any) *Item {
	return &Item{fields: reactive.NewSignal(copyFields(fields))}
}

// Fields returns the current field map. Tracked read.
func (i *Item) Fields() map[string]any {
	return i.fields.Get()
}

// Field returns one field value. Tracked read.
func (i *Item) Field(name string) any {
	return i.fields.Get()[name]
}

// SetField updates one field, notifying watchers that projected this
// item.
func (i *Item) SetField(name string, value any) {
	i.fields.Update(func(old map[string]any) map[string]any {
		next := copyFields(old)
		next[name] = value
		return next
	})
}

// SetFields replaces every field at once.
func (i *Item) SetFields(fields map[string]any) {
	i.fields.Set(copyFields(fields))
}

func copyFields(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ModelType is one declared record type. It doubles as the
// vigil.TypeHandle and the vigil.Collection for its records: the
// membership slice lives in a signal compared by element identity, so
// reordering-free mutations notify watchers exactly when membership
// changed.
type ModelType struct {
	name    string
	columns []vigil.ColumnSpec
	records *reactive.Signal[[]vigil.Record]
}

// Name returns the logical type name.
func (t *ModelType) Name() string { return t.name }

// Columns returns the declared column schema.
func (t *ModelType) Columns() []vigil.ColumnSpec { return t.columns }

// Records returns current members in insertion order. Tracked read.
func (t *ModelType) Records() []vigil.Record { return t.records.Get() }

// Len returns the current member count. Tracked read.
func (t *ModelType) Len() int { return len(t.records.Get()) }

// Add appends items to the collection.
func (t *ModelType) Add(items ...*Item) {
	t.records.Update(func(old []vigil.Record) []vigil.Record {
		next := make([]vigil.Record, len(old), len(old)+len(items))
		copy(next, old)
		for _, it := range items {
			next = append(next, it)
		}
		return next
	})
}

// Remove drops items from the collection. Unknown items are ignored.
func (t *ModelType) Remove(items ...*Item) {
	drop := make(map[vigil.Record]struct{}, len(items))
	for _, it := range items {
		drop[it] = struct{}{}
	}
	t.records.Update(func(old []vigil.Record) []vigil.Record {
		next := make([]vigil.Record, 0, len(old))
		for _, r := range old {
			if _, gone := drop[r]; !gone {
				next = append(next, r)
			}
		}
		return next
	})
}

// Replace swaps the whole membership.
func (t *ModelType) Replace(items []*Item) {
	next := make([]vigil.Record, len(items))
	for i, it := range items {
		next[i] = it
	}
	t.records.Set(next)
}

// sameMembers compares record slices by element identity. Two slices
// with the same items in the same order are no change, whatever the
// item contents.
func sameMembers(a, b []vigil.Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Memory is a reactive in-memory record source. One Memory value
// serves as vigil.RecordSource, vigil.TypeCatalog and vigil.Strategy.
type Memory struct {
	scheduler *reactive.Scheduler

	mu    sync.Mutex
	types map[string]*ModelType
	order []string

	filters []vigil.FilterSpec
}

// NewMemory creates an empty source with its own scheduler.
func NewMemory() *Memory {
	return &Memory{
		scheduler: reactive.NewScheduler(),
		types:     make(map[string]*ModelType),
	}
}

// Scheduler returns the batch-completion signal for this source. Pass
// it to vigil.WithScheduler.
func (m *Memory) Scheduler() *reactive.Scheduler { return m.scheduler }

// Flush runs fn as one mutation batch and then pulses the scheduler,
// driving a single revalidation pass over the net change.
func (m *Memory) Flush(fn func()) { m.scheduler.Flush(fn) }

// DefineType declares a record type with its column schema. Redefining
// a name returns the existing type unchanged.
func (m *Memory) DefineType(name string, columns []vigil.ColumnSpec) *ModelType {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.types[name]; ok {
		return t
	}
	t := &ModelType{
		name:    name,
		columns: columns,
		records: reactive.NewSignal([]vigil.Record(nil)).WithEquals(sameMembers),
	}
	m.types[name] = t
	m.order = append(m.order, name)
	return t
}

// DefineFilters declares the filters exposed through the strategy.
// Filter values are read from the record field named after the filter.
func (m *Memory) DefineFilters(filters []vigil.FilterSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = filters
}

// Type returns a declared type by name.
func (m *Memory) Type(name string) (*ModelType, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.types[name]
	return t, ok
}

// ResolveType implements vigil.RecordSource.
func (m *Memory) ResolveType(name string) (vigil.TypeHandle, bool) {
	t, ok := m.Type(name)
	if !ok {
		return nil, false
	}
	return t, true
}

// TypeName implements vigil.RecordSource.
func (m *Memory) TypeName(t vigil.TypeHandle) string {
	if mt, ok := t.(*ModelType); ok {
		return mt.name
	}
	return ""
}

// Types implements vigil.TypeCatalog, in declaration order.
func (m *Memory) Types() []vigil.TypeHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]vigil.TypeHandle, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.types[name])
	}
	return out
}

// Detect implements vigil.Strategy: every ModelType is recognized.
func (m *Memory) Detect(t vigil.TypeHandle) bool {
	_, ok := t.(*ModelType)
	return ok
}

// Records implements vigil.Strategy.
func (m *Memory) Records(t vigil.TypeHandle, name string) vigil.Collection {
	if mt, ok := t.(*ModelType); ok {
		return mt
	}
	if mt, ok := m.Type(name); ok {
		return mt
	}
	return vigil.EmptyCollection()
}

// Columns implements vigil.Strategy.
func (m *Memory) Columns(t vigil.TypeHandle) []vigil.ColumnSpec {
	if mt, ok := t.(*ModelType); ok {
		return mt.columns
	}
	return nil
}

// ColumnValues implements vigil.Strategy: the item's current fields.
func (m *Memory) ColumnValues(r vigil.Record) map[string]any {
	it, ok := r.(*Item)
	if !ok {
		return map[string]any{}
	}
	return it.Fields()
}

// Keywords implements vigil.Strategy: every string-valued field, in
// stable order.
func (m *Memory) Keywords(r vigil.Record) []string {
	it, ok := r.(*Item)
	if !ok {
		return nil
	}
	fields := it.Fields()
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var kws []string
	for _, name := range names {
		if s, ok := fields[name].(string); ok && s != "" {
			kws = append(kws, s)
		}
	}
	return kws
}

// FilterValues implements vigil.Strategy: declared filters projected
// onto same-named record fields.
func (m *Memory) FilterValues(r vigil.Record) map[string]any {
	it, ok := r.(*Item)
	if !ok {
		return map[string]any{}
	}
	m.mu.Lock()
	filters := m.filters
	m.mu.Unlock()

	fields := it.Fields()
	out := make(map[string]any, len(filters))
	for _, f := range filters {
		if v, ok := fields[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}

// Color implements vigil.Strategy: the "color" field when it is a
// string.
func (m *Memory) Color(r vigil.Record) string {
	it, ok := r.(*Item)
	if !ok {
		return ""
	}
	if s, ok := it.Field("color").(string); ok {
		return s
	}
	return ""
}

// Filters implements vigil.Strategy.
func (m *Memory) Filters() []vigil.FilterSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filters
}

var (
	_ vigil.RecordSource = (*Memory)(nil)
	_ vigil.TypeCatalog  = (*Memory)(nil)
	_ vigil.Strategy     = (*Memory)(nil)
	_ vigil.Collection   = (*ModelType)(nil)
)
