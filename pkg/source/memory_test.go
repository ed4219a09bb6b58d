package source

import (
	"reflect"
	"testing"

	"github.com/vigil-dev/vigil"
)

func watchLog(t *testing.T, co *vigil.Coordinator, name string) (*recordLog, vigil.ReleaseFunc) {
	t.Helper()
	log := &recordLog{}
	release := co.WatchRecords(name,
		func(rs []vigil.WrappedRecord) { log.added = append(log.added, rs...) },
		func(rs []vigil.WrappedRecord) { log.updated = append(log.updated, rs...) },
		func(rs []vigil.WrappedRecord) { log.removed = append(log.removed, rs...) },
	)
	return log, release
}

type recordLog struct {
	added   []vigil.WrappedRecord
	updated []vigil.WrappedRecord
	removed []vigil.WrappedRecord
}

func (l *recordLog) reset() { l.added, l.updated, l.removed = nil, nil, nil }

func newCoordinator(m *Memory) *vigil.Coordinator {
	return vigil.New(m,
		vigil.WithStrategy(m),
		vigil.WithCatalog(m),
		vigil.WithScheduler(m.Scheduler()),
	)
}

func TestMemoryEndToEnd(t *testing.T) {
	m := NewMemory()
	tasks := m.DefineType("task", []vigil.ColumnSpec{
		{Name: "title", Desc: "Title"},
	})
	a := NewItem(map[string]any{"title": "write docs"})
	b := NewItem(map[string]any{"title": "fix bug"})
	tasks.Add(a, b)

	co := newCoordinator(m)
	defer co.Dispose()

	log, release := watchLog(t, co, "task")
	if len(log.added) != 2 {
		t.Fatalf("expected both items added on watch, got %d", len(log.added))
	}
	if log.added[0].Object != a || log.added[0].ColumnValues["title"] != "write docs" {
		t.Errorf("unexpected first wrapped record %+v", log.added[0])
	}
	log.reset()

	m.Flush(func() { a.SetField("title", "write more docs") })
	if len(log.updated) != 1 || log.updated[0].Object != a {
		t.Fatalf("expected one update for a, got %+v", log.updated)
	}
	if log.updated[0].ColumnValues["title"] != "write more docs" {
		t.Errorf("update should carry the new value, got %v", log.updated[0].ColumnValues)
	}
	if len(log.added) != 0 || len(log.removed) != 0 {
		t.Errorf("field edit must report only an update")
	}
	log.reset()

	m.Flush(func() { tasks.Remove(b) })
	if len(log.removed) != 1 || log.removed[0].Object != b {
		t.Fatalf("expected b removed, got %+v", log.removed)
	}
	log.reset()

	release()
	m.Flush(func() { a.SetField("title", "released") })
	if len(log.added)+len(log.updated)+len(log.removed) != 0 {
		t.Errorf("released watch must stay silent")
	}
}

func TestMemoryFlushCoalesces(t *testing.T) {
	m := NewMemory()
	tasks := m.DefineType("task", nil)
	a := NewItem(map[string]any{"title": "a"})
	tasks.Add(a)

	co := newCoordinator(m)
	defer co.Dispose()

	log, _ := watchLog(t, co, "task")
	log.reset()

	// Added and removed inside one flush: net membership is unchanged,
	// so the pass reports nothing.
	tmp := NewItem(map[string]any{"title": "transient"})
	m.Flush(func() {
		tasks.Add(tmp)
		tasks.Remove(tmp)
	})
	if n := len(log.added) + len(log.updated) + len(log.removed); n != 0 {
		t.Errorf("transient item must not surface, got %d reports", n)
	}

	// Two edits to the same field coalesce into one update carrying the
	// final value.
	m.Flush(func() {
		a.SetField("title", "a2")
		a.SetField("title", "a3")
	})
	if len(log.updated) != 1 || log.updated[0].ColumnValues["title"] != "a3" {
		t.Errorf("expected one update with the final value, got %+v", log.updated)
	}
}

func TestMemoryRemovedThenRecreated(t *testing.T) {
	m := NewMemory()
	tasks := m.DefineType("task", nil)
	a := NewItem(map[string]any{"title": "a"})
	tasks.Add(a)

	co := newCoordinator(m)
	defer co.Dispose()

	log, _ := watchLog(t, co, "task")
	log.reset()

	m.Flush(func() { tasks.Remove(a) })
	if len(log.removed) != 1 {
		t.Fatalf("expected removal, got %+v", log.removed)
	}
	log.reset()

	m.Flush(func() { tasks.Add(a) })
	if len(log.added) != 1 || len(log.updated) != 0 {
		t.Errorf("re-added item must report as added, got adds=%d updates=%d",
			len(log.added), len(log.updated))
	}
}

func TestMemoryTypeWatch(t *testing.T) {
	m := NewMemory()
	tasks := m.DefineType("task", []vigil.ColumnSpec{{Name: "title", Desc: "Title"}})
	m.DefineType("note", nil)
	tasks.Add(NewItem(map[string]any{"title": "a"}))

	co := newCoordinator(m)
	defer co.Dispose()

	var added, updated []vigil.WrappedType
	co.WatchTypes(
		func(ts []vigil.WrappedType) { added = append(added, ts...) },
		func(ts []vigil.WrappedType) { updated = append(updated, ts...) },
	)

	if len(added) != 2 || added[0].Name != "task" || added[0].Count != 1 || added[1].Name != "note" {
		t.Fatalf("unexpected type list %+v", added)
	}

	m.Flush(func() { tasks.Add(NewItem(map[string]any{"title": "b"})) })
	if len(updated) != 1 || updated[0].Name != "task" || updated[0].Count != 2 {
		t.Errorf("expected a single task update with count 2, got %+v", updated)
	}
}

func TestMemoryProjections(t *testing.T) {
	m := NewMemory()
	m.DefineFilters([]vigil.FilterSpec{{Name: "done", Desc: "Done"}})
	it := NewItem(map[string]any{
		"title": "pay rent",
		"tag":   "home",
		"done":  true,
		"count": 3,
		"color": "red",
	})

	kws := m.Keywords(it)
	want := []string{"red", "home", "pay rent"}
	// Sorted by field name: color, tag, title.
	if !reflect.DeepEqual(kws, want) {
		t.Errorf("expected keywords %v, got %v", want, kws)
	}

	fv := m.FilterValues(it)
	if len(fv) != 1 || fv["done"] != true {
		t.Errorf("expected filter values {done:true}, got %v", fv)
	}

	if c := m.Color(it); c != "red" {
		t.Errorf("expected color red, got %q", c)
	}
	if c := m.Color(NewItem(map[string]any{"color": 7})); c != "" {
		t.Errorf("non-string color field must project to empty, got %q", c)
	}
}

func TestMemoryDefineTypeIdempotent(t *testing.T) {
	m := NewMemory()
	t1 := m.DefineType("task", []vigil.ColumnSpec{{Name: "title"}})
	t2 := m.DefineType("task", nil)
	if t1 != t2 {
		t.Errorf("redefining a type must return the existing one")
	}
	if len(m.Types()) != 1 {
		t.Errorf("expected a single declared type, got %d", len(m.Types()))
	}
}
