package vigil

import (
	"testing"
	"time"
)

// testHandle is a type handle bound to one test collection.
type testHandle struct {
	name string
	col  *testCollection
}

// testSource is a RecordSource, TypeCatalog and Strategy over a fixed
// set of named test collections.
type testSource struct {
	BaseStrategy
	order []*testHandle
	byKey map[string]*testHandle
}

func newTestSource() *testSource {
	return &testSource{byKey: map[string]*testHandle{}}
}

func (s *testSource) define(name string, recs ...Record) *testHandle {
	h := &testHandle{name: name, col: newTestCollection(recs...)}
	s.order = append(s.order, h)
	s.byKey[name] = h
	return h
}

func (s *testSource) ResolveType(name string) (TypeHandle, bool) {
	h, ok := s.byKey[name]
	if !ok {
		return nil, false
	}
	return h, true
}

func (s *testSource) TypeName(t TypeHandle) string { return t.(*testHandle).name }

func (s *testSource) Types() []TypeHandle {
	out := make([]TypeHandle, len(s.order))
	for i, h := range s.order {
		out[i] = h
	}
	return out
}

func (s *testSource) Detect(TypeHandle) bool { return true }

func (s *testSource) Records(t TypeHandle, name string) Collection {
	if t == nil {
		return nil
	}
	return t.(*testHandle).col
}

func (s *testSource) Columns(TypeHandle) []ColumnSpec {
	return []ColumnSpec{{Name: "name", Desc: "Name"}}
}

func (s *testSource) ColumnValues(r Record) map[string]any {
	return wrapByName(r).ColumnValues
}

// fakeBatch records subscriptions so tests can pulse revalidation by
// hand and assert the subscription lifecycle.
type fakeBatch struct {
	fn         func()
	subscribes int
	cancels    int
}

func (b *fakeBatch) Subscribe(fn func()) func() {
	b.subscribes++
	b.fn = fn
	return func() {
		b.cancels++
		b.fn = nil
	}
}

func (b *fakeBatch) pulse() {
	if b.fn != nil {
		b.fn()
	}
}

func TestWatchRecordsInitialAdds(t *testing.T) {
	src := newTestSource()
	a := newTestRecord("a")
	src.define("task", a, newTestRecord("b"))
	co := New(src, WithStrategy(src), WithCatalog(src))

	log := &diffLog{}
	release := co.WatchRecords("task",
		func(rs []WrappedRecord) { log.added = append(log.added, rs) },
		func(rs []WrappedRecord) { log.updated = append(log.updated, rs) },
		func(rs []WrappedRecord) { log.removed = append(log.removed, rs) },
	)
	defer release()

	if len(log.added) != 1 || len(log.added[0]) != 2 {
		t.Fatalf("expected synchronous add of both records, got %v", log.added)
	}
	if got := log.added[0][0]; got.Object != a || got.ColumnValues["name"] != "a" {
		t.Errorf("unexpected wrapped record %+v", got)
	}
}

func TestWatchRecordsUnknownName(t *testing.T) {
	src := newTestSource()
	co := New(src, WithStrategy(src), WithCatalog(src))

	calls := 0
	release := co.WatchRecords("ghost",
		func(rs []WrappedRecord) { calls += len(rs) }, nil, nil)
	if calls != 0 {
		t.Errorf("unknown type must observe an empty collection, got %d adds", calls)
	}
	release()
	release()
}

func TestWatchRecordsLifecycle(t *testing.T) {
	src := newTestSource()
	a := newTestRecord("a")
	b := newTestRecord("b")
	h := src.define("task", a, b)
	batch := &fakeBatch{}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch))

	log := &diffLog{}
	release := co.WatchRecords("task",
		func(rs []WrappedRecord) { log.added = append(log.added, rs) },
		func(rs []WrappedRecord) { log.updated = append(log.updated, rs) },
		func(rs []WrappedRecord) { log.removed = append(log.removed, rs) },
	)

	a.name.Set("a2")
	batch.pulse()
	if added, updated, removed := log.counts(); added != 2 || updated != 1 || removed != 0 {
		t.Fatalf("after field edit expected 2/1/0, got %d/%d/%d", added, updated, removed)
	}

	h.col.set(a)
	batch.pulse()
	if added, updated, removed := log.counts(); added != 2 || updated != 1 || removed != 1 {
		t.Fatalf("after removal expected 2/1/1, got %d/%d/%d", added, updated, removed)
	}
	if got := objects(log.removed[0]); got[0] != b {
		t.Errorf("expected removed=[b], got %v", got)
	}

	release()
	a.name.Set("a3")
	h.col.set()
	batch.pulse()
	if added, updated, removed := log.counts(); added != 2 || updated != 1 || removed != 1 {
		t.Errorf("released watch must be silent, got %d/%d/%d", added, updated, removed)
	}
}

func TestWatchRecordsDeduplicates(t *testing.T) {
	src := newTestSource()
	h := src.define("task", newTestRecord("a"))
	batch := &fakeBatch{}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch))

	first := &diffLog{}
	rel1 := co.WatchRecords("task",
		func(rs []WrappedRecord) { first.added = append(first.added, rs) }, nil, nil)

	second := 0
	rel2 := co.WatchRecords("task",
		func(rs []WrappedRecord) { second += len(rs) }, nil, nil)

	// The second registration reuses the live watcher; its callbacks
	// never fire.
	if second != 0 {
		t.Errorf("duplicate watch must not run its own callbacks, got %d adds", second)
	}
	if batch.subscribes != 1 {
		t.Errorf("one watcher, one subscription, got %d", batch.subscribes)
	}

	rel2()
	h.col.set(newTestRecord("b"))
	batch.pulse()
	if added, _, _ := first.counts(); added != 1 {
		t.Errorf("either release handle tears the shared watcher down, got %d adds", added)
	}
	rel1()
}

func TestBatchSubscriptionTracksWatcherCount(t *testing.T) {
	src := newTestSource()
	src.define("task", newTestRecord("a"))
	src.define("note")
	batch := &fakeBatch{}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch))

	rel1 := co.WatchRecords("task", nil, nil, nil)
	rel2 := co.WatchRecords("note", nil, nil, nil)
	if batch.subscribes != 1 || batch.cancels != 0 {
		t.Fatalf("expected a single live subscription, got %d/%d",
			batch.subscribes, batch.cancels)
	}

	rel1()
	if batch.cancels != 0 {
		t.Errorf("subscription must survive while a watcher remains")
	}
	rel2()
	if batch.cancels != 1 {
		t.Errorf("last release must cancel the subscription, got %d", batch.cancels)
	}

	rel3 := co.WatchRecords("task", nil, nil, nil)
	if batch.subscribes != 2 {
		t.Errorf("a fresh watcher resubscribes, got %d", batch.subscribes)
	}
	rel3()
}

func TestWatchTypes(t *testing.T) {
	src := newTestSource()
	taskA := newTestRecord("a")
	task := src.define("task", taskA)
	src.define("note", newTestRecord("n1"), newTestRecord("n2"))
	batch := &fakeBatch{}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch))

	var added, updated [][]WrappedType
	release := co.WatchTypes(
		func(ts []WrappedType) { added = append(added, ts) },
		func(ts []WrappedType) { updated = append(updated, ts) },
	)

	if len(added) != 1 || len(added[0]) != 2 {
		t.Fatalf("expected one synchronous list of both types, got %v", added)
	}
	if wt := added[0][0]; wt.Name != "task" || wt.Count != 1 || len(wt.Columns) != 1 {
		t.Errorf("unexpected wrapped type %+v", wt)
	}
	if wt := added[0][1]; wt.Name != "note" || wt.Count != 2 {
		t.Errorf("unexpected wrapped type %+v", wt)
	}

	task.col.set(taskA, newTestRecord("b"))
	batch.pulse()
	if len(updated) != 1 || len(updated[0]) != 1 {
		t.Fatalf("expected a single one-element update, got %v", updated)
	}
	if wt := updated[0][0]; wt.Name != "task" || wt.Count != 2 {
		t.Errorf("update should carry the new count, got %+v", wt)
	}

	// Field edits do not change membership.
	taskA.name.Set("a2")
	batch.pulse()
	if len(updated) != 1 {
		t.Errorf("field edit must not update a type, got %d", len(updated))
	}

	release()
	release()
	task.col.set(taskA)
	batch.pulse()
	if len(updated) != 1 {
		t.Errorf("released type watch must be silent, got %d", len(updated))
	}
	if batch.cancels != 1 {
		t.Errorf("releasing the last watchers cancels the subscription, got %d", batch.cancels)
	}
}

func TestDispose(t *testing.T) {
	src := newTestSource()
	task := src.define("task", newTestRecord("a"))
	batch := &fakeBatch{}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch))

	log := &diffLog{}
	co.WatchRecords("task",
		func(rs []WrappedRecord) { log.added = append(log.added, rs) }, nil, nil)
	var updates int
	relTypes := co.WatchTypes(nil, func([]WrappedType) { updates++ })

	co.Dispose()
	co.Dispose()

	if batch.cancels != 1 {
		t.Errorf("dispose must drop the batch subscription, got %d cancels", batch.cancels)
	}
	if batch.subscribes != 1 {
		t.Errorf("dispose must not resubscribe while draining watchers, got %d subscribes", batch.subscribes)
	}

	task.col.set()
	batch.pulse()
	co.RevalidateAll()
	if added, _, removed := log.counts(); added != 1 || removed != 0 {
		t.Errorf("disposed coordinator must not diff, got adds=%d removes=%d", added, removed)
	}
	if updates != 0 {
		t.Errorf("disposed coordinator must not report type updates, got %d", updates)
	}

	// A release handle outliving Dispose stays safe.
	relTypes()
}

func TestDisposeAfterPartialRelease(t *testing.T) {
	src := newTestSource()
	src.define("task", newTestRecord("a"))
	src.define("note", newTestRecord("n"))
	batch := &fakeBatch{}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch))

	rel := co.WatchRecords("task", nil, nil, nil)
	co.WatchRecords("note", nil, nil, nil)
	rel()
	co.Dispose()

	if batch.cancels != 1 {
		t.Errorf("expected exactly one cancel, got %d", batch.cancels)
	}
}

func TestHooksObserveLifecycle(t *testing.T) {
	src := newTestSource()
	a := newTestRecord("a")
	h := src.define("task", a)
	batch := &fakeBatch{}

	var registered, released []WatcherKind
	var deltas []Delta
	var elapsed []time.Duration
	hooks := Hooks{
		WatcherRegistered: func(kind WatcherKind) { registered = append(registered, kind) },
		WatcherReleased:   func(kind WatcherKind) { released = append(released, kind) },
		RevalidateEnd: func(d time.Duration, delta Delta) {
			elapsed = append(elapsed, d)
			deltas = append(deltas, delta)
		},
	}
	co := New(src, WithStrategy(src), WithCatalog(src), WithScheduler(batch), WithHooks(hooks))

	rel := co.WatchRecords("task", nil, nil, nil)
	if len(registered) != 1 || registered[0] != KindRecords {
		t.Fatalf("expected a records registration hook, got %v", registered)
	}

	h.col.set(a, newTestRecord("b"))
	batch.pulse()
	if len(deltas) != 1 || deltas[0].Added != 1 {
		t.Errorf("expected an aggregate delta with one add, got %v", deltas)
	}
	if len(elapsed) != 1 || elapsed[0] < 0 {
		t.Errorf("expected a non-negative pass duration, got %v", elapsed)
	}

	rel()
	if len(released) != 1 || released[0] != KindRecords {
		t.Errorf("expected a records release hook, got %v", released)
	}
}
