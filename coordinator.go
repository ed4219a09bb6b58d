package vigil

import (
	"sync"
	"time"
)

// Coordinator is the outward-facing object of the bridge. It resolves
// type names to live collections, creates and deduplicates watchers
// per collection, drives one revalidation pass per batch-completion
// pulse, and tears everything down on Dispose.
//
// At most one CollectionWatcher and one TypeWatcher exist per distinct
// collection at any time. The batch subscription is held exactly while
// at least one watcher of either kind is registered.
type Coordinator struct {
	source   RecordSource
	strategy Strategy
	catalog  TypeCatalog
	tracker  Tracker
	batch    BatchSource
	hooks    Hooks

	mu             sync.Mutex
	recordWatchers map[Collection]*CollectionWatcher
	typeWatchers   map[Collection]*TypeWatcher
	releases       map[uint64]func()
	nextRelease    uint64
	unsubscribe    func()
	disposed       bool
}

// ReleaseFunc tears down one watch registration. Calling it more than
// once is safe.
type ReleaseFunc func()

// New creates a Coordinator over the given record source.
func New(source RecordSource, opts ...Option) *Coordinator {
	c := &Coordinator{
		source:         source,
		strategy:       BaseStrategy{},
		tracker:        ReactiveTracker{},
		recordWatchers: make(map[Collection]*CollectionWatcher),
		typeWatchers:   make(map[Collection]*TypeWatcher),
		releases:       make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WatchRecords resolves name to its live collection and watches it.
// The initial revalidation runs before WatchRecords returns, reporting
// the full current membership through added. A second call for the
// same underlying collection reuses the existing watcher.
//
// An unrecognized name observes an empty collection: zero adds, no
// error.
func (c *Coordinator) WatchRecords(name string, added, updated, removed func([]WrappedRecord)) ReleaseFunc {
	t, _ := c.source.ResolveType(name)
	col := c.strategy.Records(t, name)
	if col == nil {
		col = EmptyCollection()
	}

	c.mu.Lock()
	if w, ok := c.recordWatchers[col]; ok {
		c.mu.Unlock()
		return w.Release
	}

	w := NewCollectionWatcher(CollectionWatcherConfig{
		Collection: col,
		Tracker:    c.tracker,
		Wrap:       c.wrapRecord,
		OnAdded:    added,
		OnUpdated:  updated,
		OnRemoved:  removed,
		OnRelease:  func() { c.removeRecordWatcher(col) },
	})
	c.recordWatchers[col] = w
	c.syncSubscriptionLocked()
	c.mu.Unlock()

	c.hooks.watcherRegistered(KindRecords)
	w.Revalidate()
	return w.Release
}

// WatchTypes enumerates every recognized type, delivers the full
// wrapped list through typesAdded synchronously, and registers a
// TypeWatcher per type so later membership changes reach typesUpdated
// as single-element lists. The returned release tears down every
// observer this call registered.
func (c *Coordinator) WatchTypes(typesAdded, typesUpdated func([]WrappedType)) ReleaseFunc {
	types := c.knownTypes()

	wrapped := make([]WrappedType, 0, len(types))
	observers := make([]ReleaseFunc, 0, len(types))
	for _, t := range types {
		wrapped = append(wrapped, c.wrapType(t))
		observers = append(observers, c.observeType(t, typesUpdated))
	}
	if typesAdded != nil {
		typesAdded(wrapped)
	}

	var once sync.Once
	var id uint64
	release := func() {
		once.Do(func() {
			for _, obs := range observers {
				obs()
			}
			c.dropRelease(id)
		})
	}
	id = c.trackRelease(release)
	return release
}

// RevalidateAll runs one revalidation pass: every type watcher, then
// every collection watcher. The loop iterates a snapshot of the
// registries, so a watcher released from inside a callback simply
// stops participating.
func (c *Coordinator) RevalidateAll() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	tws := make([]*TypeWatcher, 0, len(c.typeWatchers))
	for _, tw := range c.typeWatchers {
		tws = append(tws, tw)
	}
	cws := make([]*CollectionWatcher, 0, len(c.recordWatchers))
	for _, cw := range c.recordWatchers {
		cws = append(cws, cw)
	}
	c.mu.Unlock()

	c.hooks.revalidateStart()
	start := time.Now()

	var total Delta
	for _, tw := range tws {
		tw.Revalidate()
	}
	for _, cw := range cws {
		d := cw.Revalidate()
		total.Added += d.Added
		total.Updated += d.Updated
		total.Removed += d.Removed
	}

	c.hooks.revalidateEnd(time.Since(start), total)
}

// Dispose releases every type watcher, every collection watcher, and
// every pending release callback, then clears the registries. Safe to
// call when some watchers were already individually released, and safe
// to call twice.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true

	tws := make([]*TypeWatcher, 0, len(c.typeWatchers))
	for _, tw := range c.typeWatchers {
		tws = append(tws, tw)
	}
	cws := make([]*CollectionWatcher, 0, len(c.recordWatchers))
	for _, cw := range c.recordWatchers {
		cws = append(cws, cw)
	}
	rels := make([]func(), 0, len(c.releases))
	for _, r := range c.releases {
		rels = append(rels, r)
	}
	unsub := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, tw := range tws {
		tw.Release()
	}
	for _, cw := range cws {
		cw.Release()
	}
	for _, r := range rels {
		r()
	}
	if unsub != nil {
		unsub()
	}

	c.mu.Lock()
	c.recordWatchers = make(map[Collection]*CollectionWatcher)
	c.typeWatchers = make(map[Collection]*TypeWatcher)
	c.releases = make(map[uint64]func())
	c.mu.Unlock()
}

// knownTypes enumerates type handles from the catalog, or by namespace
// scan when no catalog is configured, filtered through the strategy's
// Detect predicate.
func (c *Coordinator) knownTypes() []TypeHandle {
	var all []TypeHandle
	if c.catalog != nil {
		all = c.catalog.Types()
	} else if ns, ok := c.source.(NamespaceSource); ok {
		for _, n := range ns.Namespaces() {
			all = append(all, n.Models()...)
		}
	}

	recognized := make([]TypeHandle, 0, len(all))
	for _, t := range all {
		if c.strategy.Detect(t) {
			recognized = append(recognized, t)
		}
	}
	return recognized
}

// observeType registers (or reuses) the TypeWatcher for t's collection
// and returns its release function.
func (c *Coordinator) observeType(t TypeHandle, updated func([]WrappedType)) ReleaseFunc {
	name := c.source.TypeName(t)
	col := c.strategy.Records(t, name)
	if col == nil {
		col = EmptyCollection()
	}

	c.mu.Lock()
	if tw, ok := c.typeWatchers[col]; ok {
		c.mu.Unlock()
		return tw.Release
	}

	tw := NewTypeWatcher(TypeWatcherConfig{
		Collection: col,
		Tracker:    c.tracker,
		OnChange: func() {
			// Re-wrapping reads the collection count; keep that out
			// of the type cache's dependency set, which must stay
			// membership-only.
			c.tracker.Untracked(func() {
				if updated != nil {
					updated([]WrappedType{c.wrapType(t)})
				}
			})
		},
		OnRelease: func() { c.removeTypeWatcher(col) },
	})
	c.typeWatchers[col] = tw
	c.syncSubscriptionLocked()
	c.mu.Unlock()

	c.hooks.watcherRegistered(KindTypes)
	tw.Revalidate()
	return tw.Release
}

// wrapRecord projects a record through the strategy hooks.
func (c *Coordinator) wrapRecord(r Record) WrappedRecord {
	return WrappedRecord{
		Object:         r,
		ColumnValues:   c.strategy.ColumnValues(r),
		SearchKeywords: c.strategy.Keywords(r),
		FilterValues:   c.strategy.FilterValues(r),
		Color:          c.strategy.Color(r),
	}
}

// wrapType projects a type handle through the strategy hooks.
func (c *Coordinator) wrapType(t TypeHandle) WrappedType {
	name := c.source.TypeName(t)
	col := c.strategy.Records(t, name)
	if col == nil {
		col = EmptyCollection()
	}
	return WrappedType{
		Name:    name,
		Count:   col.Len(),
		Columns: c.strategy.Columns(t),
		Object:  t,
	}
}

func (c *Coordinator) removeRecordWatcher(col Collection) {
	c.mu.Lock()
	delete(c.recordWatchers, col)
	c.syncSubscriptionLocked()
	c.mu.Unlock()
	c.hooks.watcherReleased(KindRecords)
}

func (c *Coordinator) removeTypeWatcher(col Collection) {
	c.mu.Lock()
	delete(c.typeWatchers, col)
	c.syncSubscriptionLocked()
	c.mu.Unlock()
	c.hooks.watcherReleased(KindTypes)
}

// syncSubscriptionLocked keeps the batch subscription in step with the
// registries: subscribed while any watcher exists, otherwise not.
// Reference-counted by registry size, not watcher identity. During
// Dispose the registries drain one release at a time, so resubscribing
// is suppressed once disposal has begun.
func (c *Coordinator) syncSubscriptionLocked() {
	n := len(c.recordWatchers) + len(c.typeWatchers)
	switch {
	case n > 0 && c.unsubscribe == nil && c.batch != nil && !c.disposed:
		c.unsubscribe = c.batch.Subscribe(c.RevalidateAll)
	case n == 0 && c.unsubscribe != nil:
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Coordinator) trackRelease(fn func()) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextRelease
	c.nextRelease++
	c.releases[id] = fn
	return id
}

func (c *Coordinator) dropRelease(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.releases, id)
}
