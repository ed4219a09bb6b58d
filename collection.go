package vigil

// Delta summarizes one revalidation pass. Used for instrumentation;
// the authoritative output is the callbacks themselves.
type Delta struct {
	Added   int
	Updated int
	Removed int
}

// Empty reports whether the pass observed no change at all.
func (d Delta) Empty() bool { return d == Delta{} }

// CollectionWatcherConfig configures a CollectionWatcher. Collection
// is required; everything else has an inert default.
type CollectionWatcherConfig struct {
	Collection Collection

	// Tracker is the memoization engine. Defaults to ReactiveTracker.
	Tracker Tracker

	// Wrap projects a record for delivery. Defaults to a bare
	// WrappedRecord around the object.
	Wrap func(Record) WrappedRecord

	// OnAdded, OnUpdated and OnRemoved receive non-empty diffs, each
	// invoked at most once per revalidation, in that order.
	OnAdded   func([]WrappedRecord)
	OnUpdated func([]WrappedRecord)
	OnRemoved func([]WrappedRecord)

	// OnRelease runs once when the watcher is released.
	OnRelease func()
}

// CollectionWatcher diffs one collection across revalidations. It owns
// a memoized node per present record, keyed by record identity, plus
// one top-level node that performs the full diff. Unchanged records
// cost a cache hit to reconfirm.
//
// Not safe for concurrent use; see the package model — all
// revalidation runs synchronously inside the batch-completion signal.
type CollectionWatcher struct {
	collection Collection
	tracker    Tracker
	wrap       func(Record) WrappedRecord
	onAdded    func([]WrappedRecord)
	onUpdated  func([]WrappedRecord)
	onRemoved  func([]WrappedRecord)
	onRelease  func()

	top   Cache
	nodes map[Record]*recordNode

	// order remembers known records in report order, so removals are
	// delivered deterministically even though nodes is a map.
	order []Record

	// Diff accumulators for the in-flight pass. The per-record node
	// computations append to these.
	added   []WrappedRecord
	updated []WrappedRecord
	removed []WrappedRecord

	released bool
}

// recordNode is the memoized state for one present record. reported
// flips after the first evaluation so later re-evaluations classify as
// updates.
type recordNode struct {
	cache    Cache
	reported bool
}

// NewCollectionWatcher creates a watcher around cfg.Collection. No
// diff is computed until the first Revalidate.
func NewCollectionWatcher(cfg CollectionWatcherConfig) *CollectionWatcher {
	w := &CollectionWatcher{
		collection: cfg.Collection,
		tracker:    cfg.Tracker,
		wrap:       cfg.Wrap,
		onAdded:    cfg.OnAdded,
		onUpdated:  cfg.OnUpdated,
		onRemoved:  cfg.OnRemoved,
		onRelease:  cfg.OnRelease,
		nodes:      make(map[Record]*recordNode),
	}
	if w.tracker == nil {
		w.tracker = ReactiveTracker{}
	}
	if w.wrap == nil {
		w.wrap = func(r Record) WrappedRecord { return WrappedRecord{Object: r} }
	}
	w.top = w.tracker.Cache(w.diff)
	return w
}

// Revalidate forces the full-collection diff and dispatches any
// non-empty result, added then updated then removed. When nothing
// changed since the last pass the force is a cache hit and no callback
// fires.
func (w *CollectionWatcher) Revalidate() Delta {
	if w.released {
		return Delta{}
	}

	w.added, w.updated, w.removed = nil, nil, nil
	w.top.Force()

	d := Delta{Added: len(w.added), Updated: len(w.updated), Removed: len(w.removed)}
	if len(w.added) > 0 && w.onAdded != nil {
		w.onAdded(w.added)
	}
	if len(w.updated) > 0 && w.onUpdated != nil {
		w.onUpdated(w.updated)
	}
	if len(w.removed) > 0 && w.onRemoved != nil {
		w.onRemoved(w.removed)
	}
	w.added, w.updated, w.removed = nil, nil, nil
	return d
}

// diff is the top-level memoized computation. Reading the collection
// here registers membership as a dependency; forcing each per-record
// node registers that node, so a single record's field change is
// enough to dirty the whole diff.
func (w *CollectionWatcher) diff() {
	records := w.collection.Records()

	seen := make(map[Record]struct{}, len(records))
	for _, rec := range records {
		node, ok := w.nodes[rec]
		if !ok {
			node = w.newNode(rec)
			w.nodes[rec] = node
		}
		node.cache.Force()
		seen[rec] = struct{}{}
	}

	// Removal pass. These records are gone: wrapping them must not
	// register dependencies, or a removed-then-recreated record would
	// inherit stale subscriptions and keep re-triggering this diff.
	w.tracker.Untracked(func() {
		for _, rec := range w.order {
			if _, present := seen[rec]; present {
				continue
			}
			node, ok := w.nodes[rec]
			if !ok {
				continue
			}
			w.removed = append(w.removed, w.wrap(rec))
			node.cache.Release()
			delete(w.nodes, rec)
		}
	})

	w.order = records
}

// newNode builds the memoized node for one record. The computation
// wraps the record — reading its tracked fields, which become the
// node's dependencies — and classifies the evaluation as added on the
// first run and updated on every re-run after that.
func (w *CollectionWatcher) newNode(rec Record) *recordNode {
	node := &recordNode{}
	node.cache = w.tracker.Cache(func() {
		wrapped := w.wrap(rec)
		if !node.reported {
			node.reported = true
			w.added = append(w.added, wrapped)
			return
		}
		w.updated = append(w.updated, wrapped)
	})
	return node
}

// Release drops every per-record node and runs the release callback.
// Further Revalidate calls are no-ops. Calling Release again is safe.
func (w *CollectionWatcher) Release() {
	if w.released {
		return
	}
	w.released = true

	for _, node := range w.nodes {
		node.cache.Release()
	}
	w.nodes = make(map[Record]*recordNode)
	w.order = nil
	w.top.Release()

	if w.onRelease != nil {
		w.onRelease()
	}
}
