package vigil

// TypeWatcherConfig configures a TypeWatcher. Collection is required.
type TypeWatcherConfig struct {
	Collection Collection

	// Tracker defaults to ReactiveTracker.
	Tracker Tracker

	// OnChange fires once per membership change, never as a no-op
	// poll, and never for the initial baseline.
	OnChange func()

	// OnRelease runs once when the watcher is released.
	OnRelease func()
}

// TypeWatcher observes one collection for membership changes only. It
// never inspects record contents, which keeps type-level metadata
// (record counts) fresh without per-record diffing.
type TypeWatcher struct {
	collection Collection
	onChange   func()
	onRelease  func()

	cache Cache

	// primed flips after the baseline force; only later re-runs
	// report a change.
	primed bool

	released bool
}

// NewTypeWatcher creates a watcher around cfg.Collection. The baseline
// is not captured until the first Revalidate.
func NewTypeWatcher(cfg TypeWatcherConfig) *TypeWatcher {
	t := &TypeWatcher{
		collection: cfg.Collection,
		onChange:   cfg.OnChange,
		onRelease:  cfg.OnRelease,
	}
	tracker := cfg.Tracker
	if tracker == nil {
		tracker = ReactiveTracker{}
	}
	t.cache = tracker.Cache(t.check)
	return t
}

// check is the memoized computation: observe membership (a tracked
// read) and report a change on every run after the first. The memo
// only re-runs when membership actually changed, so OnChange fires
// exactly on deltas. Records is the tracked read, not Len, so the
// watcher sees same-size swaps even when the collection counts
// separately. Identities only; contents stay unread.
func (t *TypeWatcher) check() {
	_ = t.collection.Records()

	if !t.primed {
		t.primed = true
		return
	}
	if t.onChange != nil {
		t.onChange()
	}
}

// Revalidate forces the membership check. A cache hit means no
// membership change and no callback.
func (t *TypeWatcher) Revalidate() {
	if t.released {
		return
	}
	t.cache.Force()
}

// Release detaches the watcher and runs the release callback once.
// Safe to call repeatedly.
func (t *TypeWatcher) Release() {
	if t.released {
		return
	}
	t.released = true
	t.cache.Release()
	if t.onRelease != nil {
		t.onRelease()
	}
}
