package vigil

import "github.com/vigil-dev/vigil/pkg/reactive"

// Cache is one memoized computation node. Force runs the computation
// on first use and again only when a value it read during its last run
// has since changed; otherwise it is a cheap no-op. Release detaches
// the node from every dependency so it can be dropped without leaking
// subscriptions.
type Cache interface {
	Force()
	Release()
}

// Tracker is the dependency-tracking capability the watchers are built
// on. The default is ReactiveTracker; any engine with equivalent
// re-run-only-on-relevant-change semantics can substitute.
type Tracker interface {
	// Cache wraps compute in a memoized node. compute is not run
	// until the first Force.
	Cache(compute func()) Cache

	// Untracked runs fn with dependency registration suspended, so
	// reads inside fn do not influence when enclosing caches re-run.
	Untracked(fn func())
}

// ReactiveTracker implements Tracker on top of pkg/reactive memos.
type ReactiveTracker struct{}

func (ReactiveTracker) Cache(compute func()) Cache {
	return &reactiveCache{
		memo: reactive.NewMemo(func() struct{} {
			compute()
			return struct{}{}
		}),
	}
}

func (ReactiveTracker) Untracked(fn func()) { reactive.Untracked(fn) }

type reactiveCache struct {
	memo *reactive.Memo[struct{}]
}

// Force evaluates through Get rather than Peek so that a cache forced
// inside another cache's computation becomes its dependency. That
// chain is what lets a single record's field change invalidate the
// whole-collection diff.
func (c *reactiveCache) Force() { c.memo.Get() }

func (c *reactiveCache) Release() { c.memo.Dispose() }

var _ Tracker = ReactiveTracker{}
