package reactive

import (
	"sync"
	"sync/atomic"
)

// Memo is a lazy memoized computation with automatic dependency
// tracking. Get recomputes only when a value read during the previous
// run has since changed; otherwise it returns the cache untouched.
//
// Memos are themselves tracked values, so memos can read memos and
// invalidation propagates through the chain.
type Memo[T any] struct {
	deps    depSet
	compute func() T

	valueMu sync.RWMutex
	value   T

	// valid is false until the first Get and whenever a source has
	// changed since the last run.
	valid atomic.Bool

	// sources are the signals/memos read during the last run.
	sourcesMu sync.Mutex
	sources   []*depSet

	// computing guards against self-referential computations.
	computing atomic.Bool

	disposed atomic.Bool
}

// NewMemo creates a memo around compute. The function does not run
// until the first Get.
func NewMemo[T any](compute func() T) *Memo[T] {
	return &Memo[T]{
		deps:    depSet{id: nextID()},
		compute: compute,
	}
}

// Get returns the memoized value, recomputing first if any dependency
// changed. Subscribes the current listener to this memo.
func (m *Memo[T]) Get() T {
	if l := currentListener(); l != nil {
		m.deps.subscribe(l)
		if src, ok := l.(sourceTracker); ok {
			src.addSource(&m.deps)
		}
	}

	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	v := m.value
	m.valueMu.RUnlock()
	return v
}

// Peek returns the value without subscribing. Still recomputes when
// stale.
func (m *Memo[T]) Peek() T {
	if !m.valid.Load() {
		m.recompute()
	}
	m.valueMu.RLock()
	v := m.value
	m.valueMu.RUnlock()
	return v
}

// MarkDirty invalidates the cache and propagates dirtiness downstream.
// Implements Listener; called by sources when they change.
func (m *Memo[T]) MarkDirty() {
	if m.disposed.Load() {
		return
	}
	if m.valid.CompareAndSwap(true, false) {
		m.deps.notify()
	}
}

// ID returns the memo's unique identifier. Implements Listener.
func (m *Memo[T]) ID() uint64 { return m.deps.id }

// Dispose unsubscribes the memo from every source and drops its own
// subscribers. A disposed memo never recomputes again; its sources can
// change freely without reaching it. Safe to call more than once.
func (m *Memo[T]) Dispose() {
	if m.disposed.Swap(true) {
		return
	}
	m.sourcesMu.Lock()
	for _, src := range m.sources {
		src.unsubscribe(m)
	}
	m.sources = nil
	m.sourcesMu.Unlock()
	m.deps.clear()
}

// addSource records a dependency for unsubscription on the next run.
// Implements sourceTracker.
func (m *Memo[T]) addSource(src *depSet) {
	m.sourcesMu.Lock()
	defer m.sourcesMu.Unlock()
	for _, s := range m.sources {
		if s == src {
			return
		}
	}
	m.sources = append(m.sources, src)
}

// recompute runs the computation with this memo installed as the
// current listener, rebuilding the source list from scratch.
func (m *Memo[T]) recompute() {
	if m.disposed.Load() {
		return
	}
	if m.computing.Swap(true) {
		// Circular dependency; keep the stale value.
		return
	}
	defer m.computing.Store(false)

	m.sourcesMu.Lock()
	for _, src := range m.sources {
		src.unsubscribe(m)
	}
	m.sources = m.sources[:0]
	m.sourcesMu.Unlock()

	old := swapListener(m)
	v := m.compute()
	swapListener(old)

	m.valueMu.Lock()
	m.value = v
	m.valueMu.Unlock()

	m.valid.Store(true)
}

var _ sourceTracker = (*Memo[int])(nil)
