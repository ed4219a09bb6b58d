package reactive

import (
	"sync"
	"sync/atomic"
)

// Listener is anything that wants to hear about dependency changes.
// Memos implement it; so can host code that schedules work when a
// tracked value it read becomes stale.
type Listener interface {
	// MarkDirty tells the listener that a value it read has changed.
	// It must be cheap and must not read tracked state.
	MarkDirty()

	// ID returns a stable unique identifier, used to deduplicate
	// notifications within a batch.
	ID() uint64
}

// idCounter issues process-unique IDs for signals and memos.
var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// depSet is the subscriber registry embedded in Signal and Memo.
type depSet struct {
	id   uint64
	mu   sync.RWMutex
	subs []Listener
}

// subscribe registers l, deduplicating by listener ID.
func (d *depSet) subscribe(l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	lid := l.ID()
	for _, s := range d.subs {
		if s.ID() == lid {
			return
		}
	}
	d.subs = append(d.subs, l)
}

// unsubscribe removes l if present. Order of subs is not significant.
func (d *depSet) unsubscribe(l Listener) {
	if l == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	lid := l.ID()
	for i, s := range d.subs {
		if s.ID() == lid {
			d.subs[i] = d.subs[len(d.subs)-1]
			d.subs = d.subs[:len(d.subs)-1]
			return
		}
	}
}

// notify marks every subscriber dirty, or queues them if a batch is
// open on this goroutine. Subscribers are copied out first so MarkDirty
// runs without the lock held.
func (d *depSet) notify() {
	d.mu.RLock()
	subs := make([]Listener, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	if batchDepth() > 0 {
		for _, s := range subs {
			queuePending(s)
		}
		return
	}
	for _, s := range subs {
		s.MarkDirty()
	}
}

// clear drops every subscriber. Used when a memo is disposed.
func (d *depSet) clear() {
	d.mu.Lock()
	d.subs = nil
	d.mu.Unlock()
}
