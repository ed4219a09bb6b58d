package reactive

import "sync"

// Scheduler broadcasts "a unit of work has completed". Hosts pulse it
// after each batch of record mutations; subscribers (the vigil
// coordinator) use the pulse to drive one revalidation pass over
// everything they watch.
//
// Subscription order is unspecified. Notify runs handlers synchronously
// on the calling goroutine.
type Scheduler struct {
	mu       sync.Mutex
	nextSub  uint64
	handlers map[uint64]func()
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{handlers: make(map[uint64]func())}
}

// Subscribe registers fn to run on every Notify. The returned cancel
// function removes the subscription and is safe to call repeatedly.
func (s *Scheduler) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.handlers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

// Notify fires every subscribed handler once. Handlers registered or
// cancelled during the callback do not affect the in-flight pulse.
func (s *Scheduler) Notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.handlers))
	for _, fn := range s.handlers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Flush runs fn as a batch and then notifies subscribers, which is the
// common host pattern: mutate, then let watchers catch up.
func (s *Scheduler) Flush(fn func()) {
	Batch(fn)
	s.Notify()
}
