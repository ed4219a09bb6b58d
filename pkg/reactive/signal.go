package reactive

import (
	"reflect"
	"sync"
)

// Signal is a tracked value container. Get during a tracked computation
// subscribes that computation; Set marks subscribers dirty when the
// value actually changed under the configured equality.
type Signal[T any] struct {
	deps  depSet
	mu    sync.RWMutex
	value T

	// equal overrides change detection. Nil means defaultEquals.
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		deps:  depSet{id: nextID()},
		value: initial,
	}
}

// Get returns the current value and subscribes the current listener,
// if one is active on this goroutine.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	v := s.value
	s.mu.RUnlock()

	if l := currentListener(); l != nil {
		s.deps.subscribe(l)
		if src, ok := l.(sourceTracker); ok {
			src.addSource(&s.deps)
		}
	}
	return v
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value, notifying subscribers only on real change.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	changed := !s.equals(s.value, v)
	if changed {
		s.value = v
	}
	s.mu.Unlock()

	if changed {
		s.deps.notify()
	}
}

// Update applies fn to the current value and stores the result.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.equals(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.deps.notify()
	}
}

// WithEquals configures a custom equality function and returns the
// signal for chaining. Useful when DeepEqual is wrong or too slow.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the signal's unique identifier.
func (s *Signal[T]) ID() uint64 { return s.deps.id }

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals uses == for the common scalar kinds and falls back to
// reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int64:
		return av == any(b).(int64)
	case uint64:
		return av == any(b).(uint64)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		return reflect.DeepEqual(a, b)
	}
}

// sourceTracker is implemented by listeners that keep a source list for
// later unsubscription (memos). Needed because Memo is generic and
// cannot be matched with a plain type assertion.
type sourceTracker interface {
	Listener
	addSource(*depSet)
}
