package reactive

import (
	"sync"
	"testing"
)

// testListener is a simple Listener implementation for testing.
type testListener struct {
	id         uint64
	dirtyCount int
	mu         sync.Mutex
}

func newTestListener() *testListener {
	return &testListener{id: nextID()}
}

func (l *testListener) MarkDirty() {
	l.mu.Lock()
	l.dirtyCount++
	l.mu.Unlock()
}

func (l *testListener) ID() uint64 {
	return l.id
}

func (l *testListener) getDirtyCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirtyCount
}

func TestCurrentCtxSameGoroutine(t *testing.T) {
	c1 := currentCtx()
	c2 := currentCtx()
	if c1 != c2 {
		t.Error("currentCtx should return same context for same goroutine")
	}
}

func TestCtxIsolationAcrossGoroutines(t *testing.T) {
	var wg sync.WaitGroup
	ctxs := make(chan *trackCtx, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		ctxs <- currentCtx()
	}()
	go func() {
		defer wg.Done()
		ctxs <- currentCtx()
	}()
	wg.Wait()
	close(ctxs)

	a := <-ctxs
	b := <-ctxs
	if a == b {
		t.Error("goroutines should get distinct tracking contexts")
	}
}

func trackCtxCount() int {
	n := 0
	trackCtxs.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestIdleContextsAreDropped(t *testing.T) {
	baseline := trackCtxCount()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := NewSignal(1)
		l := newTestListener()
		WithListener(l, func() {
			_ = sig.Get()
		})
		Batch(func() {
			sig.Set(2)
		})
		sig.Set(3)
	}()
	<-done

	if n := trackCtxCount(); n > baseline {
		t.Errorf("finished goroutine left tracking contexts behind: %d before, %d after", baseline, n)
	}
}

func TestUntrackedReadsRegisterNoContext(t *testing.T) {
	baseline := trackCtxCount()

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := NewSignal("x")
		_ = sig.Get()
		sig.Set("y")
	}()
	<-done

	if n := trackCtxCount(); n > baseline {
		t.Errorf("untracked access should not allocate contexts: %d before, %d after", baseline, n)
	}
}

func TestWithListenerSubscribes(t *testing.T) {
	sig := NewSignal(1)
	l := newTestListener()

	WithListener(l, func() {
		_ = sig.Get()
	})

	sig.Set(2)
	if l.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification, got %d", l.getDirtyCount())
	}
}

func TestWithListenerRestoresPrevious(t *testing.T) {
	outer := newTestListener()
	inner := newTestListener()
	sig := NewSignal(1)

	WithListener(outer, func() {
		WithListener(inner, func() {})
		_ = sig.Get()
	})

	sig.Set(2)
	if outer.getDirtyCount() != 1 {
		t.Errorf("outer listener should be restored, got %d notifications", outer.getDirtyCount())
	}
	if inner.getDirtyCount() != 0 {
		t.Errorf("inner listener read nothing, got %d notifications", inner.getDirtyCount())
	}
}
