package reactive

import "testing"

func TestBatchCoalescesNotifications(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)
	l := newTestListener()

	WithListener(l, func() {
		_ = a.Get()
		_ = b.Get()
	})

	Batch(func() {
		a.Set(10)
		b.Set(20)
	})

	if l.getDirtyCount() != 1 {
		t.Errorf("expected 1 coalesced notification, got %d", l.getDirtyCount())
	}
}

func TestBatchNested(t *testing.T) {
	s := NewSignal(0)
	l := newTestListener()

	WithListener(l, func() { _ = s.Get() })

	Batch(func() {
		s.Set(1)
		Batch(func() {
			s.Set(2)
		})
		if l.getDirtyCount() != 0 {
			t.Error("no notification should fire before outermost batch closes")
		}
	})

	if l.getDirtyCount() != 1 {
		t.Errorf("expected 1 notification after outer batch, got %d", l.getDirtyCount())
	}
}

func TestBatchMemoSeesFinalValueOnly(t *testing.T) {
	computations := 0
	s := NewSignal(0)
	m := NewMemo(func() int {
		computations++
		return s.Get()
	})
	_ = m.Get()

	Batch(func() {
		s.Set(1)
		s.Set(2)
		s.Set(3)
	})

	if m.Get() != 3 {
		t.Errorf("expected 3, got %d", m.Get())
	}
	if computations != 2 {
		t.Errorf("expected one recomputation after the batch, got %d total runs", computations)
	}
}

func TestSchedulerNotify(t *testing.T) {
	sched := NewScheduler()
	fired := 0
	cancel := sched.Subscribe(func() { fired++ })

	sched.Notify()
	sched.Notify()
	if fired != 2 {
		t.Errorf("expected 2 pulses, got %d", fired)
	}

	cancel()
	sched.Notify()
	if fired != 2 {
		t.Errorf("cancelled handler should not fire, got %d", fired)
	}

	cancel() // safe to call again
}

func TestSchedulerFlushBatchesThenNotifies(t *testing.T) {
	sched := NewScheduler()
	s := NewSignal(0)
	l := newTestListener()
	WithListener(l, func() { _ = s.Get() })

	var dirtyAtPulse int
	sched.Subscribe(func() { dirtyAtPulse = l.getDirtyCount() })

	sched.Flush(func() {
		s.Set(1)
		s.Set(2)
	})

	if dirtyAtPulse != 1 {
		t.Errorf("pulse should run after batched notification, saw %d", dirtyAtPulse)
	}
}

func TestSchedulerCancelDuringNotify(t *testing.T) {
	sched := NewScheduler()
	var cancel func()
	fired := 0
	cancel = sched.Subscribe(func() {
		fired++
		cancel()
	})

	sched.Notify()
	sched.Notify()
	if fired != 1 {
		t.Errorf("handler cancelled mid-pulse should not refire, got %d", fired)
	}
}
