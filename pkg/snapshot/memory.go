package snapshot

import (
	"context"
	"fmt"
	"sync"
)

// MemorySink keeps snapshots in memory. Useful in tests and for
// serving the most recent snapshot over the inspector.
type MemorySink struct {
	mu    sync.Mutex
	snaps []Snapshot
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Store implements Sink. The reference is the snapshot's index.
func (m *MemorySink) Store(_ context.Context, snap Snapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps = append(m.snaps, snap)
	return fmt.Sprintf("memory:%d", len(m.snaps)-1), nil
}

// Latest returns the most recently stored snapshot.
func (m *MemorySink) Latest() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.snaps) == 0 {
		return Snapshot{}, false
	}
	return m.snaps[len(m.snaps)-1], true
}

// Len returns the number of stored snapshots.
func (m *MemorySink) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snaps)
}

var _ Sink = (*MemorySink)(nil)
