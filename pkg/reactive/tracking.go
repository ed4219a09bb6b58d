package reactive

import (
	"runtime"
	"sync"
)

// trackCtx holds the reactive state for one goroutine: which listener
// is currently collecting dependencies, and the open batch, if any.
type trackCtx struct {
	listener Listener
	depth    int
	pending  []Listener
}

// trackCtxs maps goroutine ID to its tracking context. Entries are
// recreated on demand and dropped as soon as they go idle, so the map
// never accumulates contexts for goroutines that have exited.
var trackCtxs sync.Map

// goroutineID parses the current goroutine's ID out of the runtime
// stack header ("goroutine <id> ..."). Implementation detail only.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

func currentCtx() *trackCtx {
	gid := goroutineID()
	if c, ok := trackCtxs.Load(gid); ok {
		return c.(*trackCtx)
	}
	c := &trackCtx{}
	trackCtxs.Store(gid, c)
	return c
}

// peekCtx returns this goroutine's context without creating one, so
// plain reads and writes never register an entry.
func peekCtx() *trackCtx {
	if c, ok := trackCtxs.Load(goroutineID()); ok {
		return c.(*trackCtx)
	}
	return nil
}

// currentListener returns the listener collecting dependencies on this
// goroutine, or nil when reads are untracked.
func currentListener() Listener {
	if c := peekCtx(); c != nil {
		return c.listener
	}
	return nil
}

// dropCtxIfIdle removes this goroutine's context once it holds
// nothing: no listener, no open batch, no pending notifications.
func dropCtxIfIdle(c *trackCtx) {
	if c.listener == nil && c.depth == 0 && len(c.pending) == 0 {
		trackCtxs.Delete(goroutineID())
	}
}

// swapListener installs l as the current listener and returns the
// previous one for restoration.
func swapListener(l Listener) Listener {
	c := currentCtx()
	old := c.listener
	c.listener = l
	if l == nil {
		dropCtxIfIdle(c)
	}
	return old
}

func batchDepth() int {
	if c := peekCtx(); c != nil {
		return c.depth
	}
	return 0
}

func enterBatch() { currentCtx().depth++ }

// leaveBatch reports whether the outermost batch just closed.
func leaveBatch() bool {
	c := currentCtx()
	c.depth--
	return c.depth == 0
}

func queuePending(l Listener) {
	c := currentCtx()
	c.pending = append(c.pending, l)
}

func drainPending() []Listener {
	c := currentCtx()
	p := c.pending
	c.pending = nil
	return p
}

// WithListener runs fn with l collecting dependencies, restoring the
// previous listener afterwards. Used by Memo during recomputation and
// by tests that need to observe subscriptions directly.
func WithListener(l Listener, fn func()) {
	old := swapListener(l)
	defer swapListener(old)
	fn()
}
