package reactive

// Batch groups signal writes so each affected listener is marked dirty
// once when the outermost batch closes, instead of once per write.
// Intermediate states inside the batch are never observed by
// listeners. Batches nest.
//
//	reactive.Batch(func() {
//	    status.Set("open")
//	    count.Update(func(n int) int { return n + 1 })
//	})
func Batch(fn func()) {
	enterBatch()
	defer func() {
		if leaveBatch() {
			flushPending()
			dropCtxIfIdle(currentCtx())
		}
	}()
	fn()
}

// flushPending deduplicates queued listeners by ID and marks each
// dirty exactly once.
func flushPending() {
	pending := drainPending()
	if len(pending) == 0 {
		return
	}
	seen := make(map[uint64]struct{}, len(pending))
	for _, l := range pending {
		if _, dup := seen[l.ID()]; dup {
			continue
		}
		seen[l.ID()] = struct{}{}
		l.MarkDirty()
	}
}

// Untracked runs fn with dependency collection suspended: signal and
// memo reads inside fn do not subscribe the enclosing computation.
// For a single read, Peek is clearer.
func Untracked(fn func()) {
	old := swapListener(nil)
	defer swapListener(old)
	fn()
}
