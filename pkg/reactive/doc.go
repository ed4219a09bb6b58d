// Package reactive provides the dependency-tracking engine that powers
// vigil's incremental revalidation.
//
// The model is pull-based memoization over push-based invalidation.
// Reading a Signal during a tracked computation subscribes that
// computation to the signal; writing the signal marks every subscriber
// dirty; a dirty Memo recomputes on its next Get, and a clean one
// returns its cached value without running at all.
//
// # Core Types
//
// Signal[T] is a tracked value container:
//
//	name := reactive.NewSignal("checking")
//	v := name.Get()   // read (subscribes the current listener)
//	name.Set("open")  // write (marks subscribers dirty)
//
// Memo[T] is a lazy cached computation:
//
//	label := reactive.NewMemo(func() string { return name.Get() + "!" })
//	label.Get() // runs once, then serves the cache until name changes
//
// # Batching
//
// Batch coalesces writes so dependents are marked dirty once per group
// of mutations rather than once per write:
//
//	reactive.Batch(func() {
//	    a.Set(1)
//	    b.Set(2)
//	})
//
// Untracked reads values without registering dependencies, which
// matters when inspecting state that must not re-trigger the caller.
//
// # Thread Safety
//
// Primitives are safe for concurrent use. Dependency tracking state is
// per-goroutine, so a computation and its reads must stay on one
// goroutine.
package reactive
