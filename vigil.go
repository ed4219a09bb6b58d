// Package vigil is a change-detection bridge between live, mutable
// record collections and external observers such as debugging tools.
//
// A host owns collections of domain records that mutate freely. Vigil
// watches those collections and, once per completed unit of work,
// delivers a minimal diff (added, updated, removed) to whoever asked.
// Records never cooperate: unchanged records are reconfirmed in O(1)
// through memoized per-record computations backed by pkg/reactive.
//
// # Watching
//
//	sched := reactive.NewScheduler()
//	co := vigil.New(source,
//	    vigil.WithStrategy(strategy),
//	    vigil.WithScheduler(sched),
//	)
//	defer co.Dispose()
//
//	release := co.WatchRecords("task",
//	    func(added []vigil.WrappedRecord) { /* initial set, then additions */ },
//	    func(updated []vigil.WrappedRecord) { /* tracked-field changes */ },
//	    func(removed []vigil.WrappedRecord) { /* disappearances */ },
//	)
//	defer release()
//
// The host signals the end of each mutation batch:
//
//	sched.Flush(func() {
//	    tasks.Add(t)
//	    t.Title.Set("renamed")
//	})
//	// callbacks have fired exactly once, with the net diff
//
// WatchTypes observes type-level metadata (record counts) without
// per-record diffing. Column schemas, search keywords, filter values
// and colors all come from the host's Strategy; vigil itself assigns
// no meaning to them.
package vigil

// Record is one host-owned domain entity. Vigil compares records by
// identity only (interface equality), never structurally, so hosts
// should hand over pointers or other stable handles.
type Record = any

// TypeHandle identifies one logical record type. Opaque to vigil;
// resolved and named by the host's RecordSource.
type TypeHandle = any
