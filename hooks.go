package vigil

import "time"

// WatcherKind labels the two watcher registries for instrumentation.
type WatcherKind string

const (
	KindRecords WatcherKind = "records"
	KindTypes   WatcherKind = "types"
)

// Hooks receives lifecycle notifications from a Coordinator. All
// fields are optional; nil hooks are skipped. pkg/telemetry builds
// Prometheus and OpenTelemetry implementations on this seam.
type Hooks struct {
	// RevalidateStart fires at the beginning of each revalidation
	// pass over the registries.
	RevalidateStart func()

	// RevalidateEnd fires when the pass finishes, with its duration
	// and the aggregate record diff across all collection watchers.
	RevalidateEnd func(elapsed time.Duration, d Delta)

	// WatcherRegistered fires when a watcher enters a registry.
	WatcherRegistered func(kind WatcherKind)

	// WatcherReleased fires when a watcher leaves a registry.
	WatcherReleased func(kind WatcherKind)
}

func (h Hooks) revalidateStart() {
	if h.RevalidateStart != nil {
		h.RevalidateStart()
	}
}

func (h Hooks) revalidateEnd(elapsed time.Duration, d Delta) {
	if h.RevalidateEnd != nil {
		h.RevalidateEnd(elapsed, d)
	}
}

func (h Hooks) watcherRegistered(kind WatcherKind) {
	if h.WatcherRegistered != nil {
		h.WatcherRegistered(kind)
	}
}

func (h Hooks) watcherReleased(kind WatcherKind) {
	if h.WatcherReleased != nil {
		h.WatcherReleased(kind)
	}
}
