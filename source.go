package vigil

// Collection is a live, externally owned sequence of records for one
// logical type. Membership changes over time; vigil observes it
// read-only. Implementations should make Records and Len tracked reads
// (backed by a reactive signal) so watchers revalidate when membership
// changes. Collections are compared by identity when deduplicating
// watchers, so implementations must be pointer-shaped.
type Collection interface {
	// Records returns the current members in iteration order.
	Records() []Record

	// Len returns the current member count.
	Len() int
}

// RecordSource is the host collaborator that resolves logical type
// names to type handles and back.
type RecordSource interface {
	// ResolveType maps a logical type name to its handle. A false
	// return means the name is unknown; watch calls then observe an
	// empty collection rather than failing.
	ResolveType(name string) (TypeHandle, bool)

	// TypeName returns the logical name for a handle previously
	// produced by this source.
	TypeName(t TypeHandle) string
}

// TypeCatalog enumerates every type handle the host knows about.
type TypeCatalog interface {
	Types() []TypeHandle
}

// Namespace is one scannable group of host members, used as the
// fallback when no TypeCatalog is available.
type Namespace interface {
	// Models returns the model-shaped members of this namespace.
	Models() []TypeHandle
}

// NamespaceSource is optionally implemented by a RecordSource to
// support type discovery by namespace scan.
type NamespaceSource interface {
	Namespaces() []Namespace
}

// BatchSource is the external "unit of work completed" signal. The
// coordinator subscribes while at least one watcher is registered and
// revalidates everything on each pulse. reactive.Scheduler satisfies
// this interface.
type BatchSource interface {
	// Subscribe registers fn and returns its cancel function.
	Subscribe(fn func()) func()
}

// emptyCollection is what unrecognized type names resolve to.
type emptyCollection struct{}

func (emptyCollection) Records() []Record { return nil }
func (emptyCollection) Len() int          { return 0 }

// EmptyCollection returns a collection that is always empty. Watching
// it produces no diffs. Each call returns a distinct identity so two
// unknown names do not alias one watcher.
func EmptyCollection() Collection { return &struct{ emptyCollection }{} }
