package vigil

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithStrategy installs the host's projection strategy. Defaults to
// BaseStrategy, which recognizes nothing.
func WithStrategy(s Strategy) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.strategy = s
		}
	}
}

// WithCatalog installs a direct type enumeration. Without one, the
// coordinator falls back to a namespace scan when the record source
// implements NamespaceSource.
func WithCatalog(cat TypeCatalog) Option {
	return func(c *Coordinator) {
		c.catalog = cat
	}
}

// WithTracker substitutes the memoization engine. Defaults to
// ReactiveTracker.
func WithTracker(t Tracker) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracker = t
		}
	}
}

// WithScheduler connects the coordinator to the host's
// batch-completion signal. The coordinator subscribes while at least
// one watcher is registered and revalidates everything on each pulse.
// Without a scheduler, the host drives revalidation by calling
// RevalidateAll itself.
func WithScheduler(b BatchSource) Option {
	return func(c *Coordinator) {
		c.batch = b
	}
}

// WithHooks installs instrumentation callbacks.
func WithHooks(h Hooks) Option {
	return func(c *Coordinator) {
		c.hooks = h
	}
}
