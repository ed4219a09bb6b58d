package vigil

// Strategy supplies the host-defined half of the bridge: which types
// are observable, where their records live, and how a record projects
// into columns, keywords, filters and color. All hooks are pure with
// respect to vigil state and must return well-typed empty values
// rather than fail.
//
// Hooks that read record fields should read them through tracked state
// (reactive signals); those reads are what make a later field mutation
// surface as an "updated" report.
type Strategy interface {
	// Detect reports whether t is a type this strategy recognizes.
	Detect(t TypeHandle) bool

	// Records returns the live collection for a type. name is the
	// logical type name as passed to WatchRecords; t is nil when the
	// name failed to resolve.
	Records(t TypeHandle, name string) Collection

	// Columns returns the column schema for records of t.
	Columns(t TypeHandle) []ColumnSpec

	// ColumnValues projects a record onto its column values.
	ColumnValues(r Record) map[string]any

	// Keywords returns the record's free-text search terms.
	Keywords(r Record) []string

	// FilterValues projects a record onto its filter values.
	FilterValues(r Record) map[string]any

	// Color returns a presentation tag for the record, or "".
	Color(r Record) string

	// Filters returns the filters the host exposes to observers.
	Filters() []FilterSpec
}

// BaseStrategy is the inert default: it recognizes no types and
// projects every record to empty values. Hosts embed it and override
// the hooks they care about.
type BaseStrategy struct{}

func (BaseStrategy) Detect(TypeHandle) bool { return false }

func (BaseStrategy) Records(TypeHandle, string) Collection { return EmptyCollection() }

func (BaseStrategy) Columns(TypeHandle) []ColumnSpec { return nil }

func (BaseStrategy) ColumnValues(Record) map[string]any { return map[string]any{} }

func (BaseStrategy) Keywords(Record) []string { return nil }

func (BaseStrategy) FilterValues(Record) map[string]any { return map[string]any{} }

func (BaseStrategy) Color(Record) string { return "" }

func (BaseStrategy) Filters() []FilterSpec { return nil }

var _ Strategy = BaseStrategy{}
