package vigil

// ColumnSpec describes one column a debugging tool should render for a
// record type.
type ColumnSpec struct {
	// Name is the column identifier used as the key in
	// WrappedRecord.ColumnValues.
	Name string `json:"name"`

	// Desc is the human-readable column header.
	Desc string `json:"desc"`
}

// FilterSpec describes one record filter the host exposes to observers.
type FilterSpec struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
}

// WrappedRecord is the observer-facing projection of one record,
// assembled from the host Strategy at the moment a diff is reported.
type WrappedRecord struct {
	// Object is the underlying record itself.
	Object Record `json:"-"`

	// ColumnValues holds the current value per column name.
	ColumnValues map[string]any `json:"columnValues"`

	// SearchKeywords are strings a tool may match free-text search
	// against.
	SearchKeywords []string `json:"searchKeywords"`

	// FilterValues holds the record's value per filter name.
	FilterValues map[string]any `json:"filterValues"`

	// Color is an optional presentation tag, empty when the strategy
	// assigns none.
	Color string `json:"color,omitempty"`
}

// WrappedType is the observer-facing projection of one record type.
type WrappedType struct {
	// Name is the logical type name.
	Name string `json:"name"`

	// Count is the number of records currently in the type's
	// collection.
	Count int `json:"count"`

	// Columns is the column schema for records of this type.
	Columns []ColumnSpec `json:"columns"`

	// Object is the underlying type handle.
	Object TypeHandle `json:"-"`
}
