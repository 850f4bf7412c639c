package vecsync

// Binding describes a primary table whose embedding column feeds a vec shadow
// table keyed by the primary rowid.
type Binding struct {
	// Table is the primary table name (e.g. "chunks").
	Table string

	// Key is the INTEGER PRIMARY KEY column of Table.
	Key string

	// Column holds the encoded embedding BLOB.
	Column string

	// Shadow is the vec shadow table (e.g. "_vec_vec_index").
	Shadow string
}

// WithDefaults fills Key and Column with "id" and "embedding" when empty.
func (b Binding) WithDefaults() Binding {
	if b.Key == "" {
		b.Key = "id"
	}
	if b.Column == "" {
		b.Column = "embedding"
	}
	return b
}
