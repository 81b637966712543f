package core

import (
	"slices"
	"sort"
)

// QueryDefinition is a named, reusable SQL statement from the catalog.
// Statements use colon-prefixed named placeholders (":limit").
type QueryDefinition struct {
	Name        string
	SQL         string
	Description string
	Params      []string
}

// Clone returns a copy that shares no memory with d.
func (d QueryDefinition) Clone() QueryDefinition {
	d.Params = slices.Clone(d.Params)
	return d
}

// Params maps parameter names to scalar values for one execution.
type Params map[string]any

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Row maps column names to values.
type Row map[string]any

// RowSet is the raw result of a statement as returned by an adapter.
// Columns carries the projection order reported by the driver.
type RowSet struct {
	Columns []string
	Rows    []Row
}

// ResultTable is the tabular output of one query execution.
// Columns are inferred from the first row; a table with no rows has no columns.
type ResultTable struct {
	Columns []string
	Rows    []Row
}

// NewResultTable shapes a RowSet into a ResultTable.
func NewResultTable(rs *RowSet) *ResultTable {
	t := &ResultTable{Rows: []Row{}}
	if rs == nil || len(rs.Rows) == 0 {
		return t
	}
	t.Rows = rs.Rows

	first := rs.Rows[0]
	for _, col := range rs.Columns {
		if _, ok := first[col]; ok {
			t.Columns = append(t.Columns, col)
		}
	}
	if len(t.Columns) != len(first) {
		// Driver did not report a usable projection; fall back to the row keys.
		t.Columns = t.Columns[:0]
		for col := range first {
			t.Columns = append(t.Columns, col)
		}
		sort.Strings(t.Columns)
	}
	return t
}

// Len returns the number of rows.
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t *ResultTable) Empty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the table projects the named column.
func (t *ResultTable) HasColumn(name string) bool {
	return t != nil && slices.Contains(t.Columns, name)
}

// Column returns the values of one column in row order.
func (t *ResultTable) Column(name string) []any {
	if !t.HasColumn(name) {
		return nil
	}
	out := make([]any, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[name]
	}
	return out
}

// Floats returns the named column converted to float64.
// The boolean is false if the column is missing or any value is not numeric.
func (t *ResultTable) Floats(name string) ([]float64, bool) {
	if !t.HasColumn(name) {
		return nil, false
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		f, ok := ToFloat(row[name])
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
