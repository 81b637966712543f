package adapter

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// InsertColumns returns the column set for a bulk insert: the keys of the
// first record in sorted order.
func InsertColumns(records []core.Row) []string {
	if len(records) == 0 {
		return nil
	}
	cols := make([]string, 0, len(records[0]))
	for k := range records[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// SQLDialect is the part of an Adapter that shapes statement text.
type SQLDialect interface {
	Placeholder() PlaceholderStyle
	QuoteIdentifier(name string) string
	BackslashEscapes() bool
}

// BuildInsert renders a single multi-row INSERT for records into table.
// A record missing one of the columns binds NULL there; keys not present
// in the first record are ignored. It returns an empty statement when
// records is empty.
func BuildInsert(a SQLDialect, table string, records []core.Row) (string, []any) {
	cols := InsertColumns(records)
	if len(cols) == 0 {
		return "", nil
	}

	style := a.Placeholder()
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = a.QuoteIdentifier(c)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(QuoteQualified(table, a.QuoteIdentifier))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(cols)*len(records))
	for r, rec := range records {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c, col := range cols {
			if c > 0 {
				sb.WriteString(", ")
			}
			args = append(args, rec[col])
			sb.WriteString(style.Format(len(args)))
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}
