package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/querydeck/internal/report"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"golang.org/x/term"
)

// Output formats accepted by --format and the output config key.
const (
	formatAuto     = "auto"
	formatTable    = "table"
	formatText     = "text"
	formatJSON     = "json"
	formatCSV      = "csv"
	formatMD       = "md"
	formatMarkdown = "markdown"
)

// resolveFormat turns "auto" into table on a terminal and markdown otherwise.
func resolveFormat(format string, w io.Writer) string {
	switch format {
	case "", formatAuto:
		if isTerminal(w) {
			return formatTable
		}
		return formatMD
	case formatText:
		return formatTable
	case formatMarkdown:
		return formatMD
	default:
		return format
	}
}

func renderResults(w io.Writer, t *core.ResultTable, format string) error {
	switch resolveFormat(format, w) {
	case formatJSON:
		return renderJSON(w, t)
	case formatCSV:
		if t.Empty() {
			return nil
		}
		return report.WriteCSV(w, t)
	case formatMD:
		return renderMarkdown(w, t)
	case formatTable:
		return renderTable(w, t)
	default:
		return fmt.Errorf("unknown output format %q (use table, json, csv or md)", format)
	}
}

func newTableWriter(w io.Writer, t *core.ResultTable) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)

	header := make(table.Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(t.Columns))
		for i, col := range t.Columns {
			row[i] = formatValue(r[col])
		}
		tw.AppendRow(row)
	}
	return tw
}

func renderTable(w io.Writer, t *core.ResultTable) error {
	if t.Empty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	tw := newTableWriter(w, t)
	tw.SetStyle(table.StyleLight)
	tw.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", t.Len())
	return nil
}

func renderMarkdown(w io.Writer, t *core.ResultTable) error {
	if t.Empty() {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}
	newTableWriter(w, t).RenderMarkdown()
	return nil
}

func renderJSON(w io.Writer, t *core.ResultTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Rows)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return core.FormatValue(v)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
