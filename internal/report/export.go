package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/xuri/excelize/v2"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// maxSheetName is the Excel limit on worksheet names.
const maxSheetName = 31

// Exporter writes result tables to files in one directory.
type Exporter struct {
	dir      string
	format   string
	compress bool
}

// NewExporter creates an exporter. An empty format means CSV.
// With compress set, files are gzip-compressed and get a .gz suffix.
func NewExporter(dir, format string, compress bool) (*Exporter, error) {
	switch format {
	case "":
		format = FormatCSV
	case FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("unsupported export format %q (use csv or xlsx)", format)
	}
	return &Exporter{dir: dir, format: format, compress: compress}, nil
}

// Path returns the file an export of the named report is written to.
// The name must be a plain file name.
func (e *Exporter) Path(name string) (string, error) {
	if err := core.CheckFileName(name); err != nil {
		return "", err
	}
	p := filepath.Join(e.dir, name+"."+e.format)
	if e.compress {
		p += ".gz"
	}
	return p, nil
}

// Export writes table and returns the file path.
func (e *Exporter) Export(name string, table *core.ResultTable) (path string, err error) {
	path, err = e.Path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(e.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()

	var w io.Writer = f
	if e.compress {
		zw := gzip.NewWriter(f)
		zw.Name = filepath.Base(path[:len(path)-len(".gz")])
		defer func() {
			if cerr := zw.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("failed to finish compression: %w", cerr)
			}
		}()
		w = zw
	}

	switch e.format {
	case FormatXLSX:
		err = WriteXLSX(w, name, table)
	default:
		err = WriteCSV(w, table)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

// WriteCSV writes table as comma-separated text with a header row.
// NULL values become empty fields.
func WriteCSV(w io.Writer, table *core.ResultTable) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)
	if err := cw.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			record[i] = core.FormatValue(row[col])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return bw.Flush()
}

// WriteXLSX writes table as a single-sheet workbook named after the report.
func WriteXLSX(w io.Writer, sheet string, table *core.ResultTable) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	name := sheetName(sheet)
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	header := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		values := make([]any, len(table.Columns))
		for i, col := range table.Columns {
			values[i] = cellValue(row[col])
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// cellValue keeps driver-typed numbers numeric so spreadsheets can
// aggregate them. Text is written as text even when it looks numeric.
func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case []byte:
		return string(x)
	default:
		if f, ok := core.ToFloat(x); ok {
			return f
		}
		return core.FormatValue(x)
	}
}

func sheetName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			r = '_'
		}
		out = append(out, r)
	}
	if len(out) > maxSheetName {
		out = out[:maxSheetName]
	}
	if len(out) == 0 {
		return "Sheet1"
	}
	return string(out)
}
