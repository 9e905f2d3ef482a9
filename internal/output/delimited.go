// internal/output/delimited.go - CSV and TSV output
package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/valpere/parishscraper/internal/dataset"
)

// DelimitedWriter writes a table as CSV or TSV with a single header row.
type DelimitedWriter struct {
	out     io.Writer
	closer  io.Closer
	writer  *csv.Writer
	na      string
	columns []string
}

// NewCSVWriter writes comma-separated rows to w; missing cells become na.
func NewCSVWriter(w io.Writer, na string) *DelimitedWriter {
	return newDelimitedWriter(w, ',', na)
}

// NewTSVWriter writes tab-separated rows to w; missing cells become na.
func NewTSVWriter(w io.Writer, na string) *DelimitedWriter {
	return newDelimitedWriter(w, '\t', na)
}

func newDelimitedWriter(w io.Writer, comma rune, na string) *DelimitedWriter {
	cw := csv.NewWriter(w)
	cw.Comma = comma
	dw := &DelimitedWriter{out: w, writer: cw, na: na}
	if c, ok := w.(io.Closer); ok {
		dw.closer = c
	}
	return dw
}

// Write appends table's rows. The first call fixes the header; later tables
// must have the same columns.
func (w *DelimitedWriter) Write(ctx context.Context, table *dataset.Table) error {
	if len(table.Columns) == 0 {
		return nil
	}
	if w.columns == nil {
		w.columns = append([]string(nil), table.Columns...)
		if err := w.writer.Write(w.columns); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	} else if !sameColumns(w.columns, table.Columns) {
		return fmt.Errorf("columns changed between writes: %v then %v", w.columns, table.Columns)
	}

	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, cell := range row {
			if cell.Missing {
				record[j] = w.na
			} else {
				record[j] = cell.Text
			}
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the underlying file, if any.
func (w *DelimitedWriter) Close() error {
	w.writer.Flush()
	err := w.writer.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
		w.closer = nil
	}
	return err
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
