// internal/dataset/table.go - tabular record sets assembled from scraped pages
package dataset

import (
	"fmt"
	"strings"
)

// Cell is one table value. Missing marks a column the source page did not have.
type Cell struct {
	Text    string
	Missing bool
}

// NA is the explicit missing-value marker.
var NA = Cell{Missing: true}

// Text builds a present cell.
func Text(s string) Cell { return Cell{Text: s} }

// String renders the cell; missing cells render empty.
func (c Cell) String() string {
	if c.Missing {
		return ""
	}
	return c.Text
}

// Value returns the cell for sinks that distinguish null from empty text.
func (c Cell) Value() interface{} {
	if c.Missing {
		return nil
	}
	return c.Text
}

// Row is one record, aligned with Table.Columns.
type Row []Cell

// Table is an ordered set of named columns and rows.
// A table with no columns is the "nothing scraped" sentinel.
type Table struct {
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table has no columns or no rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Columns) == 0 || len(t.Rows) == 0
}

// AppendRow adds a row of present values. Short rows are padded with NA and
// long rows are truncated to the column count.
func (t *Table) AppendRow(values ...string) {
	row := make(Row, len(t.Columns))
	for i := range row {
		if i < len(values) {
			row[i] = Text(values[i])
		} else {
			row[i] = NA
		}
	}
	t.Rows = append(t.Rows, row)
}

// ColumnIndex returns the index of name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the cell at row i in column name.
func (t *Table) Get(i int, name string) (Cell, bool) {
	j := t.ColumnIndex(name)
	if j < 0 || i < 0 || i >= len(t.Rows) {
		return Cell{}, false
	}
	return t.Rows[i][j], true
}

// InsertColumn adds a column at position pos with the same value in every row.
func (t *Table) InsertColumn(pos int, name string, value Cell) error {
	if t.ColumnIndex(name) >= 0 {
		return fmt.Errorf("column %q already exists", name)
	}
	if pos < 0 || pos > len(t.Columns) {
		return fmt.Errorf("column position %d out of range", pos)
	}

	t.Columns = append(t.Columns[:pos], append([]string{name}, t.Columns[pos:]...)...)
	for i, row := range t.Rows {
		t.Rows[i] = append(row[:pos:pos], append(Row{value}, row[pos:]...)...)
	}
	return nil
}

// Concat stacks tables vertically. Columns are the union of all inputs in
// first-seen order; cells a table does not have are NA.
// Empty sentinel tables contribute nothing.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	index := make(map[string]int)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if _, ok := index[c]; !ok {
				index[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, src := range t.Rows {
			row := make(Row, len(out.Columns))
			for i := range row {
				row[i] = NA
			}
			for j, c := range t.Columns {
				if j < len(src) {
					row[index[c]] = src[j]
				}
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// DropDuplicates removes rows equal in every column to an earlier row.
func (t *Table) DropDuplicates() *Table {
	seen := make(map[string]struct{}, len(t.Rows))
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		key := row.key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func (r Row) key() string {
	var b strings.Builder
	for _, c := range r {
		if c.Missing {
			b.WriteString("\x00NA")
		} else {
			b.WriteString("\x00=")
			b.WriteString(c.Text)
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}
