// internal/output/json.go
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/valpere/parishscraper/internal/dataset"
)

// JSONWriter writes a table as an array of objects whose keys keep the
// table's column order. Missing cells are null.
type JSONWriter struct {
	out    io.Writer
	closer io.Closer
}

func NewJSONWriter(w io.Writer) *JSONWriter {
	jw := &JSONWriter{out: w}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

func (w *JSONWriter) Write(ctx context.Context, table *dataset.Table) error {
	data, err := MarshalRecordsJSON(table)
	if err != nil {
		return err
	}
	_, err = w.out.Write(data)
	return err
}

func (w *JSONWriter) Close() error {
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// MarshalRecordsJSON renders table rows as indented JSON objects.
func MarshalRecordsJSON(table *dataset.Table) ([]byte, error) {
	keys := make([][]byte, len(table.Columns))
	for i, c := range table.Columns {
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range table.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString("\n  {")
		for j, cell := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString("\n    ")
			buf.Write(keys[j])
			buf.WriteString(": ")
			if cell.Missing {
				buf.WriteString("null")
				continue
			}
			v, err := json.Marshal(cell.Text)
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
		buf.WriteString("\n  }")
	}
	if len(table.Rows) > 0 {
		buf.WriteByte('\n')
	}
	buf.WriteString("]\n")
	return buf.Bytes(), nil
}
