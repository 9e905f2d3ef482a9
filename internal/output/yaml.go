// internal/output/yaml.go
package output

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/valpere/parishscraper/internal/dataset"
)

// YAMLWriter writes a table as a sequence of mappings in column order.
type YAMLWriter struct {
	out    io.Writer
	closer io.Closer
}

func NewYAMLWriter(w io.Writer) *YAMLWriter {
	yw := &YAMLWriter{out: w}
	if c, ok := w.(io.Closer); ok {
		yw.closer = c
	}
	return yw
}

func (w *YAMLWriter) Write(ctx context.Context, table *dataset.Table) error {
	enc := yaml.NewEncoder(w.out)
	enc.SetIndent(2)
	if err := enc.Encode(TableNode(table)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func (w *YAMLWriter) Close() error {
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// TableNode builds the YAML document for table. Cell values are always
// strings; missing cells are null.
func TableNode(table *dataset.Table) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, row := range table.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for j, cell := range row {
			key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: table.Columns[j]}
			value := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: cell.Text}
			if cell.Missing {
				value = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
			}
			m.Content = append(m.Content, key, value)
		}
		seq.Content = append(seq.Content, m)
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{seq}}
}
