// internal/output/delimited_test.go
package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/parishscraper/internal/dataset"
)

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, "NA")
	if err := w.Write(context.Background(), burials()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	want := [][]string{
		{"Parish", "Name", "Date"},
		{"Ash", "Ann Smith", "1850"},
		{"Ash", "Bob \"Jr\", Hill", "NA"},
		{"Wye", "NA", "1851"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestTSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewTSVWriter(&buf, "")
	if err := w.Write(context.Background(), burials()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Parish\tName\tDate" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[3] != "Wye\t\t1851" {
		t.Errorf("missing cell should be empty, got %q", lines[3])
	}
}

func TestDelimitedWriter_AppendsWithoutRepeatingHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, "")
	ctx := context.Background()

	first := dataset.NewTable("Name")
	first.AppendRow("Ann")
	second := dataset.NewTable("Name")
	second.AppendRow("Bob")

	if err := w.Write(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(ctx, second); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Name\nAnn\nBob\n" {
		t.Errorf("unexpected output %q", got)
	}

	if err := w.Write(ctx, dataset.NewTable("Other")); err == nil {
		t.Error("expected error when columns change")
	}
}

func TestDelimitedWriter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf, "")
	if err := w.Write(context.Background(), &dataset.Table{}); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("nothing-scraped table should write nothing, got %q", buf.String())
	}
}
