// internal/output/json_test.go
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/valpere/parishscraper/internal/dataset"
)

func TestMarshalRecordsJSON(t *testing.T) {
	table := dataset.NewTable("Name", "Date")
	table.AppendRow("Ann", "1850")
	table.Rows = append(table.Rows, dataset.Row{dataset.Text("Bob"), dataset.NA})

	got, err := MarshalRecordsJSON(table)
	if err != nil {
		t.Fatal(err)
	}
	want := `[
  {
    "Name": "Ann",
    "Date": "1850"
  },
  {
    "Name": "Bob",
    "Date": null
  }
]
`
	if string(got) != want {
		t.Errorf("unexpected JSON:\n%s\nwant:\n%s", got, want)
	}
}

func TestMarshalRecordsJSON_Empty(t *testing.T) {
	got, err := MarshalRecordsJSON(&dataset.Table{})
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "[]\n" {
		t.Errorf("got %q", got)
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	if err := w.Write(context.Background(), burials()); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var records []map[string]*string
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if name := records[1]["Name"]; name == nil || *name != "Bob \"Jr\", Hill" {
		t.Errorf("name not escaped correctly: %v", name)
	}
	if records[1]["Date"] != nil {
		t.Errorf("missing date should be null, got %q", *records[1]["Date"])
	}
}
