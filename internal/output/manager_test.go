// internal/output/manager_test.go
package output

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/errors"
)

func TestNewManager(t *testing.T) {
	if _, err := NewManager(nil); err == nil {
		t.Error("expected error for nil configuration")
	}

	_, err := NewManager(&config.OutputConfig{Format: "pdf"})
	if !errors.IsKind(err, errors.KindConfig) {
		t.Errorf("expected config error for unknown format, got %v", err)
	}

	m, err := NewManager(&config.OutputConfig{Format: "CSV", File: "x.csv"})
	if err != nil {
		t.Fatal(err)
	}
	if m.Format() != FormatCSV {
		t.Errorf("format = %s", m.Format())
	}
}

func TestManager_FileFormats(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatTSV, FormatJSON, FormatYAML, FormatExcel} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", "records"+format.Extension())
			m, err := NewManager(&config.OutputConfig{Format: string(format), File: path, NAValue: "NA"})
			if err != nil {
				t.Fatal(err)
			}

			result, err := m.Write(context.Background(), burials())
			if err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if result.RecordsCount != 3 || result.Columns != 3 || result.Destination != path {
				t.Errorf("unexpected result: %+v", result)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatalf("output file missing: %v", err)
			}
			if info.Size() == 0 {
				t.Error("output file is empty")
			}
		})
	}
}

func TestManager_CSVUsesNAValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	m, err := NewManager(&config.OutputConfig{Format: "csv", File: path, NAValue: "<NA>"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Write(context.Background(), burials()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Wye,<NA>,1851") {
		t.Errorf("missing cell not rendered with NA value:\n%s", data)
	}
}

func TestManager_WriteFailureIsOutputError(t *testing.T) {
	m, err := NewManager(&config.OutputConfig{Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.Write(context.Background(), burials())
	if !errors.IsKind(err, errors.KindOutput) {
		t.Errorf("expected output error, got %v", err)
	}
}

func TestManager_Destination(t *testing.T) {
	tests := []struct {
		cfg  config.OutputConfig
		want string
	}{
		{config.OutputConfig{Format: "xlsx", File: "a.xlsx"}, "a.xlsx"},
		{config.OutputConfig{Format: "postgresql", Database: &config.DatabaseConfig{DSN: "postgres://u:secret@h/db", Table: "burials"}}, "postgresql:burials"},
		{config.OutputConfig{Format: "mongodb", Database: &config.DatabaseConfig{DSN: "mongodb://h", Database: "parish", Table: "records"}}, "mongodb:parish.records"},
	}
	for _, tt := range tests {
		m, err := NewManager(&tt.cfg)
		if err != nil {
			t.Fatal(err)
		}
		if got := m.Destination(); got != tt.want {
			t.Errorf("Destination() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatsMatchConfig(t *testing.T) {
	var files, databases []string
	for _, f := range ValidFormats() {
		if f.IsDatabase() {
			databases = append(databases, string(f))
		} else {
			files = append(files, string(f))
		}
	}

	sorted := func(in []string) []string {
		out := append([]string(nil), in...)
		sort.Strings(out)
		return out
	}
	if diff := cmp.Diff(sorted(config.FileFormats), sorted(files)); diff != "" {
		t.Errorf("file formats drifted from config (-config +output):\n%s", diff)
	}
	if diff := cmp.Diff(sorted(config.DatabaseFormats), sorted(databases)); diff != "" {
		t.Errorf("database formats drifted from config (-config +output):\n%s", diff)
	}
	for _, f := range []Format{FormatSQLite, FormatPostgreSQL, FormatMySQL, FormatMSSQL} {
		if _, ok := DialectFor(f); !ok {
			t.Errorf("no SQL dialect for %s", f)
		}
	}
}
