// internal/output/types.go
package output

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/valpere/parishscraper/internal/dataset"
)

// Format represents supported output formats
type Format string

const (
	FormatCSV        Format = "csv"
	FormatTSV        Format = "tsv"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatExcel      Format = "xlsx"
	FormatSQLite     Format = "sqlite"
	FormatPostgreSQL Format = "postgresql"
	FormatMySQL      Format = "mysql"
	FormatMSSQL      Format = "mssql"
	FormatMongoDB    Format = "mongodb"
)

// ValidFormats returns all valid output format values
func ValidFormats() []Format {
	return []Format{
		FormatCSV, FormatTSV, FormatJSON, FormatYAML, FormatExcel,
		FormatSQLite, FormatPostgreSQL, FormatMySQL, FormatMSSQL, FormatMongoDB,
	}
}

// IsValid checks if the output format is valid
func (f Format) IsValid() bool {
	for _, valid := range ValidFormats() {
		if f == valid {
			return true
		}
	}
	return false
}

// IsDatabase reports whether the format writes to a database rather than a file.
func (f Format) IsDatabase() bool {
	switch f {
	case FormatSQLite, FormatPostgreSQL, FormatMySQL, FormatMSSQL, FormatMongoDB:
		return true
	}
	return false
}

// Extension returns the conventional file extension for file formats.
func (f Format) Extension() string {
	switch f {
	case FormatCSV, FormatTSV, FormatJSON, FormatYAML, FormatExcel:
		return "." + string(f)
	default:
		return ""
	}
}

// Writer sends a result table to one destination.
type Writer interface {
	Write(ctx context.Context, table *dataset.Table) error
	Close() error
}

// Result represents the output operation result
type Result struct {
	RecordsCount int           `json:"records_count"`
	Columns      int           `json:"columns"`
	Destination  string        `json:"destination"`
	Format       Format        `json:"format"`
	Duration     time.Duration `json:"duration"`
}

var sqlIdentifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MaxIdentifierLength is the shortest identifier limit among the SQL targets (PostgreSQL).
const MaxIdentifierLength = 63

// ValidateTableName accepts plain SQL identifiers, optionally schema-qualified.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	for _, part := range strings.Split(name, ".") {
		if len(part) > MaxIdentifierLength {
			return fmt.Errorf("identifier too long (max %d characters): %s", MaxIdentifierLength, part)
		}
		if !sqlIdentifierRegex.MatchString(part) {
			return fmt.Errorf("invalid identifier format: %s", part)
		}
	}
	return nil
}
