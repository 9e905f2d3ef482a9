// internal/output/manager.go
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valpere/parishscraper/internal/config"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/monitoring"
	"github.com/valpere/parishscraper/internal/utils"
)

// Manager sends result tables to the configured destination.
type Manager struct {
	config  config.OutputConfig
	format  Format
	logger  utils.Logger
	metrics *monitoring.Metrics
}

// ManagerOption customises a Manager.
type ManagerOption func(*Manager)

func WithManagerLogger(l utils.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

func WithManagerMetrics(mt *monitoring.Metrics) ManagerOption {
	return func(m *Manager) { m.metrics = mt }
}

// NewManager creates a new output manager
func NewManager(cfg *config.OutputConfig, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, errors.Config("output", fmt.Errorf("output configuration is required"))
	}
	format := Format(strings.ToLower(cfg.Format))
	if !format.IsValid() {
		return nil, errors.Config("output", fmt.Errorf("unsupported output format: %s", cfg.Format))
	}

	m := &Manager{config: *cfg, format: format, logger: utils.NewNopLogger()}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Format returns the configured format.
func (m *Manager) Format() Format { return m.format }

// Destination names where output goes, without database credentials.
func (m *Manager) Destination() string {
	if !m.format.IsDatabase() {
		return m.config.File
	}
	if m.config.Database == nil {
		return string(m.format)
	}
	if m.format == FormatMongoDB {
		return fmt.Sprintf("%s:%s.%s", m.format, m.config.Database.Database, m.config.Database.Table)
	}
	return fmt.Sprintf("%s:%s", m.format, m.config.Database.Table)
}

// Open creates the writer for the configured format.
func (m *Manager) Open(ctx context.Context) (Writer, error) {
	switch m.format {
	case FormatCSV, FormatTSV, FormatJSON, FormatYAML:
		f, err := createFile(m.config.File)
		if err != nil {
			return nil, err
		}
		switch m.format {
		case FormatCSV:
			return NewCSVWriter(f, m.config.NAValue), nil
		case FormatTSV:
			return NewTSVWriter(f, m.config.NAValue), nil
		case FormatJSON:
			return NewJSONWriter(f), nil
		default:
			return NewYAMLWriter(f), nil
		}
	case FormatExcel:
		if err := ensureDir(m.config.File); err != nil {
			return nil, err
		}
		return NewExcelWriter(m.config.File, m.config.Sheet)
	case FormatMongoDB:
		return NewMongoDBWriter(ctx, m.config.Database)
	default:
		return NewSQLWriter(ctx, m.format, m.config.Database)
	}
}

// Write sends table to the destination in one writer session.
func (m *Manager) Write(ctx context.Context, table *dataset.Table) (*Result, error) {
	start := time.Now()
	op := "write " + string(m.format)

	w, err := m.Open(ctx)
	if err != nil {
		return nil, errors.Output(op, err)
	}
	if err := w.Write(ctx, table); err != nil {
		w.Close()
		return nil, errors.Output(op, err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Output(op, err)
	}

	result := &Result{
		RecordsCount: table.Len(),
		Columns:      len(table.Columns),
		Destination:  m.Destination(),
		Format:       m.format,
		Duration:     time.Since(start),
	}
	m.metrics.RecordsWritten(string(m.format), result.RecordsCount)
	m.logger.WithFields(map[string]interface{}{
		"records":     result.RecordsCount,
		"columns":     result.Columns,
		"destination": result.Destination,
	}).Info("output written")
	return result, nil
}

func createFile(path string) (*os.File, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

func ensureDir(path string) error {
	if path == "" {
		return fmt.Errorf("output file is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return nil
}
