// internal/output/excel.go
package output

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/valpere/parishscraper/internal/dataset"
)

// DefaultSheet names the worksheet when none is configured.
const DefaultSheet = "Records"

// ExcelWriter writes a table to one worksheet of a new workbook. The file
// is saved on Close.
type ExcelWriter struct {
	path    string
	sheet   string
	file    *excelize.File
	row     int
	columns []string
}

// NewExcelWriter creates a workbook that will be saved to path.
func NewExcelWriter(path, sheet string) (*ExcelWriter, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	return &ExcelWriter{path: path, sheet: sheet, file: f, row: 1}, nil
}

func (w *ExcelWriter) Write(ctx context.Context, table *dataset.Table) error {
	if len(table.Columns) == 0 {
		return nil
	}
	if w.columns == nil {
		if err := w.writeHeader(table.Columns); err != nil {
			return err
		}
	} else if !sameColumns(w.columns, table.Columns) {
		return fmt.Errorf("columns changed between writes: %v then %v", w.columns, table.Columns)
	}

	values := make([]interface{}, len(table.Columns))
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j, cell := range row {
			values[j] = cell.Value()
		}
		if err := w.setRow(values); err != nil {
			return err
		}
	}
	return nil
}

func (w *ExcelWriter) writeHeader(columns []string) error {
	w.columns = append([]string(nil), columns...)
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := w.setRow(header); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := w.file.SetRowStyle(w.sheet, 1, 1, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return w.file.SetPanes(w.sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *ExcelWriter) setRow(values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.row, err)
	}
	w.row++
	return nil
}

// Close saves the workbook.
func (w *ExcelWriter) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.SaveAs(w.path)
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}
