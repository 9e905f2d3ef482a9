// internal/ancestry/assemble.go
package ancestry

import (
	"context"
	"strconv"

	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/utils"
)

// DateRangeColumn names the column that records which date range a row came from.
const DateRangeColumn = "Record Date Range"

// RecordFunc scrapes one detail viewer.
type RecordFunc func(ctx context.Context, url string) (*dataset.Table, error)

// Assemble scrapes every URL in urls and merges the results. Each row is
// prefixed with its date range and then with its browse path, outermost level
// left-most. Paths without data are omitted. A detail viewer that keeps failing
// to render is skipped with a warning; any other failure stops the run and the
// rows gathered so far are returned with the error.
func Assemble(ctx context.Context, urls *dataset.URLMap, scrape RecordFunc, logger utils.Logger) (*dataset.Table, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	var merged []*dataset.Table
	for _, entry := range urls.Entries() {
		var pathTables []*dataset.Table
		for _, link := range entry.Links {
			table, err := scrape(ctx, link.URL)
			if err != nil {
				if errors.IsKind(err, errors.KindTransientRender) && ctx.Err() == nil {
					logger.WithFields(map[string]interface{}{
						"path":       entry.Path.String(),
						"date_range": link.Label,
					}).Warnf("skipping detail viewer: %v", err)
					continue
				}
				partial := append(merged, prefixPath(dataset.Concat(pathTables...), entry.Path))
				return dataset.Concat(partial...), err
			}
			if table.Empty() {
				continue
			}
			prefixColumn(table, DateRangeColumn, link.Label)
			pathTables = append(pathTables, table)
		}
		if len(pathTables) == 0 {
			continue
		}
		merged = append(merged, prefixPath(dataset.Concat(pathTables...), entry.Path))
	}
	return dataset.Concat(merged...), nil
}

func prefixPath(table *dataset.Table, path dataset.Path) *dataset.Table {
	if table.Empty() {
		return table
	}
	for i := len(path) - 1; i >= 0; i-- {
		prefixColumn(table, path[i].Label, path[i].Option)
	}
	return table
}

// prefixColumn inserts a constant leading column, renaming it when the grid
// already has a column of that name.
func prefixColumn(table *dataset.Table, name, value string) {
	candidate := name
	for n := 1; table.ColumnIndex(candidate) >= 0; n++ {
		candidate = name + " (" + strconv.Itoa(n) + ")"
	}
	// position 0 and a fresh name cannot fail
	_ = table.InsertColumn(0, candidate, dataset.Text(value))
}
