// internal/ancestry/grid.go
package ancestry

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/valpere/parishscraper/internal/dataset"
)

// ParseGrid turns a grid container's inner HTML into a table. The first row
// holds the column names; every later row is a record. Repeated column names
// get a numeric suffix.
func ParseGrid(html, rowSelector, cellSelector string) (*dataset.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid html: %w", err)
	}

	rows := doc.Find(rowSelector)
	if rows.Length() == 0 {
		return &dataset.Table{}, nil
	}

	header := cellTexts(rows.First(), cellSelector)
	table := dataset.NewTable(uniqueNames(header)...)

	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		table.AppendRow(cellTexts(row, cellSelector)...)
	})
	return table, nil
}

func cellTexts(row *goquery.Selection, cellSelector string) []string {
	var out []string
	row.Find(cellSelector).Each(func(_ int, cell *goquery.Selection) {
		out = append(out, norm.NFC.String(strings.TrimSpace(cell.Text())))
	})
	return out
}

func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		n := seen[name]
		seen[name] = n + 1
		if n == 0 {
			out[i] = name
			continue
		}
		candidate := fmt.Sprintf("%s.%d", name, n)
		for seen[candidate] > 0 {
			n++
			candidate = fmt.Sprintf("%s.%d", name, n)
		}
		seen[candidate] = 1
		out[i] = candidate
	}
	return out
}
