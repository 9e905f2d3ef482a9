// internal/familysearch/rows.go
package familysearch

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
)

// Result table columns.
const (
	ColumnName  = "Name"
	ColumnDate  = "Date"
	ColumnPlace = "Place"
)

// Event is one life event listed on a search result row.
type Event struct {
	Type  string
	Date  string
	Place string
}

var fold = cases.Fold()

// IsBurial reports whether an event type names a burial.
func IsBurial(eventType string) bool {
	return strings.HasPrefix(fold.String(strings.TrimSpace(eventType)), "burial")
}

// FirstBurial returns the first burial event, if any.
func FirstBurial(events []Event) (Event, bool) {
	for _, e := range events {
		if IsBurial(e.Type) {
			return e, true
		}
	}
	return Event{}, false
}

func newResultTable() *dataset.Table {
	return dataset.NewTable(ColumnName, ColumnDate, ColumnPlace)
}

// readRows extracts one batch of burials from the results table. The first
// child of the table is its header. Rows missing a cell are skipped; a row
// that re-renders while being read fails the whole batch.
func (s *Scraper) readRows(ctx context.Context, table browser.Element) (*dataset.Table, error) {
	out := newResultTable()
	rows, err := s.session.FindAll(ctx, s.locators.Row, table)
	if err != nil {
		return out, err
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}

	for i, row := range rows {
		name, events, err := s.readRow(ctx, row)
		if err != nil {
			if errors.Is(err, browser.ErrStaleElement) {
				return out, err
			}
			s.logger.Debugf("row %d: %v", i+1, err)
			continue
		}
		burial, ok := FirstBurial(events)
		if !ok {
			continue
		}
		out.AppendRow(name, burial.Date, burial.Place)
	}
	return out, nil
}

func (s *Scraper) readRow(ctx context.Context, row browser.Element) (string, []Event, error) {
	l := s.locators

	nameCell, err := s.session.Find(ctx, l.RowName, row)
	if err != nil {
		return "", nil, fmt.Errorf("name cell: %w", err)
	}
	name, ok, err := s.session.Attribute(ctx, nameCell, l.NameAttr)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, fmt.Errorf("name cell has no %q attribute", l.NameAttr)
	}

	host, err := s.session.Find(ctx, l.RowEvents, row)
	if err != nil {
		return "", nil, fmt.Errorf("events cell: %w", err)
	}
	types, err := s.shadowTexts(ctx, host, l.EventType)
	if err != nil {
		return "", nil, err
	}
	dates, err := s.shadowTexts(ctx, host, l.EventDate)
	if err != nil {
		return "", nil, err
	}
	places, err := s.shadowTexts(ctx, host, l.EventPlace)
	if err != nil {
		return "", nil, err
	}

	n := min(len(types), len(dates), len(places))
	events := make([]Event, n)
	for i := range events {
		events[i] = Event{Type: types[i], Date: dates[i], Place: places[i]}
	}
	return strings.TrimSpace(name), events, nil
}

func (s *Scraper) shadowTexts(ctx context.Context, host browser.Element, selector string) ([]string, error) {
	els, err := s.session.FindInShadow(ctx, host, selector)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(els))
	for _, el := range els {
		text, err := s.session.Text(ctx, el)
		if err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, nil
}
