// internal/familysearch/fixtures_test.go
package familysearch

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/valpere/parishscraper/internal/browser/browsertest"
	"github.com/valpere/parishscraper/internal/errors"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.ElementTimeout = 20 * time.Millisecond
	opts.ResultsTimeout = 20 * time.Millisecond
	opts.SignInTimeout = 20 * time.Millisecond
	opts.SurveyTimeout = 20 * time.Millisecond
	opts.CookieTimeout = 20 * time.Millisecond
	opts.PollInterval = time.Millisecond
	opts.Render = errors.RetryPolicy{MaxAttempts: 3}
	opts.Interact = errors.RetryPolicy{MaxAttempts: 3}
	return opts
}

type fakeRecord struct {
	name   string
	noName bool
	events []Event
}

// resultsSite serves the burial search: one page of up to PageSize results
// per (year, offset) query.
type resultsSite struct {
	session *browsertest.Session
	totals  map[int]int
	record  func(year, i int) fakeRecord

	year, offset int
	visited      []string

	// notReady keeps the spinner unsettled; alerts shows an error banner.
	// Each refresh clears one of each.
	notReady int
	alerts   int
}

func newResultsSite(totals map[int]int, record func(year, i int) fakeRecord) *resultsSite {
	r := &resultsSite{session: browsertest.New(), totals: totals, record: record}
	l := DefaultLocators()
	s := r.session

	s.OnNavigate = func(raw string) error {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		q := u.Query()
		r.year, _ = strconv.Atoi(q.Get("q.deathLikeDate.from"))
		r.offset, _ = strconv.Atoi(q.Get("offset"))
		r.visited = append(r.visited, fmt.Sprintf("%d/%d", r.year, r.offset))
		return nil
	}
	s.OnRefresh = func() error {
		if r.notReady > 0 {
			r.notReady--
		}
		if r.alerts > 0 {
			r.alerts--
		}
		return nil
	}

	s.Handle(l.Spinner, func() []*browsertest.Element {
		style := "display: none;"
		if r.notReady > 0 {
			style = ""
		}
		return []*browsertest.Element{{Name: "fs-spinner", Attrs: map[string]string{"style": style}}}
	})
	s.Handle(l.Alert, func() []*browsertest.Element {
		if r.alerts > 0 {
			return []*browsertest.Element{{Name: "alert"}}
		}
		return nil
	})
	s.Handle(l.ResultCount, func() []*browsertest.Element {
		total, ok := r.totals[r.year]
		if !ok {
			return nil
		}
		return []*browsertest.Element{{Name: "criteria", Text: fmt.Sprintf("1-%d of %d Results", min(total, PageSize), total)}}
	})
	s.Handle(l.ResultsTable, func() []*browsertest.Element {
		return []*browsertest.Element{{
			Name:     "results",
			Children: map[string]browsertest.Query{l.Row.Expr: r.rows},
		}}
	})
	return r
}

func (r *resultsSite) rows() []*browsertest.Element {
	l := DefaultLocators()
	rows := []*browsertest.Element{{Name: "header"}}
	total := r.totals[r.year]
	for i := r.offset; i < total && i < r.offset+PageSize; i++ {
		rec := r.record(r.year, i)

		shadow := map[string]browsertest.Query{}
		var types, dates, places []*browsertest.Element
		for _, e := range rec.events {
			types = append(types, &browsertest.Element{Text: e.Type})
			dates = append(dates, &browsertest.Element{Text: e.Date})
			places = append(places, &browsertest.Element{Text: e.Place})
		}
		shadow[l.EventType] = browsertest.Static(types...)
		shadow[l.EventDate] = browsertest.Static(dates...)
		shadow[l.EventPlace] = browsertest.Static(places...)

		children := map[string]browsertest.Query{
			l.RowEvents.Expr: browsertest.Static(&browsertest.Element{Name: "events", Shadow: shadow}),
		}
		if !rec.noName {
			children[l.RowName.Expr] = browsertest.Static(&browsertest.Element{
				Name:  "name",
				Attrs: map[string]string{l.NameAttr: rec.name},
			})
		}
		rows = append(rows, &browsertest.Element{Name: "row", Children: children})
	}
	return rows
}

// alternating gives every even result a burial and every odd one only a death.
func alternating(year, i int) fakeRecord {
	rec := fakeRecord{name: fmt.Sprintf("Person %d-%d", year, i)}
	if i%2 == 0 {
		rec.events = []Event{
			{Type: "Christening", Date: "1790", Place: "Ash"},
			{Type: "Burial", Date: strconv.Itoa(year), Place: "Ash Churchyard"},
		}
	} else {
		rec.events = []Event{{Type: "Death", Date: strconv.Itoa(year), Place: "Ash"}}
	}
	return rec
}

func signedIn(site *resultsSite, opts Options) *Scraper {
	s := New(site.session, opts)
	s.authenticated = true
	return s
}
