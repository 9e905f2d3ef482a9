// internal/ancestry/fixtures_test.go
package ancestry

import (
	"fmt"
	"time"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/browser/browsertest"
	"github.com/valpere/parishscraper/internal/errors"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.ElementTimeout = 20 * time.Millisecond
	opts.OptionsTimeout = 20 * time.Millisecond
	opts.LeafTimeout = 20 * time.Millisecond
	opts.PollInterval = time.Millisecond
	opts.Render = errors.RetryPolicy{MaxAttempts: 3}
	opts.Interact = errors.RetryPolicy{MaxAttempts: 3}
	return opts
}

const (
	page1Grid = `<div class="grid-row"><div>Test Column 1</div><div>Test Column 2</div><div>Test Column 3</div></div>` +
		`<div class="grid-row"><div>Hello</div><div>Test</div><div>123</div></div>` +
		`<div class="grid-row"><div>World</div><div>Example</div><div>abc</div></div>`
	page2Grid = `<div class="grid-row"><div>Test Column 1</div><div>Test Column 2</div><div>Test Column 3</div><div>Test Column 4</div></div>` +
		`<div class="grid-row"><div>Goodbye</div><div>Whatever</div><div>987</div><div>True</div></div>` +
		`<div class="grid-row"><div>Universe</div><div>Mock</div><div>xyz</div><div>False</div></div>`
)

// browseSite models the collection page: cascading selects whose options
// depend on the selections above them.
type browseSite struct {
	session *browsertest.Session
	labels  []string
	// options returns the choices (without placeholder) for a level given the
	// current selection indexes of the levels above it.
	options func(level int, sel []int) []string
	// links returns the date ranges at a completed selection.
	links func(sel []int) [][2]string

	sel     []int
	pending []int

	// failOptions makes the options query of a level come back empty this
	// many times; a refresh is needed to recover.
	failOptions map[int]int
	staleSelect map[int]int
}

func newBrowseSite(labels []string, options func(int, []int) []string, links func([]int) [][2]string) *browseSite {
	site := &browseSite{
		session:     browsertest.New(),
		labels:      labels,
		options:     options,
		links:       links,
		sel:         make([]int, len(labels)+1),
		pending:     make([]int, len(labels)+1),
		failOptions: map[int]int{},
		staleSelect: map[int]int{},
	}
	l := DefaultLocators()
	s := site.session
	s.URL = "https://www.ancestry.co.uk/search/collections/1234/"

	s.Handle(l.BrowseBox.Expr, browsertest.Static(&browsertest.Element{Name: "browse box"}))

	var containers []*browsertest.Element
	var labelEls []*browsertest.Element
	for i, label := range labels {
		containers = append(containers, &browsertest.Element{Name: fmt.Sprintf("level %d", i+1)})
		labelEls = append(labelEls, &browsertest.Element{Name: "label", Text: label})
	}
	s.Handle(l.BrowseLevels.Expr, browsertest.Static(containers...))
	s.Handle(l.LevelLabels.Expr, browsertest.Static(labelEls...))

	for i := range labels {
		level := i + 1
		s.Handle(l.LevelOptions.Format(level).Expr, func() []*browsertest.Element { return site.optionElements(level) })
		s.Handle(l.LevelSelect.Format(level).Expr, func() []*browsertest.Element { return site.selectElement(level) })
	}
	s.Handle(l.ResultItems.Format(len(labels)).Expr, site.resultItems)
	s.OnRefresh = func() error {
		for k := range site.failOptions {
			site.failOptions[k] = 0
		}
		return nil
	}
	return site
}

func (b *browseSite) ready(level int) bool {
	for i := 1; i < level; i++ {
		if b.sel[i] == 0 {
			return false
		}
	}
	return true
}

func (b *browseSite) optionElements(level int) []*browsertest.Element {
	if !b.ready(level) {
		return nil
	}
	if b.failOptions[level] > 0 {
		b.failOptions[level]--
		return nil
	}
	els := []*browsertest.Element{{Name: "placeholder", Text: "Select"}}
	for _, name := range b.options(level, b.sel) {
		els = append(els, &browsertest.Element{Name: "option", Text: name})
	}
	return els
}

func (b *browseSite) selectElement(level int) []*browsertest.Element {
	el := &browsertest.Element{Name: fmt.Sprintf("select %d", level)}
	if b.staleSelect[level] > 0 {
		b.staleSelect[level]--
		el.Stale = true
		return []*browsertest.Element{el}
	}
	el.OnKey = func(k browser.Key) error {
		switch k {
		case browser.KeyArrowDown:
			b.pending[level] = b.sel[level] + 1
		case browser.KeyEnter:
			b.sel[level] = b.pending[level]
			for deeper := level + 1; deeper < len(b.sel); deeper++ {
				b.sel[deeper] = 0
			}
		}
		return nil
	}
	return []*browsertest.Element{el}
}

func (b *browseSite) resultItems() []*browsertest.Element {
	if !b.ready(len(b.labels) + 1) {
		return nil
	}
	var items []*browsertest.Element
	for _, link := range b.links(b.sel) {
		a := &browsertest.Element{Name: "a", Text: link[0], Attrs: map[string]string{"href": link[1]}}
		items = append(items, &browsertest.Element{
			Name:     "li",
			Children: map[string]browsertest.Query{"a": browsertest.Static(a)},
		})
	}
	return items
}

// viewerPageSpec is one page of a scripted detail viewer.
type viewerPageSpec struct {
	grid   string
	hidden bool
}

// viewer models the image viewer's paging panel and index grid.
type viewer struct {
	session *browsertest.Session
	pages   []viewerPageSpec
	cur     int
	clicks  int
	// stuck makes the next button accept clicks without moving.
	stuck bool
	// gridLag keeps serving the previous page's grid for this many index
	// panel reads after each move, while the counter has already advanced.
	gridLag int
	lagging int
}

func newViewer(pages ...viewerPageSpec) *viewer {
	v := &viewer{session: browsertest.New(), pages: pages}
	l := DefaultLocators()
	s := v.session

	s.OnNavigate = func(string) error { v.cur = 0; return nil }
	s.Handle(l.PagingPanel.Expr, func() []*browsertest.Element {
		page := v.pages[v.cur]
		tableButton := &browsertest.Element{Name: "table button", Disabled: page.hidden}
		counter := &browsertest.Element{Name: "counter", Text: fmt.Sprintf("%d of %d", v.cur+1, len(v.pages))}
		return []*browsertest.Element{{
			Name: "paging panel",
			Children: map[string]browsertest.Query{
				l.PanelButtons.Expr: browsertest.Static(&browsertest.Element{Name: "image button"}, tableButton),
				l.PageCount.Expr:    browsertest.Static(counter),
			},
		}}
	})
	s.Handle(l.NextPage.Expr, func() []*browsertest.Element {
		prev := &browsertest.Element{Name: "previous", Disabled: v.cur == 0}
		next := &browsertest.Element{Name: "next", Disabled: v.cur == len(v.pages)-1}
		next.OnClick = func() error {
			v.clicks++
			if !v.stuck && v.cur < len(v.pages)-1 {
				v.cur++
				v.lagging = v.gridLag
			}
			return nil
		}
		return []*browsertest.Element{prev, next}
	})
	s.Handle(l.IndexPanel.Expr, func() []*browsertest.Element {
		page := v.pages[v.cur]
		if v.lagging > 0 {
			v.lagging--
			page = v.pages[v.cur-1]
		}
		children := map[string]browsertest.Query{}
		if !page.hidden {
			children[l.GridContainer.Expr] = browsertest.Static(&browsertest.Element{Name: "grid", HTML: page.grid})
		}
		return []*browsertest.Element{{Name: "index panel", Children: children}}
	})
	return v
}
