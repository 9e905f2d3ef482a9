// internal/ancestry/pager.go - page-by-page capture of a detail viewer's grid
package ancestry

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
)

// viewerPage is what one rendering of the detail viewer exposes.
type viewerPage struct {
	tableVisible bool
	grid         string
	counter      string
	nextEnabled  bool
}

// ScrapeRecord reads every page of the detail viewer at url. Pages whose
// table is hidden are skipped; the walk ends on the last page or when the
// grid stops changing. A viewer with no grid yields an empty table.
func (s *Scraper) ScrapeRecord(ctx context.Context, url string) (*dataset.Table, error) {
	if err := s.navigate(ctx, url); err != nil {
		return nil, err
	}
	log := s.logger.WithField("url", url)

	var pages []*dataset.Table
	prev := ""
	for n := 1; ; n++ {
		if s.opts.MaxPages > 0 && n > s.opts.MaxPages {
			log.Warnf("stopping at page cap %d", s.opts.MaxPages)
			break
		}

		page, err := s.loadPage(ctx)
		if err != nil {
			return dataset.Concat(pages...).DropDuplicates(), err
		}

		if page.tableVisible {
			if page.grid == prev {
				log.Debugf("page %d repeats the previous grid, stopping", n)
				break
			}
			prev = page.grid

			table, err := ParseGrid(page.grid, s.locators.GridRow, s.locators.GridCell)
			if err != nil {
				log.Warnf("page %d: %v", n, err)
			} else if !table.Empty() {
				pages = append(pages, table)
				s.metrics.PageScraped(site)
				s.metrics.RecordsScraped(site, table.Len())
			}
			log.Debugf("page %d (%s): %d rows", n, page.counter, table.Len())
		} else {
			log.Debugf("page %d (%s): table hidden", n, page.counter)
		}

		if !page.nextEnabled {
			break
		}
		advanced, err := s.advance(ctx, page)
		if err != nil {
			return dataset.Concat(pages...).DropDuplicates(), err
		}
		if !advanced {
			log.Debugf("viewer did not move past page %d, stopping", n)
			break
		}
	}

	return dataset.Concat(pages...).DropDuplicates(), nil
}

// loadPage locates the viewer controls, retrying while they render.
func (s *Scraper) loadPage(ctx context.Context) (viewerPage, error) {
	var page viewerPage
	err := s.opts.Render.Do(ctx, "load viewer", func(int) error {
		var err error
		page, err = s.readPage(ctx)
		return err
	}, func(ctx context.Context, attempt int, cause error) error {
		s.metrics.Retry(site, "load viewer")
		s.logger.Debugf("viewer not ready (attempt %d): %v", attempt, cause)
		return nil
	})
	return page, err
}

func (s *Scraper) readPage(ctx context.Context) (viewerPage, error) {
	var page viewerPage
	l := s.locators
	wait := s.opts.ElementTimeout

	panel, err := s.session.WaitFor(ctx, l.PagingPanel, nil, wait)
	if err != nil {
		return page, err
	}
	buttons, err := s.session.WaitForAll(ctx, l.PanelButtons, panel, wait)
	if err != nil {
		return page, err
	}
	tableButton := buttons[len(buttons)-1]

	next, err := s.lastMatch(ctx, l.NextPage, nil, wait)
	if err != nil {
		return page, err
	}
	counter, err := s.session.WaitFor(ctx, l.PageCount, panel, wait)
	if err != nil {
		return page, err
	}
	if page.counter, err = s.session.Text(ctx, counter); err != nil {
		return page, err
	}
	index, err := s.session.WaitFor(ctx, l.IndexPanel, nil, wait)
	if err != nil {
		return page, err
	}

	if page.tableVisible, err = s.session.Enabled(ctx, tableButton); err != nil {
		return page, err
	}
	if page.tableVisible {
		grid, err := s.session.WaitFor(ctx, l.GridContainer, index, wait)
		if err != nil {
			return page, err
		}
		if page.grid, err = s.session.InnerHTML(ctx, grid); err != nil {
			return page, err
		}
	}

	if page.nextEnabled, err = s.session.Enabled(ctx, next); err != nil {
		return page, err
	}
	return page, nil
}

func (s *Scraper) lastMatch(ctx context.Context, loc browser.Locator, scope browser.Element, wait time.Duration) (browser.Element, error) {
	all, err := s.session.WaitForAll(ctx, loc, scope, wait)
	if err != nil {
		return nil, err
	}
	return all[len(all)-1], nil
}

// advance clicks the next-page button and waits for the viewer to move. The
// counter updates before the grid re-renders, so leaving a visible table
// waits for new grid content (or a hidden table on the new page); only a
// hidden page may be left on a counter change alone. It reports false when
// the viewer stays put.
func (s *Scraper) advance(ctx context.Context, from viewerPage) (bool, error) {
	err := s.opts.Interact.Do(ctx, "next page", func(int) error {
		next, err := s.lastMatch(ctx, s.locators.NextPage, nil, s.opts.ElementTimeout)
		if err != nil {
			return err
		}
		return errors.Retryable(s.session.Click(ctx, next))
	}, nil)
	if err != nil {
		return false, fmt.Errorf("click next page: %w", err)
	}

	err = browser.WaitUntil(ctx, s.opts.ElementTimeout, s.opts.PollInterval, func(ctx context.Context) (bool, error) {
		page, err := s.readPage(ctx)
		if err != nil {
			return false, err
		}
		return moved(from, page), nil
	})
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, browser.ErrWaitTimeout):
		return false, nil
	default:
		return false, err
	}
}

func moved(from, to viewerPage) bool {
	if !from.tableVisible {
		return to.counter != from.counter || (to.tableVisible && to.grid != from.grid)
	}
	if to.tableVisible {
		return to.grid != from.grid
	}
	return to.counter != from.counter
}
