// internal/ancestry/collector.go
package ancestry

import (
	"context"
	"strings"

	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/utils"
)

// CollectURLs reads the date-range links shown once every level at the given
// depth is selected. A missing, stale, or slow list yields no links.
func (s *Scraper) CollectURLs(ctx context.Context, depth int) dataset.Links {
	links := dataset.Links{}

	items, err := s.session.WaitForAll(ctx, s.locators.ResultItems.Format(depth), nil, s.opts.LeafTimeout)
	if err != nil {
		s.logger.Debugf("no date ranges at depth %d: %v", depth, err)
		return links
	}

	base, err := s.session.CurrentURL(ctx)
	if err != nil {
		s.logger.Debugf("date range links left unresolved: %v", err)
	}

	for _, item := range items {
		a, err := s.session.WaitFor(ctx, s.locators.ResultLink, item, s.opts.ElementTimeout)
		if err != nil {
			s.logger.Debugf("date range entry without link: %v", err)
			return dataset.Links{}
		}
		label, err := s.session.Text(ctx, a)
		if err != nil {
			return dataset.Links{}
		}
		href, ok, err := s.session.Attribute(ctx, a, "href")
		if err != nil || !ok || strings.TrimSpace(href) == "" {
			return dataset.Links{}
		}
		links = links.Set(label, utils.ResolveURL(base, href))
	}
	return links
}
