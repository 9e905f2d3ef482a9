// internal/ancestry/traversal.go - depth-first walk over cascading browse selectors
package ancestry

import (
	"context"
	"fmt"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/dataset"
)

// Level is one cascading selector, addressed by its 1-based position.
type Level struct {
	Index int
}

// Traverse visits every leaf of the browse selectors on the current
// collection page and returns the detail URLs found at each.
func (s *Scraper) Traverse(ctx context.Context) (*dataset.URLMap, error) {
	levels, err := s.levels(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("traversing %d browse levels", len(levels))

	urls := dataset.NewURLMap()
	if err := s.descend(ctx, levels, nil, urls); err != nil {
		return urls, err
	}
	return urls, nil
}

func (s *Scraper) levels(ctx context.Context) ([]Level, error) {
	n := s.opts.Levels
	if n <= 0 {
		containers, err := s.session.WaitForAll(ctx, s.locators.BrowseLevels, nil, s.opts.ElementTimeout)
		if err != nil {
			return nil, fmt.Errorf("count browse levels: %w", err)
		}
		n = len(containers)
	}
	levels := make([]Level, n)
	for i := range levels {
		levels[i] = Level{Index: i + 1}
	}
	return levels, nil
}

// descend expands the first remaining level under prefix. Each child gets its
// own copy of the prefix, so sibling branches never share option names.
func (s *Scraper) descend(ctx context.Context, levels []Level, prefix []string, acc *dataset.URLMap) error {
	if len(levels) == 0 {
		return s.leaf(ctx, prefix, acc)
	}

	level := levels[0]
	names, err := s.readOptions(ctx, level)
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.selectNext(ctx, level); err != nil {
			return fmt.Errorf("select %q at level %d: %w", name, level.Index, err)
		}
		path := make([]string, len(prefix), len(prefix)+1)
		copy(path, prefix)
		if err := s.descend(ctx, levels[1:], append(path, name), acc); err != nil {
			return err
		}
	}
	return nil
}

// readOptions returns the display names of a level's options, skipping the
// placeholder. The page is reloaded when the control never renders.
func (s *Scraper) readOptions(ctx context.Context, level Level) ([]string, error) {
	loc := s.locators.LevelOptions.Format(level.Index)
	op := fmt.Sprintf("options level %d", level.Index)

	var names []string
	err := s.opts.Render.Do(ctx, op, func(int) error {
		options, err := s.session.WaitForAll(ctx, loc, nil, s.opts.OptionsTimeout)
		if err != nil {
			return err
		}
		names = names[:0]
		for _, o := range options[1:] {
			text, err := s.session.Text(ctx, o)
			if err != nil {
				return err
			}
			names = append(names, text)
		}
		return nil
	}, s.refreshBetween(op))
	if err != nil {
		return nil, err
	}
	return names, nil
}

// selectNext moves a level's selection one option down: focus the control,
// press ArrowDown, confirm with Enter.
func (s *Scraper) selectNext(ctx context.Context, level Level) error {
	loc := s.locators.LevelSelect.Format(level.Index)
	steps := []struct {
		op string
		do func(browser.Element) error
	}{
		{"focus select", func(el browser.Element) error { return s.session.Click(ctx, el) }},
		{"arrow down", func(el browser.Element) error { return s.session.PressKey(ctx, el, browser.KeyArrowDown) }},
		{"enter", func(el browser.Element) error { return s.session.PressKey(ctx, el, browser.KeyEnter) }},
	}
	for _, step := range steps {
		if err := s.interact(ctx, step.op, loc, step.do); err != nil {
			return err
		}
	}
	return nil
}

// leaf records the links for a completed selection.
func (s *Scraper) leaf(ctx context.Context, options []string, acc *dataset.URLMap) error {
	links := s.CollectURLs(ctx, len(options))
	labels := s.labels(ctx)

	path := make(dataset.Path, 0, len(options))
	for i, option := range options {
		label := fmt.Sprintf("Level %d", i+1)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		path = path.Extend(dataset.Step{Label: label, Option: option})
	}

	acc.Put(path, links)
	s.metrics.LeafCollected(site, len(links))
	s.logger.WithField("path", path.String()).Infof("found %d date ranges", len(links))
	return ctx.Err()
}

// labels reads the browse-control captions; failures fall back to positional
// names at the caller.
func (s *Scraper) labels(ctx context.Context) []string {
	elements, err := s.session.FindAll(ctx, s.locators.LevelLabels, nil)
	if err != nil {
		s.logger.Warnf("could not read browse labels: %v", err)
		return nil
	}
	labels := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := s.session.Text(ctx, el)
		if err != nil {
			s.logger.Warnf("could not read browse label: %v", err)
			return nil
		}
		labels = append(labels, text)
	}
	return labels
}
