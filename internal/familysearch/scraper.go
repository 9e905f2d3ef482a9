// internal/familysearch/scraper.go - FamilySearch burial search automation
package familysearch

import (
	"context"
	"fmt"
	"time"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/monitoring"
	"github.com/valpere/parishscraper/internal/utils"
)

const site = "familysearch"

type Options struct {
	SearchURL string
	LoginURL  string
	HomeURL   string

	ElementTimeout time.Duration
	// ResultsTimeout bounds the wait for the spinner to settle on each load.
	ResultsTimeout time.Duration
	SignInTimeout  time.Duration
	SurveyTimeout  time.Duration
	CookieTimeout  time.Duration
	PollInterval   time.Duration

	Render   errors.RetryPolicy
	Interact errors.RetryPolicy
}

func DefaultOptions() Options {
	return Options{
		SearchURL:      "https://www.familysearch.org/search/record/results/?",
		LoginURL:       "https://www.familysearch.org/auth/familysearch/login",
		HomeURL:        "https://www.familysearch.org/",
		ElementTimeout: 10 * time.Second,
		ResultsTimeout: 10 * time.Second,
		SignInTimeout:  15 * time.Second,
		SurveyTimeout:  3 * time.Second,
		CookieTimeout:  10 * time.Second,
		PollInterval:   browser.DefaultPollInterval,
		Render:         errors.DefaultRetryPolicy(),
		Interact: errors.RetryPolicy{
			MaxAttempts:   3,
			BaseDelay:     500 * time.Millisecond,
			BackoffFactor: 2,
			MaxDelay:      2 * time.Second,
		},
	}
}

type Credentials struct {
	Username string
	Password string
}

// Scraper drives one authenticated FamilySearch session.
type Scraper struct {
	session       browser.Session
	locators      Locators
	opts          Options
	logger        utils.Logger
	metrics       *monitoring.Metrics
	limiter       *utils.RateLimiter
	authenticated bool
}

type Option func(*Scraper)

func WithLocators(l Locators) Option { return func(s *Scraper) { s.locators = l } }

func WithLogger(l utils.Logger) Option { return func(s *Scraper) { s.logger = l } }

func WithMetrics(m *monitoring.Metrics) Option { return func(s *Scraper) { s.metrics = m } }

func WithRateLimiter(r *utils.RateLimiter) Option { return func(s *Scraper) { s.limiter = r } }

func New(session browser.Session, opts Options, options ...Option) *Scraper {
	s := &Scraper{
		session:  session,
		locators: DefaultLocators(),
		opts:     opts,
		logger:   utils.NewNopLogger(),
	}
	for _, o := range options {
		o(s)
	}
	s.logger = s.logger.WithField("site", site)
	return s
}

func (s *Scraper) Close() error {
	return s.session.Close()
}

// BurialRecords searches place for every year from..to inclusive and returns
// one row per result that lists a burial event. When a page cannot be loaded
// the rows read so far are returned with the error.
func (s *Scraper) BurialRecords(ctx context.Context, place string, from, to int) (*dataset.Table, error) {
	if !s.authenticated {
		return nil, errors.Authentication("burial records", "sign in before searching")
	}
	if from > to {
		return nil, errors.Config("burial records", fmt.Errorf("year range %d-%d is empty", from, to))
	}

	var years []*dataset.Table
	for year := from; year <= to; year++ {
		batches, err := s.scrapeYear(ctx, place, year)
		if len(batches) > 0 {
			years = append(years, dataset.Concat(batches...))
		}
		if err != nil {
			return dataset.Concat(years...), err
		}
	}
	return dataset.Concat(years...), nil
}

func (s *Scraper) scrapeYear(ctx context.Context, place string, year int) ([]*dataset.Table, error) {
	log := s.logger.WithFields(map[string]interface{}{"place": place, "year": year})
	cursor := NewCursor(year)

	var batches []*dataset.Table
	for {
		url := BuildQueryURL(s.opts.SearchURL, place, year, cursor.Offset)
		if err := s.navigate(ctx, url); err != nil {
			return batches, err
		}
		if err := s.waitForResults(ctx); err != nil {
			return batches, err
		}

		if !cursor.Known() {
			total, ok := s.resultCount(ctx)
			if !ok {
				log.Info("no results")
				return batches, nil
			}
			cursor.SetTotal(total)
			log.Infof("%d results, last offset %d", total, cursor.MaxOffset)
		}

		batch, err := s.readBatch(ctx)
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
		s.metrics.PageScraped(site)
		s.metrics.RecordsScraped(site, batch.Len())
		log.Debugf("offset %d: %d burials", cursor.Offset, batch.Len())

		if !cursor.Advance() {
			return batches, nil
		}
	}
}

// waitForResults waits for the spinner to settle and the results table to
// render, refreshing the page between attempts.
func (s *Scraper) waitForResults(ctx context.Context) error {
	return s.opts.Render.Do(ctx, "load results", func(int) error {
		return s.resultsReady(ctx)
	}, s.refreshBetween("load results"))
}

func (s *Scraper) resultsReady(ctx context.Context) error {
	l := s.locators
	err := browser.WaitUntil(ctx, s.opts.ResultsTimeout, s.opts.PollInterval, func(ctx context.Context) (bool, error) {
		spinners, err := s.session.FindDeep(ctx, l.Spinner)
		if err != nil || len(spinners) == 0 {
			return false, err
		}
		style, _, err := s.session.Attribute(ctx, spinners[0], l.SpinnerAttr)
		if err != nil {
			return false, err
		}
		return style != "", nil
	})
	if err != nil {
		return err
	}

	if l.Alert != "" {
		if alerts, err := s.session.FindDeep(ctx, l.Alert); err == nil && len(alerts) > 0 {
			return errors.Retryable(fmt.Errorf("search returned an alert"))
		}
	}
	if _, err := s.resultsTable(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Scraper) resultsTable(ctx context.Context) (browser.Element, error) {
	tables, err := s.session.FindDeep(ctx, s.locators.ResultsTable)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, s.locators.ResultsTable)
	}
	return tables[0], nil
}

func (s *Scraper) resultCount(ctx context.Context) (int, bool) {
	els, err := s.session.FindDeep(ctx, s.locators.ResultCount)
	if err != nil || len(els) == 0 {
		return 0, false
	}
	text, err := s.session.Text(ctx, els[0])
	if err != nil {
		return 0, false
	}
	return ParseResultCount(text)
}

// readBatch reads the current page's rows, starting over if the table
// re-renders underneath it.
func (s *Scraper) readBatch(ctx context.Context) (*dataset.Table, error) {
	var batch *dataset.Table
	err := s.opts.Interact.Do(ctx, "read rows", func(int) error {
		table, err := s.resultsTable(ctx)
		if err != nil {
			return err
		}
		batch, err = s.readRows(ctx, table)
		return err
	}, func(ctx context.Context, attempt int, cause error) error {
		s.metrics.Retry(site, "read rows")
		s.logger.Debugf("results changed while reading (attempt %d): %v", attempt, cause)
		return nil
	})
	return batch, err
}

func (s *Scraper) navigate(ctx context.Context, url string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := s.session.Navigate(ctx, url)
	s.metrics.ObserveNavigation(site, time.Since(start))
	if err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	return nil
}

func (s *Scraper) refreshBetween(op string) errors.Between {
	return func(ctx context.Context, attempt int, cause error) error {
		s.logger.WithFields(map[string]interface{}{"op": op, "attempt": attempt}).Warnf("results not ready, refreshing: %v", cause)
		s.metrics.Retry(site, op)
		s.metrics.Refresh(site)
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.session.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warnf("refresh failed: %v", err)
		}
		return nil
	}
}
