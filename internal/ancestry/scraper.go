// internal/ancestry/scraper.go - Ancestry collection browser automation
package ancestry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valpere/parishscraper/internal/browser"
	"github.com/valpere/parishscraper/internal/dataset"
	"github.com/valpere/parishscraper/internal/errors"
	"github.com/valpere/parishscraper/internal/monitoring"
	"github.com/valpere/parishscraper/internal/utils"
)

const site = "ancestry"

// Options tunes waits and retries for one scraper.
type Options struct {
	BaseURL  string
	LoginURL string
	// Levels is the number of cascading selectors; 0 discovers it from the page.
	Levels int
	// MaxPages caps pages read per detail viewer; 0 means no cap.
	MaxPages int

	ElementTimeout time.Duration
	OptionsTimeout time.Duration
	LeafTimeout    time.Duration
	PollInterval   time.Duration

	// Render bounds reloading a page whose controls never appear.
	Render errors.RetryPolicy
	// Interact bounds retrying a click or key press on a re-rendering control.
	Interact errors.RetryPolicy
}

// DefaultOptions mirrors the waits the site needs in practice.
func DefaultOptions() Options {
	return Options{
		BaseURL:        "https://www.ancestry.co.uk",
		LoginURL:       "https://www.ancestry.co.uk/secure/login",
		ElementTimeout: 15 * time.Second,
		OptionsTimeout: 10 * time.Second,
		LeafTimeout:    20 * time.Second,
		PollInterval:   browser.DefaultPollInterval,
		Render:         errors.DefaultRetryPolicy(),
		Interact: errors.RetryPolicy{
			MaxAttempts:   10,
			BaseDelay:     200 * time.Millisecond,
			BackoffFactor: 1.5,
			MaxDelay:      2 * time.Second,
		},
	}
}

// Credentials for the site account.
type Credentials struct {
	Username string
	Password string
}

// Scraper drives one authenticated browser session over Ancestry.
type Scraper struct {
	session       browser.Session
	locators      Locators
	opts          Options
	logger        utils.Logger
	metrics       *monitoring.Metrics
	limiter       *utils.RateLimiter
	authenticated bool
}

// Option customises a Scraper.
type Option func(*Scraper)

func WithLocators(l Locators) Option { return func(s *Scraper) { s.locators = l } }

func WithLogger(l utils.Logger) Option { return func(s *Scraper) { s.logger = l } }

func WithMetrics(m *monitoring.Metrics) Option { return func(s *Scraper) { s.metrics = m } }

func WithRateLimiter(r *utils.RateLimiter) Option { return func(s *Scraper) { s.limiter = r } }

// New creates a scraper over session.
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

// CollectionURL returns the browse page of a collection.
func (s *Scraper) CollectionURL(code string) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + "/search/collections/" + code + "/"
}

// CollectionURLs opens the collection and traverses its browse selectors.
func (s *Scraper) CollectionURLs(ctx context.Context, code string) (*dataset.URLMap, error) {
	if !s.authenticated {
		return nil, errors.Authentication("collection urls", "sign in before collecting urls")
	}
	if err := s.navigate(ctx, s.CollectionURL(code)); err != nil {
		return nil, err
	}
	if _, err := s.session.WaitFor(ctx, s.locators.BrowseBox, nil, s.opts.ElementTimeout); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NotFound("collection urls", "collection %s has no browse box: %v", code, err)
	}
	return s.Traverse(ctx)
}

// ScrapeCollection assembles every detail viewer in urls into one table.
func (s *Scraper) ScrapeCollection(ctx context.Context, urls *dataset.URLMap) (*dataset.Table, error) {
	if !s.authenticated {
		return nil, errors.Authentication("scrape collection", "sign in before scraping")
	}
	return Assemble(ctx, urls, s.ScrapeRecord, s.logger)
}

// Run collects and scrapes a whole collection.
func (s *Scraper) Run(ctx context.Context, code string) (*dataset.Table, *dataset.URLMap, error) {
	urls, err := s.CollectionURLs(ctx, code)
	if err != nil {
		return nil, urls, err
	}
	s.logger.Infof("collected %d detail urls across %d paths", urls.URLCount(), urls.Len())
	table, err := s.ScrapeCollection(ctx, urls)
	return table, urls, err
}

// Close ends the browser session.
func (s *Scraper) Close() error {
	return s.session.Close()
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

// refreshBetween reloads the page between render attempts.
func (s *Scraper) refreshBetween(op string) errors.Between {
	return func(ctx context.Context, attempt int, cause error) error {
		s.logger.WithFields(map[string]interface{}{"op": op, "attempt": attempt}).Warnf("page not ready, refreshing: %v", cause)
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

// interact re-locates loc and applies do until it succeeds, so a control that
// re-renders mid-interaction is simply found again.
func (s *Scraper) interact(ctx context.Context, op string, loc browser.Locator, do func(browser.Element) error) error {
	return s.opts.Interact.Do(ctx, op, func(int) error {
		el, err := s.session.WaitFor(ctx, loc, nil, s.opts.ElementTimeout)
		if err != nil {
			return err
		}
		return errors.Retryable(do(el))
	}, func(ctx context.Context, attempt int, cause error) error {
		s.metrics.Retry(site, op)
		s.logger.Debugf("%s attempt %d failed: %v", op, attempt, cause)
		return nil
	})
}
