// Package browsertest provides a scripted in-memory browser.Session for
// exercising scrapers without a real browser.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valpere/parishscraper/internal/browser"
)

// Query produces the current matches for a locator. It is called on every
// lookup so tests can model pages that change as they are driven.
type Query func() []*Element

// Static returns a Query with a fixed result.
func Static(elements ...*Element) Query {
	return func() []*Element { return elements }
}

// Element is a scripted DOM node.
type Element struct {
	Name     string
	Text     string
	HTML     string
	Attrs    map[string]string
	Disabled bool
	Hidden   bool
	Stale    bool

	// Children answers queries scoped to this element, keyed by expression.
	Children map[string]Query
	// Shadow answers queries inside this element's shadow root.
	Shadow map[string]Query

	OnClick func() error
	OnKey   func(browser.Key) error

	mu    sync.Mutex
	Typed string
}

func (e *Element) String() string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("element(%q)", e.Text)
}

// Session is a browser.Session backed by registered queries.
type Session struct {
	mu sync.Mutex

	URL     string
	queries map[string]Query
	// URLErr, when set, is returned by CurrentURL.
	URLErr error

	// OnNavigate runs on every Navigate after URL is updated.
	OnNavigate func(url string) error
	// OnRefresh runs on every Refresh.
	OnRefresh func() error

	Navigations []string
	Refreshes   int
	Closed      bool
}

// New creates an empty session.
func New() *Session {
	return &Session{queries: make(map[string]Query)}
}

// Handle registers the answer for a document-level locator expression.
func (s *Session) Handle(expr string, q Query) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries[expr] = q
}

// Unhandle removes a registered locator.
func (s *Session) Unhandle(expr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queries, expr)
}

func (s *Session) lookup(loc browser.Locator, scope browser.Element) ([]*Element, error) {
	if scope == nil {
		s.mu.Lock()
		q := s.queries[loc.Expr]
		s.mu.Unlock()
		if q == nil {
			return nil, nil
		}
		return q(), nil
	}
	e, err := asElement(scope)
	if err != nil {
		return nil, err
	}
	q := e.Children[loc.Expr]
	if q == nil {
		return nil, nil
	}
	return q(), nil
}

func asElement(el browser.Element) (*Element, error) {
	e, ok := el.(*Element)
	if !ok || e == nil {
		return nil, browser.ErrForeignElement
	}
	if e.Stale {
		return nil, fmt.Errorf("%w: %s", browser.ErrStaleElement, e)
	}
	return e, nil
}

func wrap(elements []*Element) []browser.Element {
	out := make([]browser.Element, len(elements))
	for i, e := range elements {
		out[i] = e
	}
	return out
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	s.URL = url
	s.Navigations = append(s.Navigations, url)
	hook := s.OnNavigate
	s.mu.Unlock()
	if hook != nil {
		return hook(url)
	}
	return nil
}

func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.Refreshes++
	hook := s.OnRefresh
	s.mu.Unlock()
	if hook != nil {
		return hook()
	}
	return nil
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.URLErr != nil {
		return "", s.URLErr
	}
	return s.URL, nil
}

func (s *Session) Find(ctx context.Context, loc browser.Locator, scope browser.Element) (browser.Element, error) {
	found, err := s.lookup(loc, scope)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrElementNotFound, loc)
	}
	return found[0], nil
}

func (s *Session) FindAll(ctx context.Context, loc browser.Locator, scope browser.Element) ([]browser.Element, error) {
	found, err := s.lookup(loc, scope)
	if err != nil {
		return nil, err
	}
	return wrap(found), nil
}

// WaitFor does not sleep: an empty answer is an immediate timeout.
func (s *Session) WaitFor(ctx context.Context, loc browser.Locator, scope browser.Element, timeout time.Duration) (browser.Element, error) {
	all, err := s.WaitForAll(ctx, loc, scope, timeout)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

func (s *Session) WaitForAll(ctx context.Context, loc browser.Locator, scope browser.Element, timeout time.Duration) ([]browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found, err := s.lookup(loc, scope)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrWaitTimeout, loc)
	}
	return wrap(found), nil
}

func (s *Session) FindInShadow(ctx context.Context, host browser.Element, selector string) ([]browser.Element, error) {
	e, err := asElement(host)
	if err != nil {
		return nil, err
	}
	if e.Shadow == nil {
		return nil, fmt.Errorf("%w: %s", browser.ErrNoShadowRoot, e)
	}
	q := e.Shadow[selector]
	if q == nil {
		return nil, nil
	}
	return wrap(q()), nil
}

// FindDeep answers from the same registry as document-level queries.
func (s *Session) FindDeep(ctx context.Context, selector string) ([]browser.Element, error) {
	return s.FindAll(ctx, browser.CSS(selector), nil)
}

func (s *Session) Click(ctx context.Context, el browser.Element) error {
	e, err := asElement(el)
	if err != nil {
		return err
	}
	if e.OnClick != nil {
		return e.OnClick()
	}
	return nil
}

func (s *Session) PressKey(ctx context.Context, el browser.Element, key browser.Key) error {
	e, err := asElement(el)
	if err != nil {
		return err
	}
	if e.OnKey != nil {
		return e.OnKey(key)
	}
	return nil
}

func (s *Session) Type(ctx context.Context, el browser.Element, text string) error {
	e, err := asElement(el)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.Typed += text
	e.mu.Unlock()
	return nil
}

func (s *Session) Text(ctx context.Context, el browser.Element) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

func (s *Session) Attribute(ctx context.Context, el browser.Element, name string) (string, bool, error) {
	e, err := asElement(el)
	if err != nil {
		return "", false, err
	}
	v, ok := e.Attrs[name]
	return v, ok, nil
}

func (s *Session) InnerHTML(ctx context.Context, el browser.Element) (string, error) {
	e, err := asElement(el)
	if err != nil {
		return "", err
	}
	return e.HTML, nil
}

func (s *Session) Enabled(ctx context.Context, el browser.Element) (bool, error) {
	e, err := asElement(el)
	if err != nil {
		return false, err
	}
	return !e.Disabled, nil
}

func (s *Session) Displayed(ctx context.Context, el browser.Element) (bool, error) {
	e, err := asElement(el)
	if err != nil {
		return false, err
	}
	return !e.Hidden, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

var _ browser.Session = (*Session)(nil)
