// internal/browser/types.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Driver names accepted in BrowserConfig.Driver.
const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

// BrowserConfig defines browser automation configuration
type BrowserConfig struct {
	Driver         string        `yaml:"driver" json:"driver"`
	Headless       bool          `yaml:"headless" json:"headless"`
	ExecPath       string        `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	RemoteURL      string        `yaml:"remote_url,omitempty" json:"remote_url,omitempty"`
	UserDataDir    string        `yaml:"user_data_dir,omitempty" json:"user_data_dir,omitempty"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	UserAgent      string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	DisableImages  bool          `yaml:"disable_images" json:"disable_images"`
}

// DefaultBrowserConfig returns default browser configuration
func DefaultBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Driver:         DriverChromedp,
		Headless:       true,
		Timeout:        60 * time.Second,
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		DisableImages:  true,
	}
}

// By selects the query language of a Locator.
type By int

const (
	ByCSS By = iota
	ByXPath
)

// Locator addresses elements on a page. XPath locators are evaluated
// against the whole document and cannot be scoped to an element.
type Locator struct {
	By   By
	Expr string
}

// CSS builds a CSS selector locator.
func CSS(expr string) Locator { return Locator{By: ByCSS, Expr: expr} }

// XPath builds an XPath locator.
func XPath(expr string) Locator { return Locator{By: ByXPath, Expr: expr} }

// ParseLocator reads the textual form used in locator files:
// "xpath:<expr>", "css:<expr>", or a bare CSS selector. Bare expressions
// starting with "/" or "(" are taken as XPath.
func ParseLocator(s string) Locator {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "xpath:"):
		return XPath(strings.TrimSpace(strings.TrimPrefix(s, "xpath:")))
	case strings.HasPrefix(s, "css:"):
		return CSS(strings.TrimSpace(strings.TrimPrefix(s, "css:")))
	case strings.HasPrefix(s, "/"), strings.HasPrefix(s, "("):
		return XPath(s)
	default:
		return CSS(s)
	}
}

// Format fills fmt verbs in the expression, for templated locators such as
// per-level controls.
func (l Locator) Format(args ...interface{}) Locator {
	return Locator{By: l.By, Expr: fmt.Sprintf(l.Expr, args...)}
}

func (l Locator) String() string {
	if l.By == ByXPath {
		return "xpath:" + l.Expr
	}
	return "css:" + l.Expr
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool { return l.Expr == "" }

func (l Locator) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Locator) UnmarshalText(text []byte) error {
	parsed := ParseLocator(string(text))
	if parsed.Expr == "" {
		return fmt.Errorf("empty locator")
	}
	*l = parsed
	return nil
}

// Key is a special keyboard key.
type Key int

const (
	KeyArrowDown Key = iota
	KeyEnter
)

func (k Key) String() string {
	switch k {
	case KeyArrowDown:
		return "ArrowDown"
	case KeyEnter:
		return "Enter"
	default:
		return fmt.Sprintf("Key(%d)", int(k))
	}
}

// Element is an opaque handle to a node found by a Session. Handles go stale
// when the page re-renders; operations on stale handles fail with
// ErrStaleElement.
type Element interface {
	fmt.Stringer
}

// Session is the browser capability the scrapers drive. A nil scope means the
// whole document; an iframe element as scope means the iframe's document.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)

	// Find returns the first match without waiting.
	Find(ctx context.Context, loc Locator, scope Element) (Element, error)
	// FindAll returns all current matches without waiting; none is not an error.
	FindAll(ctx context.Context, loc Locator, scope Element) ([]Element, error)
	// WaitFor blocks until a match exists or timeout elapses.
	WaitFor(ctx context.Context, loc Locator, scope Element, timeout time.Duration) (Element, error)
	// WaitForAll blocks until at least one match exists and returns all of them.
	WaitForAll(ctx context.Context, loc Locator, scope Element, timeout time.Duration) ([]Element, error)
	// FindInShadow queries inside host's open shadow root.
	FindInShadow(ctx context.Context, host Element, selector string) ([]Element, error)
	// FindDeep queries the document and every open shadow root beneath it.
	FindDeep(ctx context.Context, selector string) ([]Element, error)

	Click(ctx context.Context, el Element) error
	PressKey(ctx context.Context, el Element, key Key) error
	Type(ctx context.Context, el Element, text string) error

	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	InnerHTML(ctx context.Context, el Element) (string, error)
	Enabled(ctx context.Context, el Element) (bool, error)
	Displayed(ctx context.Context, el Element) (bool, error)

	Close() error
}
