// internal/browser/rod.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

type rodElement struct {
	el *rod.Element
}

func (e rodElement) String() string {
	if e.el == nil {
		return "<nil>"
	}
	return e.el.String()
}

// RodSession implements Session on top of go-rod.
type RodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	config   *BrowserConfig
}

// NewRodSession launches (or attaches to) a browser and opens one page.
func NewRodSession(config *BrowserConfig) (*RodSession, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	s := &RodSession{config: config}

	controlURL := config.RemoteURL
	if controlURL == "" {
		l := launcher.New().Headless(config.Headless).NoSandbox(true)
		if config.ExecPath != "" {
			l = l.Bin(config.ExecPath)
		}
		if config.UserDataDir != "" {
			l = l.UserDataDir(config.UserDataDir)
		}
		if config.DisableImages {
			l = l.Set("blink-settings", "imagesEnabled=false")
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		s.launcher = l
		controlURL = u
	}

	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             config.ViewportWidth,
		Height:            config.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to set viewport: %w", err)
	}
	if config.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: config.UserAgent}); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	return s, nil
}

func (s *RodSession) pageFor(ctx context.Context, timeout time.Duration) *rod.Page {
	p := s.page.Context(ctx)
	if timeout > 0 {
		p = p.Timeout(timeout)
	}
	return p
}

func (s *RodSession) element(el Element) (*rod.Element, error) {
	re, ok := el.(rodElement)
	if !ok || re.el == nil {
		return nil, ErrForeignElement
	}
	return re.el, nil
}

func (s *RodSession) bound(ctx context.Context, el Element) (*rod.Element, error) {
	e, err := s.element(el)
	if err != nil {
		return nil, err
	}
	e = e.Context(ctx)
	if s.config.Timeout > 0 {
		e = e.Timeout(s.config.Timeout)
	}
	return e, nil
}

func wrapRod(elements rod.Elements) []Element {
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = rodElement{el: e}
	}
	return out
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	p := s.pageFor(ctx, s.config.Timeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *RodSession) Refresh(ctx context.Context) error {
	p := s.pageFor(ctx, s.config.Timeout)
	if err := p.Reload(); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

func (s *RodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.pageFor(ctx, s.config.Timeout).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

// query runs loc against the page, an element, or an iframe's document.
func (s *RodSession) query(ctx context.Context, loc Locator, scope Element) (rod.Elements, error) {
	p := s.pageFor(ctx, s.config.Timeout)
	if scope == nil {
		if loc.By == ByXPath {
			return p.ElementsX(loc.Expr)
		}
		return p.Elements(loc.Expr)
	}

	if loc.By == ByXPath {
		return nil, ErrScopedXPath
	}
	e, err := s.bound(ctx, scope)
	if err != nil {
		return nil, err
	}
	tag, err := e.Property("tagName")
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(tag.Str(), "iframe") {
		frame, err := e.Frame()
		if err != nil {
			return nil, err
		}
		return frame.Elements(loc.Expr)
	}
	return e.Elements(loc.Expr)
}

func (s *RodSession) Find(ctx context.Context, loc Locator, scope Element) (Element, error) {
	all, err := s.FindAll(ctx, loc, scope)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return all[0], nil
}

func (s *RodSession) FindAll(ctx context.Context, loc Locator, scope Element) ([]Element, error) {
	elements, err := s.query(ctx, loc, scope)
	if err != nil {
		return nil, classify(err, loc.String())
	}
	return wrapRod(elements), nil
}

func (s *RodSession) WaitFor(ctx context.Context, loc Locator, scope Element, timeout time.Duration) (Element, error) {
	all, err := s.WaitForAll(ctx, loc, scope, timeout)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

// WaitForAll polls the immediate query; rod's own waiting Element calls do not
// cover iframe scopes.
func (s *RodSession) WaitForAll(ctx context.Context, loc Locator, scope Element, timeout time.Duration) ([]Element, error) {
	var found []Element
	err := WaitUntil(ctx, timeout, DefaultPollInterval, func(ctx context.Context) (bool, error) {
		all, err := s.FindAll(ctx, loc, scope)
		if err != nil {
			return false, err
		}
		found = all
		return len(all) > 0, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", loc, err)
	}
	return found, nil
}

func (s *RodSession) FindInShadow(ctx context.Context, host Element, selector string) ([]Element, error) {
	e, err := s.bound(ctx, host)
	if err != nil {
		return nil, err
	}
	root, err := e.ShadowRoot()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoShadowRoot, host, err)
	}
	elements, err := root.Elements(selector)
	if err != nil {
		return nil, classify(err, selector)
	}
	return wrapRod(elements), nil
}

func (s *RodSession) FindDeep(ctx context.Context, selector string) ([]Element, error) {
	elements, err := s.pageFor(ctx, s.config.Timeout).ElementsByJS(rod.Eval(deepQueryJS, selector))
	if err != nil {
		return nil, classify(err, selector)
	}
	return wrapRod(elements), nil
}

func (s *RodSession) Click(ctx context.Context, el Element) error {
	e, err := s.bound(ctx, el)
	if err != nil {
		return err
	}
	return classify(e.Click(proto.InputMouseButtonLeft, 1), "click "+el.String())
}

func (s *RodSession) PressKey(ctx context.Context, el Element, key Key) error {
	e, err := s.bound(ctx, el)
	if err != nil {
		return err
	}
	var k input.Key
	switch key {
	case KeyArrowDown:
		k = input.ArrowDown
	case KeyEnter:
		k = input.Enter
	default:
		return fmt.Errorf("unsupported key %s", key)
	}
	return classify(e.Type(k), key.String()+" on "+el.String())
}

func (s *RodSession) Type(ctx context.Context, el Element, text string) error {
	e, err := s.bound(ctx, el)
	if err != nil {
		return err
	}
	return classify(e.Input(text), "type into "+el.String())
}

func (s *RodSession) Text(ctx context.Context, el Element) (string, error) {
	e, err := s.bound(ctx, el)
	if err != nil {
		return "", err
	}
	text, err := e.Text()
	if err != nil {
		return "", classify(err, "text of "+el.String())
	}
	return strings.TrimSpace(text), nil
}

func (s *RodSession) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	e, err := s.bound(ctx, el)
	if err != nil {
		return "", false, err
	}
	v, err := e.Attribute(name)
	if err != nil {
		return "", false, classify(err, name+" of "+el.String())
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (s *RodSession) InnerHTML(ctx context.Context, el Element) (string, error) {
	e, err := s.bound(ctx, el)
	if err != nil {
		return "", err
	}
	v, err := e.Property("innerHTML")
	if err != nil {
		return "", classify(err, "html of "+el.String())
	}
	return v.Str(), nil
}

func (s *RodSession) Enabled(ctx context.Context, el Element) (bool, error) {
	e, err := s.bound(ctx, el)
	if err != nil {
		return false, err
	}
	disabled, err := e.Disabled()
	if err != nil {
		return false, classify(err, "enabled state of "+el.String())
	}
	return !disabled, nil
}

func (s *RodSession) Displayed(ctx context.Context, el Element) (bool, error) {
	e, err := s.bound(ctx, el)
	if err != nil {
		return false, err
	}
	visible, err := e.Visible()
	if err != nil {
		return false, classify(err, "visibility of "+el.String())
	}
	return visible, nil
}

func (s *RodSession) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Kill()
	}
	return err
}
