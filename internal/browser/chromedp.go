// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// chromeElement wraps a DOM node tracked by chromedp.
type chromeElement struct {
	node *cdp.Node
}

func (e chromeElement) String() string {
	if e.node == nil {
		return "<nil>"
	}
	return e.node.FullXPath()
}

// ChromeSession implements Session using chromedp
type ChromeSession struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	config      *BrowserConfig
}

// NewChromeSession launches (or attaches to) Chrome and opens one tab.
func NewChromeSession(config *BrowserConfig) (*ChromeSession, error) {
	if config == nil {
		config = DefaultBrowserConfig()
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if config.RemoteURL != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	} else {
		opts := []chromedp.ExecAllocatorOption{
			chromedp.NoFirstRun,
			chromedp.NoDefaultBrowserCheck,
			chromedp.DisableGPU,
			chromedp.NoSandbox, // Required for Docker environments
		}
		if config.Headless {
			opts = append(opts, chromedp.Headless)
		}
		if config.ExecPath != "" {
			opts = append(opts, chromedp.ExecPath(config.ExecPath))
		}
		if config.UserDataDir != "" {
			opts = append(opts, chromedp.UserDataDir(config.UserDataDir))
		}
		if config.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(config.UserAgent))
		}
		if config.DisableImages {
			opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &ChromeSession{
		allocCancel: allocCancel,
		ctx:         ctx,
		cancel:      cancel,
		config:      config,
	}

	// The first Run starts the browser; it must not carry a timeout.
	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(config.ViewportWidth), int64(config.ViewportHeight))); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return s, nil
}

// run executes actions on the tab, bounded by timeout and cancelled with ctx.
func (s *ChromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *ChromeSession) node(el Element) (*cdp.Node, error) {
	ce, ok := el.(chromeElement)
	if !ok || ce.node == nil {
		return nil, ErrForeignElement
	}
	return ce.node, nil
}

func (s *ChromeSession) queryOptions(loc Locator, scope Element) ([]chromedp.QueryOption, error) {
	var opts []chromedp.QueryOption
	if loc.By == ByXPath {
		if scope != nil {
			return nil, ErrScopedXPath
		}
		opts = append(opts, chromedp.BySearch)
	} else {
		opts = append(opts, chromedp.ByQueryAll)
	}
	if scope != nil {
		n, err := s.node(scope)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chromedp.FromNode(n))
	}
	return opts, nil
}

func wrapNodes(nodes []*cdp.Node) []Element {
	out := make([]Element, len(nodes))
	for i, n := range nodes {
		out[i] = chromeElement{node: n}
	}
	return out
}

// Navigate loads url and waits for the document body.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.config.Timeout, chromedp.Navigate(url), chromedp.WaitReady("body"))
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Refresh reloads the current page.
func (s *ChromeSession) Refresh(ctx context.Context) error {
	if err := s.run(ctx, s.config.Timeout, chromedp.Reload(), chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// CurrentURL returns the tab's location.
func (s *ChromeSession) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, s.config.Timeout, chromedp.Location(&u)); err != nil {
		return "", err
	}
	return u, nil
}

func (s *ChromeSession) Find(ctx context.Context, loc Locator, scope Element) (Element, error) {
	all, err := s.FindAll(ctx, loc, scope)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return all[0], nil
}

func (s *ChromeSession) FindAll(ctx context.Context, loc Locator, scope Element) ([]Element, error) {
	opts, err := s.queryOptions(loc, scope)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	opts = append(opts, chromedp.AtLeast(0))
	if err := s.run(ctx, s.config.Timeout, chromedp.Nodes(loc.Expr, &nodes, opts...)); err != nil {
		return nil, classify(err, loc.String())
	}
	return wrapNodes(nodes), nil
}

func (s *ChromeSession) WaitFor(ctx context.Context, loc Locator, scope Element, timeout time.Duration) (Element, error) {
	all, err := s.WaitForAll(ctx, loc, scope, timeout)
	if err != nil {
		return nil, err
	}
	return all[0], nil
}

func (s *ChromeSession) WaitForAll(ctx context.Context, loc Locator, scope Element, timeout time.Duration) ([]Element, error) {
	opts, err := s.queryOptions(loc, scope)
	if err != nil {
		return nil, err
	}
	var nodes []*cdp.Node
	if err := s.run(ctx, timeout, chromedp.Nodes(loc.Expr, &nodes, opts...)); err != nil {
		return nil, classify(err, loc.String())
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, loc)
	}
	return wrapNodes(nodes), nil
}

// FindInShadow queries host's shadow root. Roots missing from chromedp's DOM
// mirror are described and pushed to the frontend on demand.
func (s *ChromeSession) FindInShadow(ctx context.Context, host Element, selector string) ([]Element, error) {
	n, err := s.node(host)
	if err != nil {
		return nil, err
	}

	var root *cdp.Node
	if len(n.ShadowRoots) > 0 {
		root = n.ShadowRoots[0]
	} else {
		err := s.run(ctx, s.config.Timeout, chromedp.ActionFunc(func(ctx context.Context) error {
			desc, err := dom.DescribeNode().WithNodeID(n.NodeID).WithDepth(1).WithPierce(true).Do(ctx)
			if err != nil {
				return err
			}
			if len(desc.ShadowRoots) == 0 {
				return ErrNoShadowRoot
			}
			ids, err := dom.PushNodesByBackendIDsToFrontend([]cdp.BackendNodeID{desc.ShadowRoots[0].BackendNodeID}).Do(ctx)
			if err != nil {
				return err
			}
			if len(ids) == 0 || ids[0] == 0 {
				return ErrNoShadowRoot
			}
			root = &cdp.Node{NodeID: ids[0], BackendNodeID: desc.ShadowRoots[0].BackendNodeID}
			return nil
		}))
		if err != nil {
			return nil, classify(err, "shadow root of "+host.String())
		}
	}

	var nodes []*cdp.Node
	err = s.run(ctx, s.config.Timeout,
		chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0), chromedp.FromNode(root)))
	if err != nil {
		return nil, classify(err, selector)
	}
	return wrapNodes(nodes), nil
}

// FindDeep evaluates the shadow-piercing query and resolves each match.
func (s *ChromeSession) FindDeep(ctx context.Context, selector string) ([]Element, error) {
	var count int
	expr := fmt.Sprintf("(%s)(%q)", deepQueryJS, selector)
	if err := s.run(ctx, s.config.Timeout, chromedp.Evaluate(expr+".length", &count)); err != nil {
		return nil, classify(err, selector)
	}

	out := make([]Element, 0, count)
	for i := 0; i < count; i++ {
		var nodes []*cdp.Node
		path := fmt.Sprintf("%s[%d]", expr, i)
		if err := s.run(ctx, s.config.Timeout, chromedp.Nodes(path, &nodes, chromedp.ByJSPath)); err != nil {
			return nil, classify(err, selector)
		}
		out = append(out, wrapNodes(nodes)...)
	}
	return out, nil
}

func (s *ChromeSession) Click(ctx context.Context, el Element) error {
	n, err := s.node(el)
	if err != nil {
		return err
	}
	return classify(s.run(ctx, s.config.Timeout, chromedp.MouseClickNode(n)), "click "+el.String())
}

func (s *ChromeSession) PressKey(ctx context.Context, el Element, key Key) error {
	n, err := s.node(el)
	if err != nil {
		return err
	}
	var keys string
	switch key {
	case KeyArrowDown:
		keys = kb.ArrowDown
	case KeyEnter:
		keys = kb.Enter
	default:
		return fmt.Errorf("unsupported key %s", key)
	}
	err = s.run(ctx, s.config.Timeout,
		chromedp.Focus([]cdp.NodeID{n.NodeID}, chromedp.ByNodeID),
		chromedp.KeyEvent(keys))
	return classify(err, key.String()+" on "+el.String())
}

func (s *ChromeSession) Type(ctx context.Context, el Element, text string) error {
	n, err := s.node(el)
	if err != nil {
		return err
	}
	err = s.run(ctx, s.config.Timeout, chromedp.SendKeys([]cdp.NodeID{n.NodeID}, text, chromedp.ByNodeID))
	return classify(err, "type into "+el.String())
}

func (s *ChromeSession) Text(ctx context.Context, el Element) (string, error) {
	n, err := s.node(el)
	if err != nil {
		return "", err
	}
	var text string
	err = s.run(ctx, s.config.Timeout, chromedp.Text([]cdp.NodeID{n.NodeID}, &text, chromedp.ByNodeID))
	if err != nil {
		return "", classify(err, "text of "+el.String())
	}
	return strings.TrimSpace(text), nil
}

func (s *ChromeSession) Attribute(ctx context.Context, el Element, name string) (string, bool, error) {
	n, err := s.node(el)
	if err != nil {
		return "", false, err
	}
	var value string
	var ok bool
	err = s.run(ctx, s.config.Timeout,
		chromedp.AttributeValue([]cdp.NodeID{n.NodeID}, name, &value, &ok, chromedp.ByNodeID))
	if err != nil {
		return "", false, classify(err, name+" of "+el.String())
	}
	return value, ok, nil
}

func (s *ChromeSession) InnerHTML(ctx context.Context, el Element) (string, error) {
	n, err := s.node(el)
	if err != nil {
		return "", err
	}
	var html string
	err = s.run(ctx, s.config.Timeout, chromedp.InnerHTML([]cdp.NodeID{n.NodeID}, &html, chromedp.ByNodeID))
	if err != nil {
		return "", classify(err, "html of "+el.String())
	}
	return html, nil
}

// Enabled reads the live "disabled" property rather than the attribute.
func (s *ChromeSession) Enabled(ctx context.Context, el Element) (bool, error) {
	n, err := s.node(el)
	if err != nil {
		return false, err
	}
	var disabled bool
	err = s.run(ctx, s.config.Timeout,
		chromedp.JavascriptAttribute([]cdp.NodeID{n.NodeID}, "disabled", &disabled, chromedp.ByNodeID))
	if err != nil {
		return false, classify(err, "enabled state of "+el.String())
	}
	return !disabled, nil
}

// Displayed reports whether the node has a layout box.
func (s *ChromeSession) Displayed(ctx context.Context, el Element) (bool, error) {
	n, err := s.node(el)
	if err != nil {
		return false, err
	}
	displayed := true
	err = s.run(ctx, s.config.Timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		if _, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "could not compute box model") {
				displayed = false
				return nil
			}
			return err
		}
		return nil
	}))
	if err != nil {
		return false, classify(err, "visibility of "+el.String())
	}
	return displayed, nil
}

// Close closes the tab and the browser.
func (s *ChromeSession) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
	return nil
}
