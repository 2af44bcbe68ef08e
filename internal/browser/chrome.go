package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// ChromeOptions configures the headless Chrome driver.
type ChromeOptions struct {
	Headless      bool
	UserDataDir   string        // reuse a profile directory so sessions survive restarts
	UserAgent     string        // empty keeps Chrome's default
	ActionTimeout time.Duration // upper bound for a single CDP round trip
	NavigateWait  time.Duration // settle time after the body is ready
	WindowWidth   int
	WindowHeight  int
	ExecPath      string
}

// DefaultChromeOptions returns the options used by the CLI.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:      true,
		ActionTimeout: 10 * time.Second,
		NavigateWait:  2 * time.Second,
		WindowWidth:   1366,
		WindowHeight:  900,
	}
}

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Chrome drives a real Chrome/Chromium instance over the DevTools protocol.
// Requires Chrome/Chromium to be installed on the system.
type Chrome struct {
	opts          ChromeOptions
	logger        *zap.Logger
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	root          string
	current       string
	tabs          map[string]*tab
}

var _ Driver = (*Chrome)(nil)

// NewChrome launches a browser and attaches to its first tab.
func NewChrome(ctx context.Context, opts ChromeOptions, logger *zap.Logger) (*Chrome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	sugar := logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
	)

	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	root := string(chromedp.FromContext(browserCtx).Target.TargetID)
	c := &Chrome{
		opts:          opts,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		root:          root,
		current:       root,
		tabs:          map[string]*tab{root: {ctx: browserCtx, cancel: browserCancel}},
	}
	logger.Debug("browser started", zap.String("target", root), zap.Bool("headless", opts.Headless))
	return c, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	for id, t := range c.tabs {
		if id != c.root {
			t.cancel()
		}
	}
	c.browserCancel()
	c.allocCancel()
	return nil
}

// run executes actions on the current tab, bounded by ctx and ActionTimeout.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	t, ok := c.tabs[c.current]
	if !ok {
		return ErrNoWindow
	}

	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if c.opts.ActionTimeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, c.opts.ActionTimeout)
		defer cancelTimeout()
	}

	return chromedp.Run(runCtx, actions...)
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.logger.Debug("navigate", zap.String("url", url))
	err := c.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return &NavigationError{URL: url, Cause: err}
	}
	if c.opts.NavigateWait > 0 {
		select {
		case <-ctx.Done():
			return &NavigationError{URL: url, Cause: ctx.Err()}
		case <-time.After(c.opts.NavigateWait):
		}
	}
	return nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := c.run(ctx, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return u, nil
}

func (c *Chrome) PageText(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page HTML: %w", err)
	}
	return ExtractText(html)
}

func (c *Chrome) WindowHandles(ctx context.Context) ([]string, error) {
	infos, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	var handles []string
	for _, info := range infos {
		if info.Type == "page" {
			handles = append(handles, string(info.TargetID))
		}
	}
	return handles, nil
}

func (c *Chrome) CurrentWindow(ctx context.Context) (string, error) {
	return c.current, nil
}

func (c *Chrome) SwitchWindow(ctx context.Context, handle string) error {
	if _, ok := c.tabs[handle]; ok {
		c.current = handle
		return nil
	}

	tctx, cancel := chromedp.NewContext(c.browserCtx, chromedp.WithTargetID(target.ID(handle)))
	if err := chromedp.Run(tctx); err != nil {
		cancel()
		return fmt.Errorf("%w: %s: %v", ErrNoWindow, handle, err)
	}
	c.tabs[handle] = &tab{ctx: tctx, cancel: cancel}
	c.current = handle
	c.logger.Debug("switched window", zap.String("target", handle))
	return nil
}

func (c *Chrome) CloseWindow(ctx context.Context, handle string) error {
	if handle == c.root {
		return fmt.Errorf("cannot close the main window")
	}
	t, ok := c.tabs[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoWindow, handle)
	}
	t.cancel()
	delete(c.tabs, handle)
	if c.current == handle {
		c.current = c.root
	}
	return nil
}

func (c *Chrome) QueryAll(ctx context.Context, loc Locator) ([]Handle, error) {
	by := chromedp.ByQueryAll
	if loc.Kind == KindXPath {
		by = chromedp.BySearch
	}

	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(loc.Query, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("query %s: %w", loc, err)
	}

	handles := make([]Handle, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeType != cdp.NodeTypeElement {
			continue
		}
		handles = append(handles, Handle(strconv.FormatInt(int64(n.NodeID), 10)))
	}
	return handles, nil
}

const stateJS = `function() {
	const cs = window.getComputedStyle(this);
	const r = this.getBoundingClientRect();
	return {
		visible: cs.display !== 'none' && cs.visibility !== 'hidden' && (r.width > 0 || r.height > 0),
		enabled: !this.disabled && this.getAttribute('aria-disabled') !== 'true',
		value: this.value === undefined || this.value === null ? '' : String(this.value),
		checked: !!this.checked,
		selectedIndex: this.tagName === 'SELECT' ? this.selectedIndex : -1,
	};
}`

type stateResult struct {
	Visible       bool   `json:"visible"`
	Enabled       bool   `json:"enabled"`
	Value         string `json:"value"`
	Checked       bool   `json:"checked"`
	SelectedIndex int    `json:"selectedIndex"`
}

func (c *Chrome) State(ctx context.Context, h Handle) (ElementState, error) {
	var res stateResult
	if err := c.callOn(ctx, h, stateJS, &res); err != nil {
		return ElementState{}, err
	}
	return ElementState(res), nil
}

const describeJS = `function() {
	const attrs = {};
	for (const a of this.attributes) { attrs[a.name] = a.value; }
	let label = '';
	if (this.labels && this.labels.length > 0) {
		label = this.labels[0].innerText;
	} else if (this.closest('label')) {
		label = this.closest('label').innerText;
	}
	const options = this.tagName === 'SELECT'
		? Array.from(this.options).map(o => ({text: o.text.trim(), value: o.value}))
		: [];
	return {
		tag: this.tagName.toLowerCase(),
		attrs: attrs,
		text: (this.innerText || this.textContent || '').trim(),
		label: (label || '').trim(),
		options: options,
	};
}`

type describeResult struct {
	Tag   string            `json:"tag"`
	Attrs map[string]string `json:"attrs"`
	Text  string            `json:"text"`
	Label string            `json:"label"`
	Opts  []struct {
		Text  string `json:"text"`
		Value string `json:"value"`
	} `json:"options"`
}

func (c *Chrome) Describe(ctx context.Context, h Handle) (Element, error) {
	var res describeResult
	if err := c.callOn(ctx, h, describeJS, &res); err != nil {
		return Element{}, err
	}
	el := Element{Tag: res.Tag, Attrs: res.Attrs, Text: res.Text, Label: res.Label}
	for _, o := range res.Opts {
		el.Options = append(el.Options, Option{Text: o.Text, Value: o.Value})
	}
	return el, nil
}

// selectJS picks an option by the given predicate and fires input/change events.
const selectJS = `function() {
	const want = %s;
	const idx = Array.from(this.options).findIndex((o, i) => %s);
	if (idx < 0) { return false; }
	this.selectedIndex = idx;
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
}`

func (c *Chrome) Act(ctx context.Context, h Handle, a Action) error {
	id, err := nodeID(h)
	if err != nil {
		return &ActionError{Handle: h, Action: a, Message: "bad handle", Cause: err}
	}
	ids := []cdp.NodeID{id}

	switch a.Kind {
	case ActClick, ActType, ActClear, ActKey:
		st, err := c.State(ctx, h)
		if err != nil {
			return &ActionError{Handle: h, Action: a, Message: "state unavailable", Cause: err}
		}
		if !st.Visible || !st.Enabled {
			return &ActionError{Handle: h, Action: a, Message: "hidden or disabled", Cause: ErrNotInteractable}
		}
	}

	c.logger.Debug("act", zap.String("handle", string(h)), zap.Stringer("action", a))

	switch a.Kind {
	case ActClick:
		err = c.run(ctx, chromedp.Click(ids, chromedp.ByNodeID))
	case ActType:
		err = c.run(ctx, chromedp.SendKeys(ids, a.Text, chromedp.ByNodeID))
	case ActClear:
		err = c.run(ctx, chromedp.Clear(ids, chromedp.ByNodeID))
	case ActUpload:
		err = c.run(ctx, chromedp.SetUploadFiles(ids, []string{a.Text}, chromedp.ByNodeID))
	case ActKey:
		key, ok := keyNames[a.Text]
		if !ok {
			return &ActionError{Handle: h, Action: a, Message: "unknown key"}
		}
		err = c.run(ctx, chromedp.Focus(ids, chromedp.ByNodeID), chromedp.KeyEvent(key))
	case ActSelectText, ActSelectValue, ActSelectIndex:
		err = c.selectOption(ctx, h, a)
	default:
		return &ActionError{Handle: h, Action: a, Message: "unknown action"}
	}
	if err != nil {
		return &ActionError{Handle: h, Action: a, Message: "failed", Cause: err}
	}
	return nil
}

var keyNames = map[string]string{
	KeyEnter:     kb.Enter,
	KeyArrowDown: kb.ArrowDown,
}

func (c *Chrome) selectOption(ctx context.Context, h Handle, a Action) error {
	var want []byte
	var pred string
	switch a.Kind {
	case ActSelectText:
		want, _ = json.Marshal(a.Text)
		pred = "o.text.trim() === want"
	case ActSelectValue:
		want, _ = json.Marshal(a.Text)
		pred = "o.value === want"
	default:
		want, _ = json.Marshal(a.Index)
		pred = "i === want"
	}

	var ok bool
	if err := c.callOn(ctx, h, fmt.Sprintf(selectJS, want, pred), &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no option matches %s", a)
	}
	return nil
}

func (c *Chrome) ScrollIntoView(ctx context.Context, h Handle) error {
	id, err := nodeID(h)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.ScrollIntoView([]cdp.NodeID{id}, chromedp.ByNodeID))
}

func (c *Chrome) ScrollToBottom(ctx context.Context) error {
	return c.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// callOn runs a JS function with this bound to the element and decodes its result into out.
func (c *Chrome) callOn(ctx context.Context, h Handle, fn string, out any) error {
	id, err := nodeID(h)
	if err != nil {
		return err
	}
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(id).Do(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDetached, err)
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("script exception: %s", exc.Text)
		}
		if out == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal(res.Value, out)
	}))
}

func nodeID(h Handle) (cdp.NodeID, error) {
	n, err := strconv.ParseInt(string(h), 10, 64)
	if err != nil {
		return 0, errors.Join(ErrDetached, err)
	}
	return cdp.NodeID(n), nil
}
