// Package browsertest provides an in-memory browser.Driver over static HTML documents.
// Only CSS locators are supported. Page transitions are scripted with click and key hooks.
package browsertest

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/apply-agent/internal/browser"
	"golang.org/x/net/html"
)

// Hook runs after an element action and may change the page.
type Hook func(b *Browser) error

// KeyHook runs when a key is pressed on an element.
type KeyHook func(b *Browser, key string) error

type window struct {
	id  string
	url string
	doc *goquery.Document
}

// Browser is a fake single-session browser. It is not safe for concurrent use.
type Browser struct {
	pages   map[string]string
	navErrs map[string]error
	windows []*window
	current int
	seq     int

	clicks   map[string]Hook
	keys     map[string]KeyHook
	onScroll Hook

	handles map[browser.Handle]*html.Node
	byNode  map[*html.Node]browser.Handle

	// Actions records every element action as "<ref> <action>", e.g. `#email type("a@b.c")`.
	Actions []string
	// Navigations records every URL passed to Navigate.
	Navigations []string
	// Scrolls counts ScrollToBottom calls.
	Scrolls int
}

var _ browser.Driver = (*Browser)(nil)

// New returns a browser with one blank window named "main".
func New() *Browser {
	b := &Browser{
		pages:   map[string]string{},
		navErrs: map[string]error{},
		clicks:  map[string]Hook{},
		keys:    map[string]KeyHook{},
		handles: map[browser.Handle]*html.Node{},
		byNode:  map[*html.Node]browser.Handle{},
	}
	b.windows = []*window{{id: "main", url: "about:blank", doc: mustParse("")}}
	return b
}

// AddPage registers the HTML served for url.
func (b *Browser) AddPage(url, page string) *Browser {
	b.pages[url] = page
	return b
}

// FailNavigation makes Navigate(url) return err.
func (b *Browser) FailNavigation(url string, err error) *Browser {
	b.navErrs[url] = err
	return b
}

// OnClick registers a hook for clicks on the element with the given id.
func (b *Browser) OnClick(id string, h Hook) *Browser {
	b.clicks[id] = h
	return b
}

// OnKey registers a hook for key presses on the element with the given id.
func (b *Browser) OnKey(id string, h KeyHook) *Browser {
	b.keys[id] = h
	return b
}

// OnScroll registers a hook for ScrollToBottom.
func (b *Browser) OnScroll(h Hook) *Browser {
	b.onScroll = h
	return b
}

// SetHTML replaces the current window's document. Existing handles become detached.
func (b *Browser) SetHTML(page string) {
	b.win().doc = mustParse(page)
}

// SetURL changes the current window's URL without reloading.
func (b *Browser) SetURL(url string) {
	b.win().url = url
}

// OpenWindow adds a window showing page and returns its handle. The current window is unchanged.
func (b *Browser) OpenWindow(url, page string) string {
	b.seq++
	id := "window-" + strconv.Itoa(b.seq)
	b.windows = append(b.windows, &window{id: id, url: url, doc: mustParse(page)})
	return id
}

// Find queries the current document directly, for assertions.
func (b *Browser) Find(css string) *goquery.Selection {
	return b.win().doc.Find(css)
}

// Value returns the current value of the first element matching css.
func (b *Browser) Value(css string) string {
	s := b.Find(css).First()
	if s.Length() == 0 {
		return ""
	}
	return valueOf(s)
}

// Windows returns the number of open windows.
func (b *Browser) Windows() int {
	return len(b.windows)
}

func (b *Browser) win() *window {
	return b.windows[b.current]
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.Navigations = append(b.Navigations, url)
	if err, ok := b.navErrs[url]; ok {
		return &browser.NavigationError{URL: url, Cause: err}
	}
	page, ok := b.pages[url]
	if !ok {
		return &browser.NavigationError{URL: url, Cause: fmt.Errorf("no page registered")}
	}
	w := b.win()
	w.url = url
	w.doc = mustParse(page)
	return nil
}

func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	return b.win().url, nil
}

func (b *Browser) PageText(ctx context.Context) (string, error) {
	page, err := b.win().doc.Html()
	if err != nil {
		return "", err
	}
	return browser.ExtractText(page)
}

func (b *Browser) WindowHandles(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(b.windows))
	for _, w := range b.windows {
		ids = append(ids, w.id)
	}
	return ids, nil
}

func (b *Browser) CurrentWindow(ctx context.Context) (string, error) {
	return b.win().id, nil
}

func (b *Browser) SwitchWindow(ctx context.Context, handle string) error {
	for i, w := range b.windows {
		if w.id == handle {
			b.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %s", browser.ErrNoWindow, handle)
}

func (b *Browser) CloseWindow(ctx context.Context, handle string) error {
	for i, w := range b.windows {
		if w.id != handle {
			continue
		}
		if i == 0 {
			return fmt.Errorf("cannot close the main window")
		}
		currentID := b.win().id
		b.windows = append(b.windows[:i], b.windows[i+1:]...)
		b.current = 0
		for j, rest := range b.windows {
			if rest.id == currentID {
				b.current = j
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", browser.ErrNoWindow, handle)
}

func (b *Browser) QueryAll(ctx context.Context, loc browser.Locator) ([]browser.Handle, error) {
	if loc.Kind != browser.KindCSS {
		return nil, fmt.Errorf("%w: %s", browser.ErrUnsupportedLocator, loc.Kind)
	}
	sel := b.win().doc.Find(loc.Query)
	handles := make([]browser.Handle, 0, sel.Length())
	for _, n := range sel.Nodes {
		handles = append(handles, b.handleFor(n))
	}
	return handles, nil
}

func (b *Browser) State(ctx context.Context, h browser.Handle) (browser.ElementState, error) {
	s, err := b.resolve(h)
	if err != nil {
		return browser.ElementState{}, err
	}
	_, checked := s.Attr("checked")
	return browser.ElementState{
		Visible:       visible(s.Nodes[0]),
		Enabled:       enabled(s),
		Value:         valueOf(s),
		Checked:       checked,
		SelectedIndex: selectedIndex(s),
	}, nil
}

func (b *Browser) Describe(ctx context.Context, h browser.Handle) (browser.Element, error) {
	s, err := b.resolve(h)
	if err != nil {
		return browser.Element{}, err
	}

	el := browser.Element{
		Tag:   goquery.NodeName(s),
		Attrs: map[string]string{},
		Text:  collapse(s.Text()),
	}
	for _, a := range s.Nodes[0].Attr {
		el.Attrs[a.Key] = a.Val
	}
	if el.Tag == "select" {
		el.Text = ""
		s.Find("option").Each(func(_ int, o *goquery.Selection) {
			el.Options = append(el.Options, browser.Option{Text: collapse(o.Text()), Value: optionValue(o)})
		})
	}
	if id := el.Attrs["id"]; id != "" {
		el.Label = collapse(b.win().doc.Find(`label[for="` + id + `"]`).First().Text())
	}
	if el.Label == "" {
		el.Label = collapse(s.Closest("label").Text())
	}
	return el, nil
}

func (b *Browser) Act(ctx context.Context, h browser.Handle, a browser.Action) error {
	s, err := b.resolve(h)
	if err != nil {
		return &browser.ActionError{Handle: h, Action: a, Message: "stale handle", Cause: err}
	}
	if a.Kind != browser.ActUpload && (!visible(s.Nodes[0]) || !enabled(s)) {
		return &browser.ActionError{Handle: h, Action: a, Message: "hidden or disabled", Cause: browser.ErrNotInteractable}
	}

	id, _ := s.Attr("id")
	b.Actions = append(b.Actions, ref(s)+" "+a.String())

	switch a.Kind {
	case browser.ActClick:
		if t, _ := s.Attr("type"); goquery.NodeName(s) == "input" && (t == "checkbox" || t == "radio") {
			if _, on := s.Attr("checked"); on {
				s.RemoveAttr("checked")
			} else {
				s.SetAttr("checked", "checked")
			}
		}
		if hook, ok := b.clicks[id]; ok && id != "" {
			return hook(b)
		}
	case browser.ActType:
		setValue(s, valueOf(s)+a.Text)
	case browser.ActClear:
		setValue(s, "")
	case browser.ActUpload:
		setValue(s, a.Text)
	case browser.ActKey:
		if hook, ok := b.keys[id]; ok && id != "" {
			return hook(b, a.Text)
		}
	case browser.ActSelectText, browser.ActSelectValue, browser.ActSelectIndex:
		return selectOption(s, a)
	default:
		return &browser.ActionError{Handle: h, Action: a, Message: "unknown action"}
	}
	return nil
}

func (b *Browser) ScrollIntoView(ctx context.Context, h browser.Handle) error {
	_, err := b.resolve(h)
	return err
}

func (b *Browser) ScrollToBottom(ctx context.Context) error {
	b.Scrolls++
	if b.onScroll != nil {
		return b.onScroll(b)
	}
	return nil
}

func (b *Browser) handleFor(n *html.Node) browser.Handle {
	if h, ok := b.byNode[n]; ok {
		return h
	}
	b.seq++
	h := browser.Handle("node-" + strconv.Itoa(b.seq))
	b.handles[h] = n
	b.byNode[n] = h
	return h
}

// resolve maps a handle to a selection in the current document, or ErrDetached.
func (b *Browser) resolve(h browser.Handle) (*goquery.Selection, error) {
	n, ok := b.handles[h]
	if !ok {
		return nil, fmt.Errorf("%w: unknown handle %s", browser.ErrDetached, h)
	}
	root := b.win().doc.Nodes[0]
	top := n
	for top.Parent != nil {
		top = top.Parent
	}
	if top != root {
		return nil, fmt.Errorf("%w: %s", browser.ErrDetached, h)
	}
	return b.win().doc.FindNodes(n), nil
}

func mustParse(page string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		panic(fmt.Sprintf("browsertest: bad HTML: %v", err))
	}
	return doc
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func visible(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type != html.ElementNode {
			continue
		}
		for _, a := range cur.Attr {
			switch {
			case a.Key == "hidden":
				return false
			case a.Key == "style" && browser.HiddenStyle(a.Val):
				return false
			case cur == n && cur.Data == "input" && a.Key == "type" && strings.EqualFold(a.Val, "hidden"):
				return false
			}
		}
	}
	return true
}

func enabled(s *goquery.Selection) bool {
	if _, disabled := s.Attr("disabled"); disabled {
		return false
	}
	return s.AttrOr("aria-disabled", "") != "true"
}

func valueOf(s *goquery.Selection) string {
	switch goquery.NodeName(s) {
	case "textarea":
		return s.Text()
	case "select":
		opt := selectedOption(s)
		if opt == nil {
			return ""
		}
		return optionValue(opt)
	default:
		return s.AttrOr("value", "")
	}
}

func setValue(s *goquery.Selection, v string) {
	if goquery.NodeName(s) == "textarea" {
		s.SetText(v)
		return
	}
	s.SetAttr("value", v)
}

func optionValue(o *goquery.Selection) string {
	if v, ok := o.Attr("value"); ok {
		return v
	}
	return collapse(o.Text())
}

func selectedOption(s *goquery.Selection) *goquery.Selection {
	opts := s.Find("option")
	if opts.Length() == 0 {
		return nil
	}
	if sel := opts.Filter("[selected]"); sel.Length() > 0 {
		return sel.First()
	}
	return opts.First()
}

func selectedIndex(s *goquery.Selection) int {
	if goquery.NodeName(s) != "select" {
		return -1
	}
	opts := s.Find("option")
	if opts.Length() == 0 {
		return -1
	}
	idx := 0
	opts.EachWithBreak(func(i int, o *goquery.Selection) bool {
		if _, ok := o.Attr("selected"); ok {
			idx = i
			return false
		}
		return true
	})
	return idx
}

func selectOption(s *goquery.Selection, a browser.Action) error {
	opts := s.Find("option")
	target := -1
	opts.EachWithBreak(func(i int, o *goquery.Selection) bool {
		var hit bool
		switch a.Kind {
		case browser.ActSelectText:
			hit = collapse(o.Text()) == a.Text
		case browser.ActSelectValue:
			hit = optionValue(o) == a.Text
		default:
			hit = i == a.Index
		}
		if hit {
			target = i
		}
		return !hit
	})
	if target < 0 {
		return fmt.Errorf("no option matches %s", a)
	}
	opts.RemoveAttr("selected")
	opts.Eq(target).SetAttr("selected", "selected")
	return nil
}

// ref renders a short element reference for the action log.
func ref(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := s.Attr("name"); ok && name != "" {
		return goquery.NodeName(s) + "[name=" + name + "]"
	}
	if t := collapse(s.Text()); t != "" {
		return goquery.NodeName(s) + "(" + t + ")"
	}
	return goquery.NodeName(s)
}
