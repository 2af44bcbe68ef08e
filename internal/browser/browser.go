// Package browser defines the capability surface the application workflow needs from a
// browsing context, and a headless Chrome implementation of it.
package browser

import (
	"context"
	"fmt"
	"strings"
)

// LocatorKind selects how a Locator query is interpreted.
type LocatorKind string

const (
	// KindCSS is a CSS selector.
	KindCSS LocatorKind = "css"
	// KindXPath is an XPath expression.
	KindXPath LocatorKind = "xpath"
)

// Locator describes one way of finding elements. Text, when set, keeps only elements whose
// visible text, aria-label or value contains it (case-insensitive).
type Locator struct {
	Kind  LocatorKind
	Query string
	Text  string
}

// CSS builds a CSS locator.
func CSS(query string) Locator {
	return Locator{Kind: KindCSS, Query: query}
}

// XPath builds an XPath locator.
func XPath(query string) Locator {
	return Locator{Kind: KindXPath, Query: query}
}

// WithText returns a copy of the locator filtered by text.
func (l Locator) WithText(text string) Locator {
	l.Text = text
	return l
}

func (l Locator) String() string {
	if l.Text != "" {
		return fmt.Sprintf("%s:%s[text~%q]", l.Kind, l.Query, l.Text)
	}
	return fmt.Sprintf("%s:%s", l.Kind, l.Query)
}

// Handle is an opaque reference to an element in the current window.
type Handle string

// ElementState is the live interaction state of an element.
type ElementState struct {
	Visible       bool
	Enabled       bool
	Value         string
	Checked       bool
	SelectedIndex int // -1 when not a select or no option is selected
}

// Option is one entry of a select element.
type Option struct {
	Text  string
	Value string
}

// Element describes an element's static attributes.
type Element struct {
	Tag     string            // lowercase tag name
	Attrs   map[string]string // raw attributes
	Text    string            // trimmed visible text
	Label   string            // text of the associated <label>, if any
	Options []Option          // select options, in order
}

// Attr returns an attribute value or "".
func (e Element) Attr(name string) string {
	return e.Attrs[name]
}

// InputType returns the lowercase input type, defaulting to "text" for inputs.
func (e Element) InputType() string {
	if e.Tag != "input" {
		return ""
	}
	t := strings.ToLower(e.Attr("type"))
	if t == "" {
		return "text"
	}
	return t
}

// Matches reports whether text is a case-insensitive substring of the element's
// visible text, aria-label or value attribute.
func (e Element) Matches(text string) bool {
	needle := strings.ToLower(text)
	for _, hay := range []string{e.Text, e.Attr("aria-label"), e.Attr("value")} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

// Caption is the best human-readable name of the element: text, aria-label or value.
func (e Element) Caption() string {
	for _, s := range []string{e.Text, e.Attr("aria-label"), e.Attr("value")} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// ActionKind enumerates element actions.
type ActionKind string

// Action kinds.
const (
	ActClick       ActionKind = "click"
	ActType        ActionKind = "type"
	ActClear       ActionKind = "clear"
	ActSelectText  ActionKind = "select_text"
	ActSelectValue ActionKind = "select_value"
	ActSelectIndex ActionKind = "select_index"
	ActUpload      ActionKind = "upload"
	ActKey         ActionKind = "key"
)

// Keys accepted by the key action.
const (
	KeyEnter     = "Enter"
	KeyArrowDown = "ArrowDown"
)

// Action is one operation on an element.
type Action struct {
	Kind  ActionKind
	Text  string // type text, option text/value, file path or key name
	Index int    // option index for ActSelectIndex
}

// Click clicks the element.
func Click() Action { return Action{Kind: ActClick} }

// Type sends text to the element.
func Type(text string) Action { return Action{Kind: ActType, Text: text} }

// Clear empties the element's value.
func Clear() Action { return Action{Kind: ActClear} }

// SelectText selects the option whose trimmed text equals text.
func SelectText(text string) Action { return Action{Kind: ActSelectText, Text: text} }

// SelectValue selects the option whose value attribute equals value.
func SelectValue(value string) Action { return Action{Kind: ActSelectValue, Text: value} }

// SelectIndex selects the option at index i.
func SelectIndex(i int) Action { return Action{Kind: ActSelectIndex, Index: i} }

// Upload sets a file input to path.
func Upload(path string) Action { return Action{Kind: ActUpload, Text: path} }

// Key presses a named key with the element focused.
func Key(name string) Action { return Action{Kind: ActKey, Text: name} }

func (a Action) String() string {
	switch a.Kind {
	case ActClick, ActClear:
		return string(a.Kind)
	case ActSelectIndex:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Index)
	default:
		return fmt.Sprintf("%s(%q)", a.Kind, a.Text)
	}
}

// Driver is a single browsing session. Handles are scoped to the current window and
// may go stale when the page changes; stale handles yield ErrDetached.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	PageText(ctx context.Context) (string, error)

	WindowHandles(ctx context.Context) ([]string, error)
	CurrentWindow(ctx context.Context) (string, error)
	SwitchWindow(ctx context.Context, handle string) error
	CloseWindow(ctx context.Context, handle string) error

	QueryAll(ctx context.Context, loc Locator) ([]Handle, error)
	State(ctx context.Context, h Handle) (ElementState, error)
	Describe(ctx context.Context, h Handle) (Element, error)
	Act(ctx context.Context, h Handle, a Action) error

	ScrollIntoView(ctx context.Context, h Handle) error
	ScrollToBottom(ctx context.Context) error
}

// Usable reports whether the element exists, is visible and is enabled.
func Usable(ctx context.Context, d Driver, h Handle) bool {
	st, err := d.State(ctx, h)
	return err == nil && st.Visible && st.Enabled
}
