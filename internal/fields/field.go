// Package fields classifies discovered form fields and fills them from the applicant profile.
package fields

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/selector"
)

// Kind is the interaction kind of a form control.
type Kind string

const (
	KindText     Kind = "text"
	KindSelect   Kind = "select"
	KindFile     Kind = "file"
	KindCheckbox Kind = "checkbox"
	KindTextarea Kind = "textarea"
	KindOther    Kind = "other"
)

// Field is a discovered form control and its state at discovery time.
// It is only meaningful for the duration of one fill pass.
type Field struct {
	Handle      browser.Handle
	Name        string
	ID          string
	Placeholder string
	AriaLabel   string
	Label       string
	Kind        Kind
	Required    bool

	Visible       bool
	Enabled       bool
	Value         string
	Checked       bool
	SelectedIndex int
	Options       []browser.Option
}

// FromElement builds a Field from a driver description and state.
func FromElement(h browser.Handle, el browser.Element, st browser.ElementState) Field {
	_, required := el.Attrs["required"]
	if strings.EqualFold(el.Attr("aria-required"), "true") {
		required = true
	}
	return Field{
		Handle:        h,
		Name:          el.Attr("name"),
		ID:            el.Attr("id"),
		Placeholder:   el.Attr("placeholder"),
		AriaLabel:     el.Attr("aria-label"),
		Label:         el.Label,
		Kind:          kindOf(el),
		Required:      required,
		Visible:       st.Visible,
		Enabled:       st.Enabled,
		Value:         st.Value,
		Checked:       st.Checked,
		SelectedIndex: st.SelectedIndex,
		Options:       el.Options,
	}
}

func kindOf(el browser.Element) Kind {
	switch el.Tag {
	case "select":
		return KindSelect
	case "textarea":
		return KindTextarea
	case "input":
		switch el.InputType() {
		case "file":
			return KindFile
		case "checkbox":
			return KindCheckbox
		case "text", "email", "tel", "number", "url", "search":
			return KindText
		}
	}
	return KindOther
}

// Tokens returns the normalized token set of name, id, placeholder, aria-label and label.
func (f Field) Tokens() Tokens {
	return Tokenize(f.Name, f.ID, f.Placeholder, f.AriaLabel, f.Label)
}

// Usable reports whether the field can be interacted with.
func (f Field) Usable() bool {
	return f.Visible && f.Enabled
}

// Empty reports whether the field holds no meaningful value. Selects showing a
// placeholder option count as empty.
func (f Field) Empty() bool {
	switch f.Kind {
	case KindCheckbox:
		return !f.Checked
	case KindSelect:
		if f.SelectedIndex < 0 || f.SelectedIndex >= len(f.Options) {
			return strings.TrimSpace(f.Value) == ""
		}
		opt := f.Options[f.SelectedIndex]
		return opt.Value == "" || IsPlaceholder(opt.Text)
	default:
		return strings.TrimSpace(f.Value) == ""
	}
}

// Describe returns a short human name for logs and operator prompts.
func (f Field) Describe() string {
	for _, s := range []string{f.Label, f.AriaLabel, f.Placeholder, f.Name, f.ID} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return string(f.Handle)
}

// Discover reads one field from the driver.
func Discover(ctx context.Context, d browser.Driver, h browser.Handle) (Field, error) {
	el, err := d.Describe(ctx, h)
	if err != nil {
		return Field{}, err
	}
	st, err := d.State(ctx, h)
	if err != nil {
		return Field{}, err
	}
	return FromElement(h, el, st), nil
}

// DiscoverAll reads every form control on the page, hidden ones included.
// Controls that detach while being read are skipped.
func DiscoverAll(ctx context.Context, d browser.Driver) ([]Field, error) {
	handles, err := d.QueryAll(ctx, selector.FormFields.Locators[0])
	if err != nil {
		return nil, fmt.Errorf("failed to discover form fields: %w", err)
	}
	out := make([]Field, 0, len(handles))
	for _, h := range handles {
		f, err := Discover(ctx, d, h)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
