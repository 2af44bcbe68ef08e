package fields

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// GenericInterest is written into free-text boxes nothing else claims.
const GenericInterest = "I am very interested in this position and believe my skills and experience make me a great fit."

// Status tags a fill result.
type Status string

const (
	Filled        Status = "filled"
	NotApplicable Status = "not_applicable"
	Failed        Status = "failed"
)

// Result is the tagged outcome of one fill call.
type Result struct {
	Field  Field
	Status Status
	Class  Classification
	Value  string
	Note   string
	Err    error
}

// Filler writes profile values into form fields. Failures are reported, never retried.
type Filler struct {
	driver      browser.Driver
	profile     types.Profile
	suggestions *selector.Resolver
	settle      time.Duration
	logger      *zap.Logger
}

// Option configures a Filler.
type Option func(*Filler)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Filler) { f.logger = l }
}

// WithSuggestionWait sets how long to wait for an autocomplete list after typing a country.
func WithSuggestionWait(d time.Duration) Option {
	return func(f *Filler) { f.settle = d }
}

// NewFiller builds a Filler for one profile.
func NewFiller(d browser.Driver, profile types.Profile, opts ...Option) *Filler {
	f := &Filler{
		driver:  d,
		profile: profile,
		settle:  time.Second,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.suggestions = selector.New(d, selector.WithTimeout(f.settle), selector.WithLogger(f.logger))
	return f
}

// Profile returns the profile the filler writes.
func (f *Filler) Profile() types.Profile {
	return f.profile
}

// Fill classifies a field and dispatches it. A field that already holds a value is left
// untouched, so repeated passes converge.
func (f *Filler) Fill(ctx context.Context, fld Field) Result {
	class := Classify(fld.Tokens())
	res := Result{Field: fld, Class: class}

	if !fld.Usable() {
		return f.done(res, NotApplicable, "hidden or disabled", nil)
	}
	if !fld.Empty() {
		return f.done(res, NotApplicable, "already filled", nil)
	}

	switch class.Category {
	case CategoryCountry:
		return f.tag(f.Country(ctx, fld), class)
	case CategoryPhoneCode:
		return f.tag(f.PhoneCode(ctx, fld), class)
	case CategoryProfile:
		value := f.value(class.Key)
		if fld.Kind == KindSelect {
			return f.tag(f.Dropdown(ctx, fld, value), class)
		}
		if fld.Kind != KindText && fld.Kind != KindTextarea {
			return f.done(res, NotApplicable, "unsupported kind", nil)
		}
		return f.tag(f.FillText(ctx, fld, value), class)
	default:
		return f.done(res, NotApplicable, "unclassified", nil)
	}
}

// FillText clears the field and types value.
func (f *Filler) FillText(ctx context.Context, fld Field, value string) Result {
	res := Result{Field: fld, Value: value}
	if value == "" {
		return f.done(res, NotApplicable, "no profile value", nil)
	}
	if err := f.driver.Act(ctx, fld.Handle, browser.Clear()); err != nil {
		return f.done(res, Failed, "clear", notInteractable(fld, "clear", err))
	}
	if err := f.driver.Act(ctx, fld.Handle, browser.Type(value)); err != nil {
		return f.done(res, Failed, "type", notInteractable(fld, "type", err))
	}
	return f.done(res, Filled, "", nil)
}

// Dropdown selects the option matching want, else the first non-placeholder option.
func (f *Filler) Dropdown(ctx context.Context, fld Field, want string) Result {
	res := Result{Field: fld}
	idx := ChooseOption(fld.Options, want)
	if idx < 0 {
		return f.done(res, NotApplicable, "no usable option", nil)
	}
	res.Value = fld.Options[idx].Text
	if err := f.driver.Act(ctx, fld.Handle, browser.SelectIndex(idx)); err != nil {
		return f.done(res, Failed, "select", notInteractable(fld, "select", err))
	}
	return f.done(res, Filled, "", nil)
}

// Country resolves a country field. Selects try the name variants by text, then by value,
// then a search over all options. Free-text inputs get the country name followed by a
// suggestion click or, failing that, ArrowDown+Enter.
func (f *Filler) Country(ctx context.Context, fld Field) Result {
	name := f.profile.Country()
	res := Result{Field: fld, Class: Classification{Category: CategoryCountry}, Value: name}

	if fld.Kind == KindSelect {
		idx := MatchOption(fld.Options, f.countryVariants(), []string{name})
		if idx < 0 {
			return f.done(res, Failed, "country not offered", nil)
		}
		res.Value = fld.Options[idx].Text
		if err := f.driver.Act(ctx, fld.Handle, browser.SelectIndex(idx)); err != nil {
			return f.done(res, Failed, "select", notInteractable(fld, "select", err))
		}
		return f.done(res, Filled, "", nil)
	}

	if err := f.driver.Act(ctx, fld.Handle, browser.Clear()); err != nil {
		return f.done(res, Failed, "clear", notInteractable(fld, "clear", err))
	}
	if err := f.driver.Act(ctx, fld.Handle, browser.Type(name)); err != nil {
		return f.done(res, Failed, "type", notInteractable(fld, "type", err))
	}

	if sug := f.suggestions.Resolve(ctx, selector.CountrySuggestions(name)); sug.Found {
		if err := f.driver.Act(ctx, sug.Handle, browser.Click()); err == nil {
			return f.done(res, Filled, "suggestion", nil)
		}
	}

	// No suggestion list: confirm with the keyboard.
	if err := f.driver.Act(ctx, fld.Handle, browser.Key(browser.KeyArrowDown)); err != nil {
		return f.done(res, Failed, "keyboard confirm", notInteractable(fld, "arrow down", err))
	}
	if err := f.driver.Act(ctx, fld.Handle, browser.Key(browser.KeyEnter)); err != nil {
		return f.done(res, Failed, "keyboard confirm", notInteractable(fld, "enter", err))
	}
	return f.done(res, Filled, "keyboard", nil)
}

// PhoneCode resolves a phone country code field: dropdown-first search for the dial code
// and country variants, or the literal dial code for free text.
func (f *Filler) PhoneCode(ctx context.Context, fld Field) Result {
	dial := f.profile.DialCode()
	res := Result{Field: fld, Class: Classification{Category: CategoryPhoneCode}, Value: dial}

	if fld.Kind == KindSelect {
		digits := strings.TrimPrefix(dial, "+")
		search := []string{dial, f.profile.Country(), digits}
		idx := MatchOption(fld.Options, f.dialVariants(), search)
		if idx < 0 {
			return f.done(res, Failed, "dial code not offered", nil)
		}
		res.Value = fld.Options[idx].Text
		if err := f.driver.Act(ctx, fld.Handle, browser.SelectIndex(idx)); err != nil {
			return f.done(res, Failed, "select", notInteractable(fld, "select", err))
		}
		return f.done(res, Filled, "", nil)
	}

	return f.tag(f.FillText(ctx, fld, dial), res.Class)
}

// Upload attaches path to a file input.
func (f *Filler) Upload(ctx context.Context, fld Field, path string) Result {
	res := Result{Field: fld, Value: path}
	if err := f.driver.Act(ctx, fld.Handle, browser.Upload(path)); err != nil {
		return f.done(res, Failed, "upload", notInteractable(fld, "upload", err))
	}
	return f.done(res, Filled, "resume", nil)
}

// Consent ticks an unchecked checkbox whose label reads like a terms or privacy agreement.
func (f *Filler) Consent(ctx context.Context, fld Field) Result {
	res := Result{Field: fld}
	if fld.Kind != KindCheckbox || fld.Checked || !fld.Usable() {
		return f.done(res, NotApplicable, "", nil)
	}
	if !browser.ContainsAny(fld.Label, consentWords...) {
		return f.done(res, NotApplicable, "not a consent box", nil)
	}
	if err := f.driver.Act(ctx, fld.Handle, browser.Click()); err != nil {
		return f.done(res, Failed, "check", notInteractable(fld, "check", err))
	}
	return f.done(res, Filled, "consent", nil)
}

var consentWords = []string{"term", "privacy", "agree", "consent"}

func (f *Filler) value(key string) string {
	if key == profileFullName {
		return f.profile.FullName()
	}
	return f.profile.Get(key)
}

// countryVariants lists the exact spellings tried against options, e.g. India, IN, IND.
func (f *Filler) countryVariants() []string {
	name, code := f.profile.Country(), f.profile.CountryCode()
	variants := []string{name, code, strings.ToLower(name), strings.ToUpper(name)}
	if strings.EqualFold(name, types.DefaultCountry) {
		variants = append(variants, "IND")
	}
	return variants
}

// dialVariants lists the exact spellings of the dial code, e.g. +91, 91, India (+91).
func (f *Filler) dialVariants() []string {
	dial, name, code := f.profile.DialCode(), f.profile.Country(), f.profile.CountryCode()
	return []string{
		dial,
		strings.TrimPrefix(dial, "+"),
		fmt.Sprintf("%s (%s)", name, dial),
		fmt.Sprintf("%s (%s)", code, dial),
		fmt.Sprintf("%s %s", dial, name),
	}
}

func (f *Filler) tag(res Result, class Classification) Result {
	res.Class = class
	return res
}

func (f *Filler) done(res Result, status Status, note string, err error) Result {
	res.Status = status
	res.Note = note
	res.Err = err
	switch status {
	case Filled:
		f.logger.Debug("field filled",
			zap.String("field", res.Field.Describe()),
			zap.String("value", res.Value),
			zap.String("note", note))
	case Failed:
		f.logger.Warn("field fill failed",
			zap.String("field", res.Field.Describe()),
			zap.String("note", note),
			zap.Error(err))
	}
	return res
}
