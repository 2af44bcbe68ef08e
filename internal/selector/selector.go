// Package selector resolves live, interactable elements from ordered locator strategies.
//
// A Strategy is data: an ordered list of locators, most specific first. Resolution tries
// each locator in turn with a bounded wait and stops at the first usable element. Absence
// is reported as Result.Found == false, never as an error; callers decide the fallback.
package selector

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"go.uber.org/zap"
)

// DefaultTimeout is the per-locator wait.
const DefaultTimeout = 3 * time.Second

// Strategy is a named, ordered list of locators for one discovery context.
type Strategy struct {
	Name     string
	Locators []browser.Locator
}

// NewStrategy builds a Strategy.
func NewStrategy(name string, locators ...browser.Locator) Strategy {
	return Strategy{Name: name, Locators: locators}
}

// Then returns a strategy trying s first and then the locators of next.
func (s Strategy) Then(next Strategy) Strategy {
	locs := make([]browser.Locator, 0, len(s.Locators)+len(next.Locators))
	locs = append(locs, s.Locators...)
	locs = append(locs, next.Locators...)
	return Strategy{Name: s.Name, Locators: locs}
}

// Result reports the outcome of a resolution.
type Result struct {
	Found   bool
	Handle  browser.Handle   // first usable element
	Handles []browser.Handle // every usable element of the winning locator (ResolveAll)
	Element browser.Element  // description of Handle
	Index   int              // position of the winning locator, -1 when not found
	Locator browser.Locator
}

// NotFound is the zero-match result.
var NotFound = Result{Index: -1}

// Resolver evaluates strategies against a browser.Driver.
type Resolver struct {
	driver   browser.Driver
	timeout  time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-locator wait. Zero means a single probe per locator.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithInterval sets the poll interval inside a locator wait.
func WithInterval(d time.Duration) Option {
	return func(r *Resolver) { r.interval = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// New builds a Resolver over d.
func New(d browser.Driver, opts ...Option) *Resolver {
	r := &Resolver{
		driver:   d,
		timeout:  DefaultTimeout,
		interval: browser.DefaultPollInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Probe returns a copy of the resolver that does not wait.
func (r *Resolver) Probe() *Resolver {
	cp := *r
	cp.timeout = 0
	return &cp
}

// Driver returns the underlying driver.
func (r *Resolver) Driver() browser.Driver {
	return r.driver
}

// Resolve returns the first visible and enabled element, trying locators strictly in order.
func (r *Resolver) Resolve(ctx context.Context, s Strategy) Result {
	return r.resolve(ctx, s, nil, false)
}

// ResolveFunc is Resolve with an extra acceptance predicate on the element description.
func (r *Resolver) ResolveFunc(ctx context.Context, s Strategy, accept func(browser.Element) bool) Result {
	return r.resolve(ctx, s, accept, false)
}

// ResolveAll returns every usable element of the first locator that yields any.
func (r *Resolver) ResolveAll(ctx context.Context, s Strategy) Result {
	return r.resolve(ctx, s, nil, true)
}

// Exists reports whether the strategy resolves.
func (r *Resolver) Exists(ctx context.Context, s Strategy) bool {
	return r.Resolve(ctx, s).Found
}

func (r *Resolver) resolve(ctx context.Context, s Strategy, accept func(browser.Element) bool, all bool) Result {
	for i, loc := range s.Locators {
		if ctx.Err() != nil {
			return NotFound
		}

		var hits []browser.Handle
		var first browser.Element
		ok := browser.Wait(ctx, func(ctx context.Context) bool {
			hits, first = r.usable(ctx, loc, accept, all)
			return len(hits) > 0
		}, r.timeout, r.interval)
		if !ok {
			continue
		}

		r.logger.Debug("locator matched",
			zap.String("strategy", s.Name),
			zap.Int("index", i),
			zap.Stringer("locator", loc),
			zap.Int("matches", len(hits)))
		return Result{
			Found:   true,
			Handle:  hits[0],
			Handles: hits,
			Element: first,
			Index:   i,
			Locator: loc,
		}
	}

	r.logger.Debug("strategy not found", zap.String("strategy", s.Name))
	return NotFound
}

// usable queries loc and keeps visible, enabled elements that pass the text filter and
// accept. It stops at the first hit unless all is set.
func (r *Resolver) usable(ctx context.Context, loc browser.Locator, accept func(browser.Element) bool, all bool) ([]browser.Handle, browser.Element) {
	handles, err := r.driver.QueryAll(ctx, loc)
	if err != nil {
		if !errors.Is(err, browser.ErrUnsupportedLocator) {
			r.logger.Debug("locator query failed", zap.Stringer("locator", loc), zap.Error(err))
		}
		return nil, browser.Element{}
	}

	var hits []browser.Handle
	var first browser.Element
	for _, h := range handles {
		st, err := r.driver.State(ctx, h)
		if err != nil || !st.Visible || !st.Enabled {
			continue
		}
		var el browser.Element
		if loc.Text != "" || accept != nil || len(hits) == 0 {
			el, err = r.driver.Describe(ctx, h)
			if err != nil {
				continue
			}
		}
		if loc.Text != "" && !el.Matches(loc.Text) {
			continue
		}
		if accept != nil && !accept(el) {
			continue
		}
		if len(hits) == 0 {
			first = el
		}
		hits = append(hits, h)
		if !all {
			break
		}
	}
	return hits, first
}
