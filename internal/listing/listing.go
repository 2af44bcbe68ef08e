// Package listing builds job search URLs and discovers postings on search result pages.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/selector"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// Search filters applied to every query.
const (
	searchPath      = "/jobs/search/"
	filterEasyApply = "true"   // f_AL
	filterLevels    = "2,3"    // f_E: entry level and associate
	filterPosted    = "r86400" // f_TPR: last 24 hours
)

// SearchURL builds the search results URL for one keyword.
func SearchURL(base, keyword, location string) string {
	q := url.Values{}
	q.Set("keywords", keyword)
	if location != "" {
		q.Set("location", location)
	}
	q.Set("f_AL", filterEasyApply)
	q.Set("f_E", filterLevels)
	q.Set("f_TPR", filterPosted)
	return strings.TrimRight(base, "/") + searchPath + "?" + q.Encode()
}

// Discoverer collects postings from a search results page.
type Discoverer struct {
	resolver *selector.Resolver
	base     string
	targets  []string
	limit    int
	logger   *zap.Logger
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithTargetRoles keeps only titles containing one of roles. Empty keeps every title.
func WithTargetRoles(roles []string) Option {
	return func(d *Discoverer) {
		d.targets = d.targets[:0]
		for _, r := range roles {
			if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
				d.targets = append(d.targets, r)
			}
		}
	}
}

// WithLimit caps the postings returned per keyword. Zero means no cap.
func WithLimit(n int) Option {
	return func(d *Discoverer) { d.limit = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Discoverer) { d.logger = l }
}

// New builds a Discoverer resolving links against base.
func New(r *selector.Resolver, base string, opts ...Option) *Discoverer {
	d := &Discoverer{resolver: r, base: base, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover opens the search page for keyword and returns the matching postings in page order.
// A page without any job link yields an empty list, not an error.
func (d *Discoverer) Discover(ctx context.Context, keyword, location string) ([]types.JobPosting, error) {
	target := SearchURL(d.base, keyword, location)
	if err := d.resolver.Driver().Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to open search for %q: %w", keyword, err)
	}

	res := d.resolver.ResolveAll(ctx, selector.JobLinks)
	if !res.Found {
		d.logger.Info("no job links, scrolling and rescanning", zap.String("keyword", keyword))
		if err := d.resolver.Driver().ScrollToBottom(ctx); err != nil {
			d.logger.Debug("scroll failed", zap.Error(err))
		}
		res = d.resolver.ResolveAll(ctx, selector.JobLinksFallback)
	}
	if !res.Found {
		return nil, nil
	}

	jobs := d.collect(ctx, res.Handles)
	d.logger.Info("jobs discovered",
		zap.String("keyword", keyword),
		zap.Int("links", len(res.Handles)),
		zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func (d *Discoverer) collect(ctx context.Context, handles []browser.Handle) []types.JobPosting {
	seen := map[string]bool{}
	var jobs []types.JobPosting
	for _, h := range handles {
		if d.limit > 0 && len(jobs) >= d.limit {
			break
		}
		el, err := d.resolver.Driver().Describe(ctx, h)
		if err != nil {
			continue
		}
		title := Title(el)
		link := d.canonical(el.Attr("href"))
		if title == "" || link == "" || seen[link] {
			continue
		}
		if !d.Wanted(title) {
			d.logger.Debug("title filtered", zap.String("title", title))
			continue
		}
		seen[link] = true
		jobs = append(jobs, types.JobPosting{Title: title, URL: link})
	}
	return jobs
}

// Wanted reports whether a title matches one of the target roles.
func (d *Discoverer) Wanted(title string) bool {
	if len(d.targets) == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, t := range d.targets {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Title is the first non-empty line of the link caption.
func Title(el browser.Element) string {
	for _, line := range strings.Split(el.Caption(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// canonical resolves href against the base and drops tracking query and fragment.
func (d *Discoverer) canonical(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base, err := url.Parse(d.base); err == nil && !ref.IsAbs() {
		ref = base.ResolveReference(ref)
	}
	ref.RawQuery = ""
	ref.Fragment = ""
	return ref.String()
}
