// Package session logs in to the job board and clears cookie banners.
package session

import (
	"context"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/browser"
	"github.com/jonathan/apply-agent/internal/pacing"
	"github.com/jonathan/apply-agent/internal/selector"
	"go.uber.org/zap"
)

// DefaultVerifyTimeout bounds the wait for a logged-in page after submitting the form.
const DefaultVerifyTimeout = 15 * time.Second

// Session drives the login form of one browsing session.
type Session struct {
	resolver *selector.Resolver
	base     string
	pacer    *pacing.Pacer
	verify   time.Duration
	logger   *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithPacer spaces out the login steps.
func WithPacer(p *pacing.Pacer) Option {
	return func(s *Session) { s.pacer = p }
}

// WithVerifyTimeout sets how long to wait for the logged-in page.
func WithVerifyTimeout(d time.Duration) Option {
	return func(s *Session) { s.verify = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New builds a Session for the job board at base.
func New(r *selector.Resolver, base string, opts ...Option) *Session {
	s := &Session{
		resolver: r,
		base:     strings.TrimRight(base, "/"),
		verify:   DefaultVerifyTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginURL is the login page of the board.
func (s *Session) LoginURL() string {
	return s.base + "/login"
}

// Login submits the login form and verifies the result. Any failure is an AuthenticationError.
func (s *Session) Login(ctx context.Context, c Credentials) error {
	if c.Username == "" || c.Password == "" {
		return &AuthenticationError{Message: "credentials are incomplete"}
	}

	d := s.resolver.Driver()
	s.logger.Info("opening login page")
	if err := d.Navigate(ctx, s.LoginURL()); err != nil {
		return &AuthenticationError{Message: "login page unreachable", Cause: err}
	}

	if err := s.enter(ctx, selector.LoginUsername, c.Username); err != nil {
		return err
	}
	if err := s.enter(ctx, selector.LoginPassword, c.Password); err != nil {
		return err
	}

	submit := s.resolver.Resolve(ctx, selector.LoginSubmit)
	if !submit.Found {
		return &AuthenticationError{Message: "login button not found"}
	}
	if err := d.Act(ctx, submit.Handle, browser.Click()); err != nil {
		return &AuthenticationError{Message: "login button not clickable", Cause: err}
	}

	ok := browser.Wait(ctx, s.LoggedIn, s.verify, browser.DefaultPollInterval)
	if !ok {
		return &AuthenticationError{Message: "login verification failed, check credentials"}
	}
	s.logger.Info("logged in", zap.String("username", c.Username))
	return s.pause(ctx)
}

// LoggedIn reports whether the current page belongs to an authenticated session: the URL
// has left the login page or a member-only marker is present.
func (s *Session) LoggedIn(ctx context.Context) bool {
	u, err := s.resolver.Driver().CurrentURL(ctx)
	if err == nil && u != "" && !strings.Contains(strings.ToLower(u), "login") {
		return true
	}
	return s.resolver.Probe().Exists(ctx, selector.LoggedIn)
}

func (s *Session) enter(ctx context.Context, st selector.Strategy, value string) error {
	res := s.resolver.Resolve(ctx, st)
	if !res.Found {
		return &AuthenticationError{Message: st.Name + " field not found"}
	}
	d := s.resolver.Driver()
	if err := d.Act(ctx, res.Handle, browser.Clear()); err != nil {
		return &AuthenticationError{Message: st.Name + " field not writable", Cause: err}
	}
	if err := d.Act(ctx, res.Handle, browser.Type(value)); err != nil {
		return &AuthenticationError{Message: st.Name + " field not writable", Cause: err}
	}
	return s.pause(ctx)
}

func (s *Session) pause(ctx context.Context) error {
	if err := s.pacer.Wait(ctx); err != nil {
		return &AuthenticationError{Message: "interrupted", Cause: err}
	}
	return nil
}

// DismissCookies clicks a cookie banner accept control if one is present.
func DismissCookies(ctx context.Context, r *selector.Resolver, logger *zap.Logger) bool {
	res := r.Probe().Resolve(ctx, selector.CookieConsent)
	if !res.Found {
		return false
	}
	if err := r.Driver().Act(ctx, res.Handle, browser.Click()); err != nil {
		logger.Debug("cookie banner click failed", zap.Error(err))
		return false
	}
	logger.Debug("cookie banner dismissed", zap.Stringer("locator", res.Locator))
	return true
}
