// Package pacing spaces out browser actions with a jittered minimum interval.
package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jonathan/apply-agent/internal/config"
	"golang.org/x/time/rate"
)

// Pacer enforces at least Min between consecutive Wait calls and adds a random delay of
// up to Max-Min on top. A zero Pacer never waits.
type Pacer struct {
	min, max time.Duration
	limiter  *rate.Limiter
	jitter   func() float64
}

// New returns a pacer for [min, max]. max below min is raised to min.
func New(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	p := &Pacer{min: min, max: max, jitter: rand.Float64}
	if min > 0 {
		p.limiter = rate.NewLimiter(rate.Every(min), 1)
	}
	return p
}

// Bounds returns the configured interval.
func (p *Pacer) Bounds() (time.Duration, time.Duration) {
	return p.min, p.max
}

// Wait blocks until the next action may run. It returns early with ctx's error.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.max <= 0 {
		return ctx.Err()
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	extra := time.Duration(p.jitter() * float64(p.max-p.min))
	return Sleep(ctx, extra)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy groups the pacers used around state transitions, between jobs and between keywords.
type Policy struct {
	Action  *Pacer
	Job     *Pacer
	Keyword *Pacer
}

// NewPolicy builds a policy from configuration.
func NewPolicy(c config.PacingConfig) Policy {
	return Policy{
		Action:  New(c.ActionMin, c.ActionMax),
		Job:     New(c.JobMin, c.JobMax),
		Keyword: New(c.KeywordMin, c.KeywordMax),
	}
}

// None is a policy that never waits.
func None() Policy {
	return Policy{Action: New(0, 0), Job: New(0, 0), Keyword: New(0, 0)}
}
