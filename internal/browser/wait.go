package browser

import (
	"context"
	"time"
)

// DefaultPollInterval is used by Wait when interval is not positive.
const DefaultPollInterval = 250 * time.Millisecond

// Wait polls cond until it returns true, timeout elapses or ctx ends. A non-positive
// timeout probes exactly once. It never blocks longer than timeout.
func Wait(ctx context.Context, cond func(context.Context) bool, timeout, interval time.Duration) bool {
	if cond(ctx) {
		return true
	}
	if timeout <= 0 {
		return false
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return cond(ctx)
		case <-ticker.C:
			if cond(ctx) {
				return true
			}
		}
	}
}
