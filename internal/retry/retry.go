// Package retry provides a bounded retry-with-backoff helper shared by the
// stream resolution strategies.
package retry

import (
	"context"
	"time"
)

// Policy describes how often and how patiently an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the delay after the first failed attempt. The delay
	// grows linearly with the attempt number (base, 2*base, 3*base, ...).
	BaseDelay time.Duration
}

// DefaultPolicy matches the resolver's tolerance for transient upstream
// throttling: three attempts with a growing pause between them.
var DefaultPolicy = Policy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
}

// Do runs fn until it succeeds, the policy is exhausted, or ctx is
// cancelled. The last error is returned when every attempt fails.
func Do(ctx context.Context, policy Policy, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := time.Duration(attempt) * policy.BaseDelay
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
