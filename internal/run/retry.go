package run

import (
	"context"
	"time"
)

// Retry policy for transient store failures. Retries happen at the
// persistence boundary only; scoring and hashing are pure and are never
// re-entered on failure.
const (
	maxAttempts    = 3
	retryBaseDelay = 100 * time.Millisecond
)

// withRetry runs fn up to maxAttempts times, backing off between attempts.
// Only transient errors are retried; every other error returns immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	delay := retryBaseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) {
			return err
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
