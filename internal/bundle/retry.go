package bundle

import (
	"context"
	"time"
)

// withRetry runs fn until it succeeds or maxRetries retries have failed, sleeping a fixed delay
// between attempts. It returns the number of attempts made.
func withRetry(ctx context.Context, maxRetries int, delay time.Duration, fn func(ctx context.Context, attempt int) error) (int, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx, attempt)
		if err == nil {
			return attempt, nil
		}
		if attempt > maxRetries {
			return attempt, err
		}

		if delay <= 0 {
			if ctx.Err() != nil {
				return attempt, ctx.Err()
			}
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
}
