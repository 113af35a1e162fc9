package sync

import (
	"context"
	"time"

	"github.com/youcash/permission-hub/pkg/ranger"
)

// withRetry runs fn until it succeeds, fails permanently, or the attempt
// budget runs out. Only transient authority errors are retried; anything
// else fails the job on the spot. The delay between attempts is fixed.
// onRetry is called before each wait, with the attempt number just
// failed.
func withRetry(ctx context.Context, attempts int, delay time.Duration, onRetry func(attempt int, err error), fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !ranger.IsTransient(err) || attempt >= attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
