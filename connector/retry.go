package connector

import (
	"context"
	"time"
)

// retry calls fn until it succeeds, the attempts run out or ctx is done.
// The delay starts at BaseDelay (one second when unset) and is multiplied
// by Backoff (2 when unset) after each failure, capped at MaxDelay.
func retry(ctx context.Context, opts *RetryConfig, fn func(context.Context) error) error {
	delay := opts.BaseDelay
	if delay == 0 {
		delay = time.Second
	}
	backoff := opts.Backoff
	if backoff == 0 {
		backoff = 2
	}

	var err error
	for i := 0; i < opts.MaxRetries; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if i == opts.MaxRetries-1 {
			break
		}

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
			delay = time.Duration(float64(delay) * backoff)
			if delay > opts.MaxDelay && opts.MaxDelay > 0 {
				delay = opts.MaxDelay
			}
		}
	}
	return err
}
