package humanize

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted is returned by RetryPolicy.Do when no attempt succeeded.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// RetryPolicy runs an operation a bounded number of times with a fixed (linear) delay.
// Attempts are strictly sequential; the next one starts only after the previous returned
// and the delay elapsed.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Sleep       func(time.Duration) // nil means time.Sleep
}

// DefaultPollPolicy is the provider polling policy: 10 attempts, 1000 ms apart.
func DefaultPollPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 10, Delay: 1000 * time.Millisecond}
}

// Do calls fn until it reports done, returns an error, or MaxAttempts is reached.
// attempt is 1-based. It returns the number of attempts made.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) (bool, error)) (int, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}

	for attempt := 1; attempt <= max; attempt++ {
		if attempt > 1 && p.Delay > 0 {
			sleep(p.Delay)
		}
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		done, err := fn(ctx, attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}
	}
	return max, ErrAttemptsExhausted
}
