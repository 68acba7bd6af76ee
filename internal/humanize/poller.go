package humanize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Poller queries a provider job until it yields output or the policy gives up.
type Poller struct {
	provider Provider
	policy   RetryPolicy
	logger   *zap.Logger
}

// NewPoller builds a poller. A nil logger discards logs.
func NewPoller(p Provider, policy RetryPolicy, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{provider: p, policy: policy, logger: logger}
}

// Poll returns the job with its output on success, or ErrTimedOut once every attempt came
// back empty. The first non-empty output ends the loop; no further queries are made.
// A failing query counts as an empty attempt unless it wraps ErrJobFailed.
func (p *Poller) Poll(ctx context.Context, h JobHandle) (Job, error) {
	job := Job{Handle: h, Status: JobPending}

	attempts, err := p.policy.Do(ctx, func(ctx context.Context, attempt int) (bool, error) {
		out, err := p.provider.Document(ctx, h)
		if err != nil {
			if errors.Is(err, ErrJobFailed) {
				return false, err
			}
			p.logger.Debug("poll attempt failed",
				zap.String("job", h.ID), zap.Int("attempt", attempt), zap.Error(err))
			return false, nil
		}
		if out == "" {
			return false, nil
		}
		job.Output = out
		return true, nil
	})
	job.Attempts = attempts

	switch {
	case err == nil:
		job.Status = JobReady
		return job, nil
	case errors.Is(err, ErrAttemptsExhausted):
		job.Status = JobTimedOut
		return job, fmt.Errorf("%w: job %s after %d attempts", ErrTimedOut, h.ID, attempts)
	default:
		return job, err
	}
}
