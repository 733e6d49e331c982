package qsim

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
)

// RetryPolicy defines retry behavior for sampling batches
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	Filter      func(error) bool
}

// RetryStrategy defines the interface for retry behavior
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy
type ExponentialBackoff struct {
	Initial time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
}

// schedulingRetry only retries batches no worker picked up in time. Batches are
// seeded by index, so a retried batch draws the same shots.
func schedulingRetry(attempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: attempts,
		Strategy:    &ExponentialBackoff{Initial: 50 * time.Millisecond},
		Filter: func(err error) bool {
			return errors.Is(err, ErrNoAvailableWorkers)
		},
	}
}

// Retryable reports whether err, returned by the given 1-based attempt, earns another try.
func (rp *RetryPolicy) Retryable(attempt int, err error) bool {
	if rp == nil || err == nil || attempt >= rp.MaxAttempts {
		return false
	}
	return rp.Filter == nil || rp.Filter(err)
}

// Wait sleeps for the backoff after attempt, or until ctx is done.
func (rp *RetryPolicy) Wait(ctx context.Context, attempt int) error {
	if rp.Strategy == nil {
		return ctx.Err()
	}

	timer := time.NewTimer(rp.Strategy.NextDelay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithRetry replaces the retry policy for sampling batches.
func WithRetry(attempts int, strategy RetryStrategy) SimulatorOption {
	return func(s *Simulator) {
		s.retry = schedulingRetry(attempts)
		s.retry.Strategy = strategy
	}
}
