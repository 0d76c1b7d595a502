// Package retry provides exponential backoff for operations that may fail
// transiently, such as reaching the database while it is still starting.
//
// Comment submission is never retried here: a retried insert would store
// the comment twice.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Strategy defines the retry behavior configuration.
// It implements exponential backoff with configurable parameters.
//
// The retry schedule follows: delay = min(BaseDelay * ExponentialBase^attempt, MaxDelay)
//
// Example with defaults (500ms base, 2.0 exponential, 10s max):
//
//	Attempt 1: 1s
//	Attempt 2: 2s
//	Attempt 3: 4s
//	Attempt 4: 8s
type Strategy struct {
	MaxAttempts     int           // Total attempts, the first one included
	BaseDelay       time.Duration // Initial retry delay
	MaxDelay        time.Duration // Maximum retry delay cap
	ExponentialBase float64       // Backoff multiplier (e.g., 2.0 for doubling)
}

// DefaultStrategy returns the strategy used for startup connectivity checks.
// Configuration: 6 attempts, 500ms→10s exponential backoff.
func DefaultStrategy() Strategy {
	return Strategy{
		MaxAttempts:     6,
		BaseDelay:       500 * time.Millisecond,
		MaxDelay:        10 * time.Second,
		ExponentialBase: 2.0,
	}
}

// CalculateRetryDelay calculates the delay before attempt attemptNumber+1.
// Formula: delay = min(BaseDelay * ExponentialBase^attemptNumber, MaxDelay)
func (s Strategy) CalculateRetryDelay(attemptNumber int) time.Duration {
	if attemptNumber <= 0 {
		return s.BaseDelay
	}

	delay := float64(s.BaseDelay) * math.Pow(s.ExponentialBase, float64(attemptNumber))

	if delay > float64(s.MaxDelay) {
		return s.MaxDelay
	}

	return time.Duration(delay)
}

// IsRetryable checks if another attempt is allowed after attemptCount attempts.
func (s Strategy) IsRetryable(attemptCount int) bool {
	return attemptCount < s.MaxAttempts
}

// GetRetrySchedule returns a human-readable description of the retry schedule.
//
// Example output:
//
//	Retry Schedule:
//	  Attempt 1: immediately
//	  Attempt 2: after 1s
//	  ...
func (s Strategy) GetRetrySchedule() string {
	schedule := "Retry Schedule:\n"
	for i := 1; i <= s.MaxAttempts; i++ {
		if i == 1 {
			schedule += "  Attempt 1: immediately\n"
			continue
		}
		schedule += fmt.Sprintf("  Attempt %d: after %v\n", i, s.CalculateRetryDelay(i-1))
	}
	return schedule
}

// Do calls fn until it succeeds, the attempts are exhausted or ctx is done.
// onRetry, if not nil, is called before each wait with the failed attempt
// number, its error and the upcoming delay. The last error is returned.
func Do(ctx context.Context, s Strategy, fn func(ctx context.Context) error, onRetry func(attempt int, err error, delay time.Duration)) error {
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !s.IsRetryable(attempt) {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		delay := s.CalculateRetryDelay(attempt)
		if onRetry != nil {
			onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry canceled after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}
}
