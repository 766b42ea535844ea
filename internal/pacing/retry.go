package pacing

import (
	"context"
	"time"

	"sjsage522/bilisentiment/pkg/errors"
)

// RetryPolicy retries retryable failures with exponential backoff.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       SleepFunc
}

// NoRetry runs an operation exactly once
var NoRetry = RetryPolicy{MaxAttempts: 1}

// Do runs op until it succeeds, returns a non-retryable error, or MaxAttempts is reached.
// The delay before attempt n (n >= 2) is BaseDelay * 2^(n-2).
func (p RetryPolicy) Do(ctx context.Context, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var err error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if !errors.IsRetryable(err) || attempt == attempts {
			return err
		}
		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
		delay *= 2
	}
	return err
}
