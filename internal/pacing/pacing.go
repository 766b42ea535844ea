package pacing

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Pacer blocks until the next provider request may be sent.
type Pacer interface {
	Wait(ctx context.Context) error
}

// SleepFunc sleeps for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the wall-clock SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IntervalPacer spaces consecutive requests by a random interval drawn from [min, max].
// Call Wait before every request: the first call returns at once and each later call
// blocks until at least min has passed since the previous one returned.
type IntervalPacer struct {
	limiter *rate.Limiter
	min     time.Duration
	jitter  time.Duration
	rnd     func(n int64) int64
}

// NewIntervalPacer creates a pacer spacing requests between min and max apart
func NewIntervalPacer(min, max time.Duration) *IntervalPacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &IntervalPacer{
		limiter: rate.NewLimiter(every(min), 1),
		min:     min,
		jitter:  max - min,
		rnd:     rand.Int64N,
	}
}

// Wait implements Pacer
func (p *IntervalPacer) Wait(ctx context.Context) error {
	if p.jitter > 0 {
		// re-arm for the gap after the previous request
		d := p.min + time.Duration(p.rnd(int64(p.jitter)+1))
		p.limiter.SetLimit(every(d))
	}
	return p.limiter.Wait(ctx)
}

func every(d time.Duration) rate.Limit {
	if d <= 0 {
		return rate.Inf
	}
	return rate.Every(d)
}

type none struct{}

func (none) Wait(ctx context.Context) error { return ctx.Err() }

// None is a Pacer that never delays
var None Pacer = none{}
