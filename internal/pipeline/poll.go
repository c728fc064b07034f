package pipeline

import (
	"context"
	"time"
)

// PollSpec bounds a readiness poll. MaxAttempts always equals
// ceil(Timeout/Interval); polling never exceeds it.
type PollSpec struct {
	Timeout     time.Duration
	Interval    time.Duration
	MaxAttempts int
}

// NewPollSpec derives a PollSpec from a timeout and interval.
func NewPollSpec(timeout, interval time.Duration) PollSpec {
	if interval <= 0 {
		interval = time.Second
	}
	attempts := int((timeout + interval - 1) / interval)
	if attempts < 1 {
		attempts = 1
	}
	return PollSpec{Timeout: timeout, Interval: interval, MaxAttempts: attempts}
}

// PollResult is the outcome of an Await call. TimedOut is a value rather
// than an error because callers disagree on what a timeout means.
type PollResult int

const (
	// Ready means the predicate became true within the bound.
	Ready PollResult = iota
	// TimedOut means the predicate stayed false for all attempts.
	TimedOut
)

// String renders the result for logs.
func (r PollResult) String() string {
	if r == Ready {
		return "ready"
	}
	return "timed out"
}

// Await evaluates the predicate until it reports true or the attempt bound
// is exhausted, sleeping Interval between attempts. The predicate is never
// evaluated more than spec.MaxAttempts times. Context cancellation ends the
// wait early with TimedOut; callers observing ctx.Err() abort the pipeline.
func Await(ctx context.Context, predicate func(ctx context.Context) bool, spec PollSpec) PollResult {
	attempts := spec.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		if predicate(ctx) {
			return Ready
		}
		if attempt >= attempts {
			return TimedOut
		}
		select {
		case <-ctx.Done():
			return TimedOut
		case <-time.After(spec.Interval):
		}
	}
}
