package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPollSpec(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		interval time.Duration
		expected int
	}{
		{name: "exact division", timeout: 300 * time.Second, interval: 5 * time.Second, expected: 60},
		{name: "rounds up", timeout: 10 * time.Second, interval: 3 * time.Second, expected: 4},
		{name: "zero timeout still polls once", timeout: 0, interval: time.Second, expected: 1},
		{name: "timeout below interval", timeout: time.Second, interval: 5 * time.Second, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := NewPollSpec(tt.timeout, tt.interval)
			assert.Equal(t, tt.expected, spec.MaxAttempts)
		})
	}
}

func TestAwaitReadyOnFirstAttempt(t *testing.T) {
	evaluations := 0
	result := Await(context.Background(), func(context.Context) bool {
		evaluations++
		return true
	}, PollSpec{Interval: time.Hour, MaxAttempts: 10})

	assert.Equal(t, Ready, result)
	assert.Equal(t, 1, evaluations)
}

func TestAwaitTimesOutAfterExactlyMaxAttempts(t *testing.T) {
	evaluations := 0
	spec := PollSpec{Interval: time.Microsecond, MaxAttempts: 60}

	result := Await(context.Background(), func(context.Context) bool {
		evaluations++
		return false
	}, spec)

	assert.Equal(t, TimedOut, result)
	assert.Equal(t, 60, evaluations)
}

func TestAwaitBecomesReadyMidway(t *testing.T) {
	evaluations := 0
	result := Await(context.Background(), func(context.Context) bool {
		evaluations++
		return evaluations == 3
	}, PollSpec{Interval: time.Microsecond, MaxAttempts: 10})

	assert.Equal(t, Ready, result)
	assert.Equal(t, 3, evaluations)
}

func TestAwaitStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	evaluations := 0
	result := Await(ctx, func(context.Context) bool {
		evaluations++
		return false
	}, PollSpec{Interval: time.Hour, MaxAttempts: 10})

	assert.Equal(t, TimedOut, result)
	assert.Equal(t, 1, evaluations)
}

func TestPollResultString(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "timed out", TimedOut.String())
}
