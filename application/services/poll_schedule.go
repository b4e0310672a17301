package services

import (
	"context"
	"time"
)

// PollSchedule bounds a polling loop against a long-running vendor task:
// fixed (optionally front-loaded) intervals and a hard attempt cap.
type PollSchedule struct {
	// Interval between polls after the early window.
	Interval time.Duration
	// EarlyInterval applies to the first EarlyAttempts polls. Zero means no
	// early window.
	EarlyInterval time.Duration
	EarlyAttempts int
	// MaxAttempts is the hard cap; the loop raises a timeout once reached.
	MaxAttempts int
	// LogEvery bounds log volume: progress is logged on every LogEvery-th
	// poll, and always on terminal transitions.
	LogEvery int
}

// Delay returns the wait before poll number attempt (zero-based).
func (s PollSchedule) Delay(attempt int) time.Duration {
	if s.EarlyInterval > 0 && attempt < s.EarlyAttempts {
		return s.EarlyInterval
	}
	return s.Interval
}

// ShouldLog reports whether poll number attempt (zero-based) is on the
// logging cadence.
func (s PollSchedule) ShouldLog(attempt int) bool {
	if s.LogEvery <= 1 {
		return true
	}
	return attempt%s.LogEvery == 0
}

// Budget is the approximate total wall-clock ceiling of the loop.
func (s PollSchedule) Budget() time.Duration {
	var total time.Duration
	for i := 0; i < s.MaxAttempts; i++ {
		total += s.Delay(i)
	}
	return total
}

// waitNext sleeps one poll interval without blocking other scenes' runs,
// honoring cancellation.
func waitNext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
