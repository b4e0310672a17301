package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollScheduleDelay(t *testing.T) {
	sched := PollSchedule{
		Interval:      15 * time.Second,
		EarlyInterval: 10 * time.Second,
		EarlyAttempts: 12,
		MaxAttempts:   60,
	}

	assert.Equal(t, 10*time.Second, sched.Delay(0))
	assert.Equal(t, 10*time.Second, sched.Delay(11))
	assert.Equal(t, 15*time.Second, sched.Delay(12))
	assert.Equal(t, 15*time.Second, sched.Delay(59))
}

func TestPollScheduleDelayWithoutEarlyWindow(t *testing.T) {
	sched := PollSchedule{Interval: 25 * time.Second, MaxAttempts: 40}
	assert.Equal(t, 25*time.Second, sched.Delay(0))
	assert.Equal(t, 25*time.Second, sched.Delay(39))
}

func TestPollScheduleShouldLog(t *testing.T) {
	sched := PollSchedule{LogEvery: 4}
	logged := 0
	for attempt := 0; attempt < 40; attempt++ {
		if sched.ShouldLog(attempt) {
			logged++
		}
	}
	assert.Equal(t, 10, logged)
	assert.True(t, sched.ShouldLog(0))
	assert.False(t, sched.ShouldLog(1))
	assert.True(t, sched.ShouldLog(4))

	// LogEvery of zero or one means every poll.
	assert.True(t, PollSchedule{}.ShouldLog(7))
	assert.True(t, PollSchedule{LogEvery: 1}.ShouldLog(7))
}

func TestPollScheduleBudget(t *testing.T) {
	// The production lip-sync schedule: 12 early polls at 10s, 48 at 15s.
	sched := PollSchedule{
		Interval:      15 * time.Second,
		EarlyInterval: 10 * time.Second,
		EarlyAttempts: 12,
		MaxAttempts:   60,
	}
	assert.Equal(t, 14*time.Minute, sched.Budget())

	video := PollSchedule{Interval: 25 * time.Second, MaxAttempts: 40}
	assert.Equal(t, 1000*time.Second, video.Budget())
}

func TestWaitNextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitNext(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, waitNext(context.Background(), time.Millisecond))
}
