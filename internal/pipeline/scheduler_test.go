package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleAt(t *testing.T) {
	hour, minute, err := parseScheduleAt("06:00")
	require.NoError(t, err)
	assert.Equal(t, 6, hour)
	assert.Equal(t, 0, minute)

	hour, minute, err = parseScheduleAt("23:45")
	require.NoError(t, err)
	assert.Equal(t, 23, hour)
	assert.Equal(t, 45, minute)

	_, _, err = parseScheduleAt("6am")
	assert.Error(t, err)
	_, _, err = parseScheduleAt("")
	assert.Error(t, err)
}

func TestNextRunAtSameDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)
	next := nextRunAt(now, 6, 0)
	assert.Equal(t, time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC), next)
}

func TestNextRunAtRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 7, 15, 0, 0, time.UTC)
	next := nextRunAt(now, 6, 0)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), next)
}

func TestNextRunAtExactScheduleTimeSkipsToNextDay(t *testing.T) {
	// A run firing exactly at the schedule instant must not refire today;
	// that would loop the trigger.
	now := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	next := nextRunAt(now, 6, 0)
	assert.Equal(t, time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC), next)
}

func TestMissedOccurrence(t *testing.T) {
	fired := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

	// Run finished well before the next trigger.
	assert.False(t, missedOccurrence(fired, fired.Add(2*time.Hour)))

	// Run overran past the next day's trigger; that occurrence is skipped.
	assert.True(t, missedOccurrence(fired, fired.Add(25*time.Hour)))

	// Finishing exactly at the next trigger instant also misses it, since
	// the timer for it was never armed.
	assert.True(t, missedOccurrence(fired, fired.AddDate(0, 0, 1)))
}

func TestSchedulerStartRejectsBadSchedule(t *testing.T) {
	runner := newTestRunner(&fakeBatch{}, &fakeHealth{}, &fakeNotifier{}, pipelineConfig())
	s := NewScheduler(runner, "not-a-time", nil)
	assert.Error(t, s.Start(context.Background()))
}

func TestSchedulerStartStop(t *testing.T) {
	runner := newTestRunner(&fakeBatch{}, &fakeHealth{}, &fakeNotifier{}, pipelineConfig())
	s := NewScheduler(runner, "06:00", nil)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
	s.Stop()
}
