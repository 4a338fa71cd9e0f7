package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNextRun_Immediate(t *testing.T) {
	def := JobDefinition{ScheduleType: ScheduleImmediate}
	now := time.Now()
	next, err := ComputeNextRun(def, now)
	require.NoError(t, err)
	assert.Equal(t, now, next)
}

func TestComputeNextRun_DailyAtExactTargetMinuteRollsToTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	def := JobDefinition{ScheduleType: ScheduleDaily, Hour: 9, Minute: 0}
	next, err := ComputeNextRun(def, now)
	require.NoError(t, err)
	assert.True(t, next.After(now), "next_run must be strictly after now")
	assert.Equal(t, 6, next.Day())
}

func TestComputeNextRun_DailyLaterToday(t *testing.T) {
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	def := JobDefinition{ScheduleType: ScheduleDaily, Hour: 14, Minute: 30}
	next, err := ComputeNextRun(def, now)
	require.NoError(t, err)
	assert.Equal(t, 5, next.Day())
	assert.Equal(t, 14, next.Hour())
}

func TestComputeNextRun_WeeklyNextOccurrence(t *testing.T) {
	// 2026-03-05 is a Thursday (weekday index 3, Monday=0).
	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	def := JobDefinition{ScheduleType: ScheduleWeekly, DayOfWeek: 0, Hour: 8, Minute: 0}
	next, err := ComputeNextRun(def, now)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, next.Weekday())
	assert.True(t, next.After(now))
}

func TestComputeNextRun_MonthlyClampsToLastDayOfFebruary(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	def := JobDefinition{ScheduleType: ScheduleMonthly, DayOfMonth: 31, Hour: 0, Minute: 0}
	next, err := ComputeNextRun(def, now)
	require.NoError(t, err)
	assert.Equal(t, time.February, next.Month())
	assert.Equal(t, 28, next.Day())
}

func TestComputeNextRun_YearlyRollsYearWhenPast(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	def := JobDefinition{ScheduleType: ScheduleYearly, Month: 1, Day: 1, Hour: 0, Minute: 0}
	next, err := ComputeNextRun(def, now)
	require.NoError(t, err)
	assert.Equal(t, 2027, next.Year())
}

func TestComputeNextRun_OneTimeReturnsScheduleTimeVerbatim(t *testing.T) {
	when := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	def := JobDefinition{ScheduleType: ScheduleOneTime, ScheduleTime: when}
	next, err := ComputeNextRun(def, time.Now())
	require.NoError(t, err)
	assert.Equal(t, when, next)
}
