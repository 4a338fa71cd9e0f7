package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCron_RejectsWrongFieldCount(t *testing.T) {
	_, err := ParseCron("* * * *")
	assert.Error(t, err)
}

func TestParseCron_StarEveryMinute(t *testing.T) {
	sched, err := ParseCron("* * * * *")
	require.NoError(t, err)
	from := time.Date(2026, 3, 5, 9, 0, 30, 0, time.UTC)
	next, err := sched.Next(from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 5, 9, 1, 0, 0, time.UTC), next)
}

func TestParseCron_StepAndRange(t *testing.T) {
	sched, err := ParseCron("*/15 9-11 * * *")
	require.NoError(t, err)
	from := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	next, err := sched.Next(from)
	require.NoError(t, err)
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 15, next.Minute())
}

func TestParseCron_DayOfWeekZeroAndSevenBothMatchSunday(t *testing.T) {
	sched7, err := ParseCron("0 0 * * 7")
	require.NoError(t, err)
	sched0, err := ParseCron("0 0 * * 0")
	require.NoError(t, err)

	from := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC) // Thursday
	next7, err := sched7.Next(from)
	require.NoError(t, err)
	next0, err := sched0.Next(from)
	require.NoError(t, err)

	assert.Equal(t, time.Sunday, next7.Weekday())
	assert.Equal(t, next0, next7)
}

func TestParseCron_ListOfValues(t *testing.T) {
	sched, err := ParseCron("0 0,12 * * *")
	require.NoError(t, err)
	from := time.Date(2026, 3, 5, 1, 0, 0, 0, time.UTC)
	next, err := sched.Next(from)
	require.NoError(t, err)
	assert.Equal(t, 12, next.Hour())
	assert.Equal(t, 0, next.Minute())
}

func TestParseCron_InvalidValueOutOfRange(t *testing.T) {
	_, err := ParseCron("99 * * * *")
	assert.Error(t, err)
}

func TestNextCronRun_ConvenienceWrapper(t *testing.T) {
	from := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	next, err := NextCronRun("0 10 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, 10, next.Hour())
	assert.True(t, next.After(from))
}
