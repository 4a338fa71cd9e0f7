package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionMapRoundTrip_Daily(t *testing.T) {
	def, err := NewJobDefinition("backup", ScheduleDaily, PriorityHigh,
		map[string]any{"host": "r1"},
		WithID("daily-1"), WithName("nightly"), WithDailyTime(2, 30))
	require.NoError(t, err)

	back, err := DefinitionFromMap(def.ToMap())
	require.NoError(t, err)
	assert.Equal(t, def, back)
}

func TestDefinitionMapRoundTrip_OneTime(t *testing.T) {
	when := time.Date(2026, 12, 25, 6, 0, 0, 0, time.UTC)
	def, err := NewJobDefinition("backup", ScheduleOneTime, PriorityNormal, nil,
		WithID("xmas"), WithScheduleTime(when))
	require.NoError(t, err)

	back, err := DefinitionFromMap(def.ToMap())
	require.NoError(t, err)
	assert.True(t, back.ScheduleTime.Equal(when))
	assert.Equal(t, def.ID, back.ID)
	assert.Equal(t, def.JobType, back.JobType)
}

func TestDefinitionMapRoundTrip_CronAndWeekly(t *testing.T) {
	cron, err := NewJobDefinition("command_execution", ScheduleCron, PriorityLow,
		map[string]any{"command": "show version"},
		WithID("cron-1"), WithCronExpression("*/5 * * * *"))
	require.NoError(t, err)
	back, err := DefinitionFromMap(cron.ToMap())
	require.NoError(t, err)
	assert.Equal(t, cron, back)

	weekly, err := NewJobDefinition("backup", ScheduleWeekly, PriorityNormal, nil,
		WithID("weekly-1"), WithDailyTime(4, 15), WithDayOfWeek(6))
	require.NoError(t, err)
	back, err = DefinitionFromMap(weekly.ToMap())
	require.NoError(t, err)
	assert.Equal(t, weekly, back)
}

func TestDefinitionFromMap_RejectsInvalidSnapshot(t *testing.T) {
	_, err := DefinitionFromMap(map[string]any{
		"job_type":      "backup",
		"schedule_type": "ONE_TIME",
	})
	assert.Error(t, err)
}
