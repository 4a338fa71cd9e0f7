package scheduler

import (
	"fmt"
	"time"
)

// ToMap serializes the definition to a plain map so a persistence
// collaborator can snapshot it and replay it through ScheduleJob on
// startup. Schedule-specific fields are emitted only for the schedule
// types that use them; DefinitionFromMap is the inverse.
func (d JobDefinition) ToMap() map[string]any {
	m := map[string]any{
		"id":            d.ID,
		"job_type":      d.JobType,
		"schedule_type": string(d.ScheduleType),
		"priority":      int(d.Priority),
		"parameters":    d.Parameters,
	}
	if d.Name != "" {
		m["name"] = d.Name
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Metadata != nil {
		m["metadata"] = d.Metadata
	}
	switch d.ScheduleType {
	case ScheduleOneTime:
		m["schedule_time"] = d.ScheduleTime.Format(time.RFC3339Nano)
	case ScheduleDaily:
		m["hour"] = d.Hour
		m["minute"] = d.Minute
	case ScheduleWeekly:
		m["hour"] = d.Hour
		m["minute"] = d.Minute
		m["day_of_week"] = d.DayOfWeek
	case ScheduleMonthly:
		m["hour"] = d.Hour
		m["minute"] = d.Minute
		m["day_of_month"] = d.DayOfMonth
	case ScheduleYearly:
		m["hour"] = d.Hour
		m["minute"] = d.Minute
		m["month"] = d.Month
		m["day"] = d.Day
	case ScheduleCron:
		m["cron_expression"] = d.CronExpression
	}
	return m
}

// DefinitionFromMap rebuilds a JobDefinition from a ToMap snapshot,
// re-running NewJobDefinition's schedule-type validation.
func DefinitionFromMap(m map[string]any) (JobDefinition, error) {
	jobType, _ := m["job_type"].(string)
	scheduleType := ScheduleType(stringAt(m, "schedule_type"))
	priority := JobPriority(intAt(m, "priority"))

	params, _ := m["parameters"].(map[string]any)

	var opts []DefinitionOption
	if id := stringAt(m, "id"); id != "" {
		opts = append(opts, WithID(id))
	}
	if name := stringAt(m, "name"); name != "" {
		opts = append(opts, WithName(name))
	}
	if desc := stringAt(m, "description"); desc != "" {
		opts = append(opts, WithDescription(desc))
	}
	if meta, ok := m["metadata"].(map[string]any); ok {
		opts = append(opts, WithMetadata(meta))
	}

	switch scheduleType {
	case ScheduleOneTime:
		raw := stringAt(m, "schedule_time")
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return JobDefinition{}, fmt.Errorf("parsing schedule_time %q: %w", raw, err)
		}
		opts = append(opts, WithScheduleTime(t))
	case ScheduleDaily:
		opts = append(opts, WithDailyTime(intAt(m, "hour"), intAt(m, "minute")))
	case ScheduleWeekly:
		opts = append(opts,
			WithDailyTime(intAt(m, "hour"), intAt(m, "minute")),
			WithDayOfWeek(intAt(m, "day_of_week")))
	case ScheduleMonthly:
		opts = append(opts,
			WithDailyTime(intAt(m, "hour"), intAt(m, "minute")),
			WithDayOfMonth(intAt(m, "day_of_month")))
	case ScheduleYearly:
		opts = append(opts,
			WithDailyTime(intAt(m, "hour"), intAt(m, "minute")),
			WithYearlyDate(intAt(m, "month"), intAt(m, "day")))
	case ScheduleCron:
		opts = append(opts, WithCronExpression(stringAt(m, "cron_expression")))
	}

	return NewJobDefinition(jobType, scheduleType, priority, params, opts...)
}

func stringAt(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// intAt tolerates float64 values so snapshots that round-tripped through
// JSON decode cleanly.
func intAt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
