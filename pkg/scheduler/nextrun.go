package scheduler

import (
	"fmt"
	"time"
)

// ComputeNextRun derives next_run for def relative to from, per schedule
// type:
//
//	IMMEDIATE -> now; ONE_TIME -> schedule_time; DAILY -> today's
//	hour:minute:00, +1 day if already passed; WEEKLY -> next occurrence of
//	day_of_week at hour:minute; MONTHLY -> next month whose day_of_month
//	exists, clamped to the month's last day if day_of_month overflows it;
//	YEARLY -> next month/day hour:minute, rolling the year if past; CRON
//	-> evaluation of cron_expression.
func ComputeNextRun(def JobDefinition, from time.Time) (time.Time, error) {
	switch def.ScheduleType {
	case ScheduleImmediate:
		return from, nil
	case ScheduleOneTime:
		return def.ScheduleTime, nil
	case ScheduleDaily:
		return nextDaily(from, def.Hour, def.Minute), nil
	case ScheduleWeekly:
		return nextWeekly(from, def.DayOfWeek, def.Hour, def.Minute), nil
	case ScheduleMonthly:
		return nextMonthly(from, def.DayOfMonth, def.Hour, def.Minute), nil
	case ScheduleYearly:
		return nextYearly(from, def.Month, def.Day, def.Hour, def.Minute), nil
	case ScheduleCron:
		return NextCronRun(def.CronExpression, from)
	default:
		return time.Time{}, fmt.Errorf("unsupported schedule_type %q", def.ScheduleType)
	}
}

// nextDaily returns today's hour:minute:00 in from's location, rolled to
// tomorrow if that instant is not strictly after from. A schedule created
// at its exact target minute therefore fires tomorrow, not immediately.
func nextDaily(from time.Time, hour, minute int) time.Time {
	candidate := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	if !candidate.After(from) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// nextWeekly returns the next occurrence of dayOfWeek (0=Monday) at
// hour:minute strictly after from.
func nextWeekly(from time.Time, dayOfWeek, hour, minute int) time.Time {
	candidate := time.Date(from.Year(), from.Month(), from.Day(), hour, minute, 0, 0, from.Location())
	currentDow := mondayIndex(candidate.Weekday())
	for {
		if currentDow == dayOfWeek && candidate.After(from) {
			return candidate
		}
		candidate = candidate.AddDate(0, 0, 1)
		currentDow = (currentDow + 1) % 7
	}
}

// mondayIndex converts Go's Sunday=0 weekday numbering to the schedule
// fields' Monday=0 numbering.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// nextMonthly returns the next month whose dayOfMonth at hour:minute is
// strictly after from, clamping to the month's last day when dayOfMonth
// overflows it: day 31 in February fires on the 28th (or 29th).
func nextMonthly(from time.Time, dayOfMonth, hour, minute int) time.Time {
	year, month := from.Year(), from.Month()
	for {
		candidate := clampedMonthly(year, month, dayOfMonth, hour, minute, from.Location())
		if candidate.After(from) {
			return candidate
		}
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
}

func clampedMonthly(year int, month time.Month, dayOfMonth, hour, minute int, loc *time.Location) time.Time {
	lastDay := lastDayOfMonth(year, month)
	day := dayOfMonth
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func lastDayOfMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// nextYearly returns the next month/day at hour:minute strictly after
// from, rolling the year when that date has already passed this year.
func nextYearly(from time.Time, month, day, hour, minute int) time.Time {
	candidate := time.Date(from.Year(), time.Month(month), day, hour, minute, 0, 0, from.Location())
	if !candidate.After(from) {
		candidate = time.Date(from.Year()+1, time.Month(month), day, hour, minute, 0, 0, from.Location())
	}
	return candidate
}
