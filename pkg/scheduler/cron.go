package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronField is one parsed field of a 5-field cron expression: either "*"
// (match-any, represented by a nil set) or an explicit set of allowed
// values.
type cronField struct {
	any    bool
	values map[int]struct{}
}

func (f cronField) matches(v int) bool {
	if f.any {
		return true
	}
	_, ok := f.values[v]
	return ok
}

// cronSchedule is a parsed standard 5-field cron expression: minute hour
// day-of-month month day-of-week. Lists ("1,2,3"), ranges ("1-5"), and
// step values ("*/15") are supported; named months/weekdays are not.
type cronSchedule struct {
	minute, hour, dom, month, dow cronField
}

// ParseCron parses a standard 5-field cron expression.
func ParseCron(expr string) (*cronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q must have 5 fields, got %d", expr, len(fields))
	}
	minute, err := parseCronField(fields[0], 0, 59)
	if err != nil {
		return nil, fmt.Errorf("minute field: %w", err)
	}
	hour, err := parseCronField(fields[1], 0, 23)
	if err != nil {
		return nil, fmt.Errorf("hour field: %w", err)
	}
	dom, err := parseCronField(fields[2], 1, 31)
	if err != nil {
		return nil, fmt.Errorf("day-of-month field: %w", err)
	}
	month, err := parseCronField(fields[3], 1, 12)
	if err != nil {
		return nil, fmt.Errorf("month field: %w", err)
	}
	dow, err := parseCronField(fields[4], 0, 7)
	if err != nil {
		return nil, fmt.Errorf("day-of-week field: %w", err)
	}
	return &cronSchedule{minute: minute, hour: hour, dom: dom, month: month, dow: dow}, nil
}

func parseCronField(raw string, min, max int) (cronField, error) {
	if raw == "*" {
		return cronField{any: true}, nil
	}

	values := map[int]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		base := part
		step := 1
		if idx := strings.Index(part, "/"); idx >= 0 {
			base = part[:idx]
			s, err := strconv.Atoi(part[idx+1:])
			if err != nil || s <= 0 {
				return cronField{}, fmt.Errorf("invalid step in %q", part)
			}
			step = s
		}

		lo, hi := min, max
		if base != "*" {
			if dash := strings.Index(base, "-"); dash >= 0 {
				var err error
				lo, err = strconv.Atoi(base[:dash])
				if err != nil {
					return cronField{}, fmt.Errorf("invalid range start in %q", part)
				}
				hi, err = strconv.Atoi(base[dash+1:])
				if err != nil {
					return cronField{}, fmt.Errorf("invalid range end in %q", part)
				}
			} else {
				v, err := strconv.Atoi(base)
				if err != nil {
					return cronField{}, fmt.Errorf("invalid value %q", base)
				}
				lo, hi = v, v
			}
		}
		if lo < min || hi > max || lo > hi {
			return cronField{}, fmt.Errorf("value %q out of range [%d,%d]", part, min, max)
		}
		for v := lo; v <= hi; v += step {
			values[v] = struct{}{}
		}
	}
	return cronField{values: values}, nil
}

// Next returns the first minute-aligned instant strictly after from that
// satisfies every field, searching up to two years ahead before giving
// up (a schedule selecting Feb 30 or similar would otherwise loop
// forever).
func (s *cronSchedule) Next(from time.Time) (time.Time, error) {
	candidate := from.Truncate(time.Minute).Add(time.Minute)
	limit := from.AddDate(2, 0, 0)
	for candidate.Before(limit) {
		dow := int(candidate.Weekday())
		if s.month.matches(int(candidate.Month())) &&
			s.dom.matches(candidate.Day()) &&
			(s.dow.matches(dow) || s.dow.matches(dow+7)) &&
			s.hour.matches(candidate.Hour()) &&
			s.minute.matches(candidate.Minute()) {
			return candidate, nil
		}
		candidate = candidate.Add(time.Minute)
	}
	return time.Time{}, fmt.Errorf("no matching time found within 2 years for this cron expression")
}

// NextCronRun parses expr and evaluates the next run after from in one
// call, for use from ComputeNextRun.
func NextCronRun(expr string, from time.Time) (time.Time, error) {
	sched, err := ParseCron(expr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(from)
}
