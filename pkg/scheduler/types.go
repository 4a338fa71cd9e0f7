// Package scheduler implements the job scheduler core: a
// priority-queued, recurrence-aware job engine with a worker pool,
// pluggable task handlers, and lifecycle logging. Each Job is a state
// machine with an append-only execution history.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobPriority is the ordered priority enumeration. Larger value means
// higher priority.
type JobPriority int

const (
	PriorityCritical JobPriority = 100
	PriorityHigh     JobPriority = 80
	PriorityNormal   JobPriority = 50
	PriorityLow      JobPriority = 30
	PriorityLowest   JobPriority = 10
)

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	StatusQueued    JobStatus = "QUEUED"
	StatusPending   JobStatus = "PENDING"
	StatusRunning   JobStatus = "RUNNING"
	StatusCompleted JobStatus = "COMPLETED"
	StatusFailed    JobStatus = "FAILED"
	StatusCanceled  JobStatus = "CANCELED"
	StatusPaused    JobStatus = "PAUSED"
)

// Terminal reports whether status is one of the three terminal states.
// Once a Job is terminal, only its execution history may grow.
func (s JobStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// ScheduleType selects how a JobDefinition's next_run is computed.
type ScheduleType string

const (
	ScheduleImmediate ScheduleType = "IMMEDIATE"
	ScheduleOneTime   ScheduleType = "ONE_TIME"
	ScheduleDaily     ScheduleType = "DAILY"
	ScheduleWeekly    ScheduleType = "WEEKLY"
	ScheduleMonthly   ScheduleType = "MONTHLY"
	ScheduleYearly    ScheduleType = "YEARLY"
	ScheduleCron      ScheduleType = "CRON"
)

// JobDefinition is the immutable scheduling intent submitted by a
// caller. Build one with NewJobDefinition, which enforces
// schedule-type-specific parameter presence; once built, a JobDefinition
// is never mutated.
type JobDefinition struct {
	ID           string
	Name         string
	Description  string
	JobType      string
	Parameters   map[string]any
	Metadata     map[string]any
	ScheduleType ScheduleType
	Priority     JobPriority

	// ONE_TIME
	ScheduleTime time.Time
	// DAILY, WEEKLY, MONTHLY, YEARLY
	Hour   int
	Minute int
	// WEEKLY: 0=Monday
	DayOfWeek int
	// MONTHLY
	DayOfMonth int
	// YEARLY
	Month int
	Day   int
	// CRON
	CronExpression string
}

// DefinitionOption customizes a JobDefinition beyond its required fields.
type DefinitionOption func(*JobDefinition)

// WithID pins the definition's id instead of leaving it to be assigned on
// schedule.
func WithID(id string) DefinitionOption { return func(d *JobDefinition) { d.ID = id } }

// WithName sets a human-readable name.
func WithName(name string) DefinitionOption { return func(d *JobDefinition) { d.Name = name } }

// WithDescription sets a human-readable description.
func WithDescription(desc string) DefinitionOption {
	return func(d *JobDefinition) { d.Description = desc }
}

// WithMetadata attaches caller-defined metadata, not interpreted by the
// scheduler itself.
func WithMetadata(meta map[string]any) DefinitionOption {
	return func(d *JobDefinition) { d.Metadata = meta }
}

// WithScheduleTime sets the ONE_TIME fire time.
func WithScheduleTime(t time.Time) DefinitionOption {
	return func(d *JobDefinition) { d.ScheduleTime = t }
}

// WithDailyTime sets hour/minute for DAILY (and the time-of-day component
// of WEEKLY/MONTHLY/YEARLY).
func WithDailyTime(hour, minute int) DefinitionOption {
	return func(d *JobDefinition) { d.Hour = hour; d.Minute = minute }
}

// WithDayOfWeek sets the WEEKLY day (0=Monday).
func WithDayOfWeek(day int) DefinitionOption {
	return func(d *JobDefinition) { d.DayOfWeek = day }
}

// WithDayOfMonth sets the MONTHLY target day.
func WithDayOfMonth(day int) DefinitionOption {
	return func(d *JobDefinition) { d.DayOfMonth = day }
}

// WithYearlyDate sets the YEARLY month/day.
func WithYearlyDate(month, day int) DefinitionOption {
	return func(d *JobDefinition) { d.Month = month; d.Day = day }
}

// WithCronExpression sets the CRON 5-field expression.
func WithCronExpression(expr string) DefinitionOption {
	return func(d *JobDefinition) { d.CronExpression = expr }
}

// NewJobDefinition builds a JobDefinition, enforcing the schedule-type
// parameter presence rules:
//
//	ONE_TIME requires ScheduleTime; DAILY requires Hour/Minute (default
//	0/0); WEEKLY adds DayOfWeek; MONTHLY adds DayOfMonth; YEARLY adds
//	Month/Day; CRON requires CronExpression.
func NewJobDefinition(jobType string, scheduleType ScheduleType, priority JobPriority, parameters map[string]any, opts ...DefinitionOption) (JobDefinition, error) {
	if jobType == "" {
		return JobDefinition{}, fmt.Errorf("job_type is required")
	}
	if parameters == nil {
		parameters = map[string]any{}
	}
	d := JobDefinition{
		JobType:      jobType,
		ScheduleType: scheduleType,
		Priority:     priority,
		Parameters:   parameters,
	}
	for _, opt := range opts {
		opt(&d)
	}
	switch scheduleType {
	case ScheduleImmediate:
		// no additional fields required
	case ScheduleOneTime:
		if d.ScheduleTime.IsZero() {
			return JobDefinition{}, fmt.Errorf("schedule_time is required for ONE_TIME schedules")
		}
	case ScheduleDaily:
		// Hour/Minute default to 0/0, already satisfied by zero value.
	case ScheduleWeekly:
		if d.DayOfWeek < 0 || d.DayOfWeek > 6 {
			return JobDefinition{}, fmt.Errorf("day_of_week must be 0-6 (0=Monday) for WEEKLY schedules")
		}
	case ScheduleMonthly:
		if d.DayOfMonth < 1 || d.DayOfMonth > 31 {
			return JobDefinition{}, fmt.Errorf("day_of_month must be 1-31 for MONTHLY schedules")
		}
	case ScheduleYearly:
		if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > 31 {
			return JobDefinition{}, fmt.Errorf("month/day are required for YEARLY schedules")
		}
	case ScheduleCron:
		if d.CronExpression == "" {
			return JobDefinition{}, fmt.Errorf("cron_expression is required for CRON schedules")
		}
	default:
		return JobDefinition{}, fmt.Errorf("unknown schedule_type %q", scheduleType)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return d, nil
}

// Result is the outcome a TaskHandler returns for one Job execution:
// success/failure, a human message, and handler-specific data.
type Result struct {
	Success bool
	Message string
	Data    map[string]any
}

// HistoryEntry is one append-only execution attempt recorded on a Job.
type HistoryEntry struct {
	Timestamp     time.Time
	Status        JobStatus
	Message       string
	ExecutionTime time.Duration
	Result        *Result
	Error         string
}

// Job is the runtime instance of a JobDefinition plus its lifecycle
// state.
type Job struct {
	ID          string
	Definition  JobDefinition
	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
	NextRun     time.Time
	Result      *Result
	Error       string
	RetryCount  int

	History []HistoryEntry
}

// NewJob wraps def in a freshly-created Job in QUEUED-to-be state. The
// caller is responsible for assigning NextRun.
func NewJob(def JobDefinition) *Job {
	id := def.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Job{
		ID:         id,
		Definition: def,
		Status:     StatusPending,
		CreatedAt:  time.Now(),
	}
}

// appendHistory records one lifecycle transition. It never rejects a
// call once the Job is terminal: the history may keep growing after a
// terminal status is recorded.
func (j *Job) appendHistory(status JobStatus, message string, execTime time.Duration, result *Result, errMsg string) {
	j.History = append(j.History, HistoryEntry{
		Timestamp:     time.Now(),
		Status:        status,
		Message:       message,
		ExecutionTime: execTime,
		Result:        result,
		Error:         errMsg,
	})
}

// TaskHandler is the polymorphic executor capability bound to a
// job_type. Handlers MUST be idempotent under retry at the granularity
// of a single Job instance; the scheduler never re-invokes the same Job.
type TaskHandler interface {
	Execute(ctx context.Context, job *Job) (Result, error)
}
