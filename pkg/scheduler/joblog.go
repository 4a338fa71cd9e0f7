package scheduler

import (
	"sync"
	"time"

	"github.com/netraven-io/netraven/pkg/logging"
)

// LogEntry is one append-only record in a job's lifecycle log.
type LogEntry struct {
	Timestamp     time.Time
	Status        JobStatus
	Message       string
	ExecutionTime time.Duration
	Result        *Result
	Error         string
}

// JobLoggingService is the single, per-job append-only log. Every
// scheduler lifecycle transition (QUEUED, RUNNING,
// COMPLETED/FAILED/CANCELED) is recorded here in addition to the
// process-wide structured logger, so a caller can retrieve one job's
// full history independent of log rotation/aggregation.
type JobLoggingService struct {
	mu   sync.Mutex
	logs map[string][]LogEntry
}

// NewJobLoggingService constructs an empty logging service.
func NewJobLoggingService() *JobLoggingService {
	return &JobLoggingService{logs: map[string][]LogEntry{}}
}

// Log appends an entry to jobID's log and mirrors it to the structured
// process logger.
func (s *JobLoggingService) Log(jobID string, status JobStatus, message string, execTime time.Duration, result *Result, errMsg string) {
	entry := LogEntry{
		Timestamp:     time.Now(),
		Status:        status,
		Message:       message,
		ExecutionTime: execTime,
		Result:        result,
		Error:         errMsg,
	}
	s.mu.Lock()
	s.logs[jobID] = append(s.logs[jobID], entry)
	s.mu.Unlock()

	entryLog := logging.WithJob(jobID).WithField("status", string(status))
	if errMsg != "" {
		entryLog.WithField("error", errMsg).Warn(message)
	} else {
		entryLog.Info(message)
	}
}

// History returns jobID's full log, oldest first.
func (s *JobLoggingService) History(jobID string) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.logs[jobID]))
	copy(out, s.logs[jobID])
	return out
}
