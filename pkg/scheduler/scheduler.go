package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/netraven-io/netraven/pkg/logging"
)

// Config is the scheduler's tunable behavior.
type Config struct {
	NumWorkers        int
	QueuePollInterval time.Duration
	ShutdownTimeout   time.Duration
}

// ServiceStatus is the snapshot returned by GetServiceStatus, combining
// worker pool size, queue depth, and registry size in one read rather
// than three independent getters.
type ServiceStatus struct {
	Running        bool
	NumWorkers     int
	QueueDepth     int
	ScheduledCount int
}

// Scheduler owns the priority queue, scheduled registry, handler
// registry, and job logging service, and drives one scheduler-loop
// goroutine plus N worker goroutines.
type Scheduler struct {
	queue    *PriorityQueue
	registry *ScheduledRegistry
	handlers *HandlerRegistry
	logs     *JobLoggingService
	cfg      Config

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// jobs indexes every Job this scheduler has ever created, by id, so
	// status lookups keep working after a job leaves the queue/registry
	// (canceled, running, or terminal).
	jobsMu sync.Mutex
	jobs   map[string]*Job
}

// New constructs a Scheduler. Any zero-valued Config field is replaced
// with its documented default.
func New(cfg Config) *Scheduler {
	if cfg.NumWorkers == 0 {
		cfg.NumWorkers = 5
	}
	if cfg.QueuePollInterval == 0 {
		cfg.QueuePollInterval = time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 2 * time.Second
	}
	return &Scheduler{
		queue:    NewPriorityQueue(),
		registry: NewScheduledRegistry(),
		handlers: NewHandlerRegistry(),
		logs:     NewJobLoggingService(),
		cfg:      cfg,
		jobs:     map[string]*Job{},
	}
}

func (s *Scheduler) trackJob(job *Job) {
	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()
}

// RegisterTaskHandler binds handler to jobType exclusively.
func (s *Scheduler) RegisterTaskHandler(jobType string, handler TaskHandler) error {
	return s.handlers.Register(jobType, handler)
}

// Start launches the scheduler loop and cfg.NumWorkers worker goroutines.
// Idempotent: calling Start while already running is a no-op; calling it
// again after Stop is supported.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.schedulerLoop(ctx)

	for i := 0; i < s.cfg.NumWorkers; i++ {
		s.wg.Add(1)
		go s.workerLoop(ctx, i)
	}
	logging.Logger.Infof("scheduler: started with %d workers", s.cfg.NumWorkers)
}

// Stop signals shutdown and joins the scheduler loop and all workers,
// bounded by cfg.ShutdownTimeout. Jobs currently executing are allowed to
// finish; queued jobs are abandoned (the queue is not persisted).
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.cfg.ShutdownTimeout):
		logging.Logger.Warn("scheduler: stop timed out waiting for workers; in-flight jobs continue in the background")
	}
}

// ScheduleJob validates job_type has a registered handler, then either
// enqueues (IMMEDIATE) or computes next_run and registers the job.
func (s *Scheduler) ScheduleJob(def JobDefinition) (*Job, error) {
	if _, ok := s.handlers.Lookup(def.JobType); !ok {
		return nil, fmt.Errorf("no-handler: no task handler registered for job_type %q", def.JobType)
	}

	job := NewJob(def)
	if def.ScheduleType == ScheduleImmediate {
		job.NextRun = time.Now()
		s.queue.Add(job)
		s.trackJob(job)
		s.logs.Log(job.ID, StatusQueued, "job queued", 0, nil, "")
		return job, nil
	}

	next, err := ComputeNextRun(def, time.Now())
	if err != nil {
		return nil, err
	}
	job.NextRun = next
	job.Status = StatusPending
	s.registry.Put(job)
	s.trackJob(job)
	s.logs.Log(job.ID, StatusQueued, fmt.Sprintf("job scheduled, next_run=%s", next.Format(time.RFC3339)), 0, nil, "")
	return job, nil
}

// RunJobNow clones a registered recurring job into an IMMEDIATE sibling
// with a derived id and enqueues it without affecting the original
// schedule.
func (s *Scheduler) RunJobNow(jobID string) (*Job, error) {
	orig, ok := s.registry.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("job %q is not a registered scheduled job", jobID)
	}

	clone := orig.Definition
	clone.ID = fmt.Sprintf("%s_immediate_%s", jobID, uuid.NewString())
	clone.ScheduleType = ScheduleImmediate

	job := NewJob(clone)
	job.NextRun = time.Now()
	s.queue.Add(job)
	s.trackJob(job)
	s.logs.Log(job.ID, StatusQueued, fmt.Sprintf("immediate run of %s", jobID), 0, nil, "")
	return job, nil
}

// CancelJob removes jobID from the queue and/or scheduled registry. A job
// already dequeued by a worker cannot be aborted; it runs to completion.
func (s *Scheduler) CancelJob(jobID string) bool {
	queued := s.queue.Cancel(jobID)
	job, registered := s.registry.Get(jobID)
	if registered {
		s.registry.Remove(jobID)
		job.Status = StatusCanceled
		// Re-point the status index at the canceled template: a prior
		// promotion left it referencing that run's instance, whose
		// terminal status would otherwise shadow the cancellation.
		s.trackJob(job)
	}
	if queued || registered {
		s.logs.Log(jobID, StatusCanceled, "job canceled", 0, nil, "")
		return true
	}
	return false
}

// GetJobStatus returns the current status of jobID. Queued, scheduled,
// running, terminal, and canceled jobs are all resolvable; status reads
// on a job another worker is mutating are eventually consistent.
func (s *Scheduler) GetJobStatus(jobID string) (JobStatus, bool) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	if j, ok := s.jobs[jobID]; ok {
		return j.Status, true
	}
	return "", false
}

// GetScheduledJobs returns every job in the scheduled registry.
func (s *Scheduler) GetScheduledJobs() []*Job {
	return s.registry.Snapshot()
}

// GetQueuedJobs returns every job currently in the priority queue.
func (s *Scheduler) GetQueuedJobs() []*Job {
	return s.queue.Snapshot()
}

// GetServiceStatus returns a point-in-time snapshot of scheduler
// occupancy.
func (s *Scheduler) GetServiceStatus() ServiceStatus {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return ServiceStatus{
		Running:        running,
		NumWorkers:     s.cfg.NumWorkers,
		QueueDepth:     s.queue.Len(),
		ScheduledCount: s.registry.Len(),
	}
}

// JobHistory returns jobID's append-only lifecycle log.
func (s *Scheduler) JobHistory(jobID string) []LogEntry {
	return s.logs.History(jobID)
}

// schedulerLoop is the single producer goroutine: every tick it promotes
// due recurring jobs into the priority queue, then advances or
// unregisters each.
func (s *Scheduler) schedulerLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.QueuePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.promoteDueJobs()
		}
	}
}

func (s *Scheduler) promoteDueJobs() {
	now := time.Now()
	for _, job := range s.registry.DueJobs(now) {
		instance := NewJob(job.Definition)
		instance.NextRun = job.NextRun
		if s.queue.Add(instance) {
			s.trackJob(instance)
			s.logs.Log(instance.ID, StatusQueued, "recurring job promoted to queue", 0, nil, "")
		}

		if job.Definition.ScheduleType == ScheduleOneTime {
			s.registry.Remove(job.ID)
			continue
		}
		next, err := ComputeNextRun(job.Definition, now)
		if err != nil {
			logging.WithJob(job.ID).Errorf("scheduler: computing next_run: %v", err)
			s.registry.Remove(job.ID)
			continue
		}
		job.NextRun = next
	}
}

// workerLoop is one worker goroutine's body.
func (s *Scheduler) workerLoop(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, ok := s.queue.Get(ctx, time.Second)
		if !ok {
			continue
		}
		s.runJob(ctx, job)
	}
}

// runJob executes job's handler, recording RUNNING then the terminal
// status, and never lets a handler panic or error escape the worker loop.
func (s *Scheduler) runJob(ctx context.Context, job *Job) {
	s.logs.Log(job.ID, StatusRunning, "job running", 0, nil, "")

	handler, ok := s.handlers.Lookup(job.Definition.JobType)
	if !ok {
		job.Status = StatusFailed
		job.Error = "no handler"
		job.CompletedAt = time.Now()
		job.appendHistory(StatusFailed, "no handler", 0, nil, "no handler")
		s.logs.Log(job.ID, StatusFailed, "no handler registered for job_type", 0, nil, "no handler")
		return
	}

	start := time.Now()
	result, err := s.safeExecute(ctx, handler, job)
	elapsed := time.Since(start)

	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		job.CompletedAt = time.Now()
		job.appendHistory(StatusFailed, "handler error", elapsed, nil, err.Error())
		s.logs.Log(job.ID, StatusFailed, "job failed", elapsed, nil, err.Error())
		return
	}

	job.Result = &result
	job.CompletedAt = time.Now()
	if result.Success {
		job.Status = StatusCompleted
		job.appendHistory(StatusCompleted, result.Message, elapsed, &result, "")
		s.logs.Log(job.ID, StatusCompleted, result.Message, elapsed, &result, "")
	} else {
		job.Status = StatusFailed
		job.Error = result.Message
		job.appendHistory(StatusFailed, result.Message, elapsed, &result, result.Message)
		s.logs.Log(job.ID, StatusFailed, result.Message, elapsed, &result, result.Message)
	}
}

// safeExecute recovers a panicking handler, converting it into an error
// so the worker goroutine survives.
func (s *Scheduler) safeExecute(ctx context.Context, handler TaskHandler, job *Job) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler.Execute(ctx, job)
}
