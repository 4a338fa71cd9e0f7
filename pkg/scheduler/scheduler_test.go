package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler appends the id of every job it executes, in dispatch
// order, to a shared slice guarded by a mutex.
type recordingHandler struct {
	mu      sync.Mutex
	order   []string
	release chan struct{}
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{release: make(chan struct{})}
}

func (h *recordingHandler) Execute(ctx context.Context, job *Job) (Result, error) {
	h.mu.Lock()
	h.order = append(h.order, job.ID)
	h.mu.Unlock()
	return Result{Success: true, Message: "ok"}, nil
}

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.order))
	copy(out, h.order)
	return out
}

// blockingHandler executes one job and blocks until told to release, so a
// test can assert a job is RUNNING and no longer cancellable from the queue.
type blockingHandler struct {
	started chan string
	release chan struct{}
}

func newBlockingHandler() *blockingHandler {
	return &blockingHandler{started: make(chan string, 1), release: make(chan struct{})}
}

func (h *blockingHandler) Execute(ctx context.Context, job *Job) (Result, error) {
	h.started <- job.ID
	<-h.release
	return Result{Success: true}, nil
}

func TestScheduler_ImmediateJobsDispatchHighestPriorityFirst(t *testing.T) {
	handler := newRecordingHandler()
	s := New(Config{NumWorkers: 1, QueuePollInterval: 10 * time.Millisecond})
	require.NoError(t, s.RegisterTaskHandler("noop", handler))

	low, err := NewJobDefinition("noop", ScheduleImmediate, PriorityLow, nil, WithID("low"))
	require.NoError(t, err)
	high, err := NewJobDefinition("noop", ScheduleImmediate, PriorityHigh, nil, WithID("high"))
	require.NoError(t, err)
	normal, err := NewJobDefinition("noop", ScheduleImmediate, PriorityNormal, nil, WithID("normal"))
	require.NoError(t, err)

	_, err = s.ScheduleJob(low)
	require.NoError(t, err)
	_, err = s.ScheduleJob(high)
	require.NoError(t, err)
	_, err = s.ScheduleJob(normal)
	require.NoError(t, err)

	// Start the single worker only once all three jobs are queued, so it
	// cannot dequeue "low" before "high" and "normal" arrive.
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"high", "normal", "low"}, handler.snapshot())
}

func TestScheduler_ScheduleJobRejectsUnknownJobType(t *testing.T) {
	s := New(Config{})
	def, err := NewJobDefinition("missing", ScheduleImmediate, PriorityNormal, nil)
	require.NoError(t, err)

	_, err = s.ScheduleJob(def)
	assert.Error(t, err)
}

func TestScheduler_CancelQueuedJobPreventsExecution(t *testing.T) {
	handler := newRecordingHandler()
	s := New(Config{NumWorkers: 0})
	require.NoError(t, s.RegisterTaskHandler("noop", handler))

	def, err := NewJobDefinition("noop", ScheduleImmediate, PriorityNormal, nil, WithID("to-cancel"))
	require.NoError(t, err)
	job, err := s.ScheduleJob(def)
	require.NoError(t, err)

	assert.True(t, s.CancelJob(job.ID))
	assert.Equal(t, StatusCanceled, job.Status)

	status, ok := s.GetJobStatus(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCanceled, status)
}

// gateHandler blocks its first execution until gate closes, recording every
// job id it runs, so a test can cancel a queued job while the single worker
// is provably busy.
type gateHandler struct {
	mu      sync.Mutex
	seen    []string
	started chan struct{}
	gate    chan struct{}
}

func (h *gateHandler) Execute(ctx context.Context, job *Job) (Result, error) {
	h.mu.Lock()
	h.seen = append(h.seen, job.ID)
	first := len(h.seen) == 1
	h.mu.Unlock()
	if first {
		close(h.started)
		<-h.gate
	}
	return Result{Success: true}, nil
}

func (h *gateHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.seen))
	copy(out, h.seen)
	return out
}

func TestScheduler_CancelQueuedJobWhileWorkerBusyIsNeverDispatched(t *testing.T) {
	handler := &gateHandler{started: make(chan struct{}), gate: make(chan struct{})}
	s := New(Config{NumWorkers: 1, QueuePollInterval: 10 * time.Millisecond})
	require.NoError(t, s.RegisterTaskHandler("gated", handler))
	s.Start()
	defer s.Stop()

	for i := 0; i < 10; i++ {
		def, err := NewJobDefinition("gated", ScheduleImmediate, PriorityNormal, nil, WithID(fmt.Sprintf("job-%d", i)))
		require.NoError(t, err)
		_, err = s.ScheduleJob(def)
		require.NoError(t, err)
	}

	select {
	case <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first job never started")
	}

	require.True(t, s.CancelJob("job-6"))
	status, ok := s.GetJobStatus("job-6")
	require.True(t, ok)
	assert.Equal(t, StatusCanceled, status)

	close(handler.gate)
	require.Eventually(t, func() bool {
		return len(handler.snapshot()) == 9
	}, 2*time.Second, 10*time.Millisecond)
	assert.NotContains(t, handler.snapshot(), "job-6")
}

func TestScheduler_CancelOfRunningJobDoesNotAbortIt(t *testing.T) {
	handler := newBlockingHandler()
	s := New(Config{NumWorkers: 1, QueuePollInterval: 10 * time.Millisecond})
	require.NoError(t, s.RegisterTaskHandler("slow", handler))
	s.Start()
	defer s.Stop()

	def, err := NewJobDefinition("slow", ScheduleImmediate, PriorityNormal, nil, WithID("running-job"))
	require.NoError(t, err)
	_, err = s.ScheduleJob(def)
	require.NoError(t, err)

	var startedID string
	select {
	case startedID = <-handler.started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}
	assert.Equal(t, "running-job", startedID)

	// The job is no longer in the queue or registry, so CancelJob reports
	// nothing to cancel: it runs to completion.
	assert.False(t, s.CancelJob("running-job"))
	close(handler.release)
}

func TestScheduler_RunJobNowClonesWithoutAffectingOriginalSchedule(t *testing.T) {
	handler := newRecordingHandler()
	s := New(Config{NumWorkers: 1, QueuePollInterval: 10 * time.Millisecond})
	require.NoError(t, s.RegisterTaskHandler("noop", handler))
	s.Start()
	defer s.Stop()

	def, err := NewJobDefinition("noop", ScheduleDaily, PriorityNormal, nil, WithID("daily-job"), WithDailyTime(23, 59))
	require.NoError(t, err)
	_, err = s.ScheduleJob(def)
	require.NoError(t, err)

	scheduledBefore := s.GetScheduledJobs()
	require.Len(t, scheduledBefore, 1)
	originalNextRun := scheduledBefore[0].NextRun

	clone, err := s.RunJobNow("daily-job")
	require.NoError(t, err)
	assert.NotEqual(t, "daily-job", clone.ID)
	assert.Equal(t, ScheduleImmediate, clone.Definition.ScheduleType)

	require.Eventually(t, func() bool {
		return len(handler.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	scheduledAfter := s.GetScheduledJobs()
	require.Len(t, scheduledAfter, 1)
	assert.Equal(t, originalNextRun, scheduledAfter[0].NextRun)
}

func TestScheduler_CancelAfterPromotionReportsCanceled(t *testing.T) {
	handler := newRecordingHandler()
	s := New(Config{})
	require.NoError(t, s.RegisterTaskHandler("noop", handler))

	def, err := NewJobDefinition("noop", ScheduleDaily, PriorityNormal, nil, WithID("recurring"), WithDailyTime(0, 0))
	require.NoError(t, err)
	job, err := s.ScheduleJob(def)
	require.NoError(t, err)

	// Promote once and run the instance to completion, so the status
	// index points at a terminal run rather than the registry template.
	job.NextRun = time.Now().Add(-time.Minute)
	s.promoteDueJobs()
	instance, ok := s.queue.Get(context.Background(), time.Second)
	require.True(t, ok)
	s.runJob(context.Background(), instance)
	require.Equal(t, StatusCompleted, instance.Status)

	status, ok := s.GetJobStatus("recurring")
	require.True(t, ok)
	require.Equal(t, StatusCompleted, status)

	// Canceling the dormant recurring job must win over the stale
	// terminal status of its last run.
	require.True(t, s.CancelJob("recurring"))
	status, ok = s.GetJobStatus("recurring")
	require.True(t, ok)
	assert.Equal(t, StatusCanceled, status)
	assert.Empty(t, s.GetScheduledJobs())
}

func TestScheduler_PromoteDueJobsAdvancesNextRunAndEnqueues(t *testing.T) {
	handler := newRecordingHandler()
	s := New(Config{})
	require.NoError(t, s.RegisterTaskHandler("noop", handler))

	def, err := NewJobDefinition("noop", ScheduleDaily, PriorityNormal, nil, WithID("nightly"), WithDailyTime(0, 0))
	require.NoError(t, err)
	job, err := s.ScheduleJob(def)
	require.NoError(t, err)

	// Force the schedule due, then run one promotion tick directly.
	job.NextRun = time.Now().Add(-time.Minute)
	s.promoteDueJobs()

	assert.Equal(t, 1, s.queue.Len())
	assert.True(t, job.NextRun.After(time.Now()), "next_run must advance past now")

	// With next_run back in the future, another tick promotes nothing.
	s.promoteDueJobs()
	assert.Equal(t, 1, s.queue.Len())
}

func TestScheduler_OneTimePromotionUnregistersAfterFiring(t *testing.T) {
	handler := newRecordingHandler()
	s := New(Config{})
	require.NoError(t, s.RegisterTaskHandler("noop", handler))

	def, err := NewJobDefinition("noop", ScheduleOneTime, PriorityNormal, nil,
		WithID("once"), WithScheduleTime(time.Now().Add(-time.Second)))
	require.NoError(t, err)
	_, err = s.ScheduleJob(def)
	require.NoError(t, err)
	require.Equal(t, 1, s.registry.Len())

	s.promoteDueJobs()
	assert.Equal(t, 1, s.queue.Len())
	assert.Equal(t, 0, s.registry.Len())
}

func TestScheduler_GetServiceStatusReflectsRunningAndQueueDepth(t *testing.T) {
	s := New(Config{NumWorkers: 3})
	status := s.GetServiceStatus()
	assert.False(t, status.Running)
	assert.Equal(t, 3, status.NumWorkers)

	s.Start()
	defer s.Stop()
	status = s.GetServiceStatus()
	assert.True(t, status.Running)
}

func TestScheduler_HandlerPanicIsRecoveredAsFailure(t *testing.T) {
	s := New(Config{NumWorkers: 1, QueuePollInterval: 10 * time.Millisecond})
	require.NoError(t, s.RegisterTaskHandler("panics", panicHandler{}))
	s.Start()
	defer s.Stop()

	def, err := NewJobDefinition("panics", ScheduleImmediate, PriorityNormal, nil, WithID("panicker"))
	require.NoError(t, err)
	job, err := s.ScheduleJob(def)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return job.Status.Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, StatusFailed, job.Status)
	assert.Contains(t, job.Error, "handler panic")
}

type panicHandler struct{}

func (panicHandler) Execute(ctx context.Context, job *Job) (Result, error) {
	panic("boom")
}
