package scheduler

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// queueItem is one heap entry: ordering key (-priority, created_at, id)
// paired with the Job it carries.
type queueItem struct {
	job   *Job
	index int
}

// heapData is the container/heap.Interface implementation. Less orders by
// (-priority, created_at, job_id) so higher priority dequeues first, with
// insertion-order (FIFO) tiebreak within a priority.
type heapData []*queueItem

func (h heapData) Len() int { return len(h) }

func (h heapData) Less(i, j int) bool {
	a, b := h[i].job, h[j].job
	if a.Definition.Priority != b.Definition.Priority {
		return a.Definition.Priority > b.Definition.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

func (h heapData) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *heapData) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *heapData) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// PriorityQueue is the thread-safe priority queue consumed by the worker
// pool. Blocked Get calls wake on every Add/Cancel via a broadcast
// channel swapped out on each signal (sync.Cond has no timeout-aware
// wait, which Get needs).
type PriorityQueue struct {
	mu        sync.Mutex
	data      heapData
	byID      map[string]*queueItem
	tombstone map[string]struct{}
	notify    chan struct{}
}

// NewPriorityQueue constructs an empty queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{
		byID:      map[string]*queueItem{},
		tombstone: map[string]struct{}{},
		notify:    make(chan struct{}),
	}
}

// signalLocked wakes every blocked Get. Must be called with q.mu held.
func (q *PriorityQueue) signalLocked() {
	close(q.notify)
	q.notify = make(chan struct{})
}

// Add enqueues job, marking it QUEUED. Duplicates (an id already present)
// and tombstoned ids (a cancellation that arrived before this add) are
// refused without modifying the queue.
func (q *PriorityQueue) Add(job *Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.byID[job.ID]; dup {
		return false
	}
	if _, tomb := q.tombstone[job.ID]; tomb {
		return false
	}
	job.Status = StatusQueued
	item := &queueItem{job: job}
	heap.Push(&q.data, item)
	q.byID[job.ID] = item
	q.signalLocked()
	return true
}

// Get blocks until a job is available or timeout elapses, returning the
// highest-priority, earliest-enqueued surviving job. Entries whose id was
// tombstoned by a concurrent Cancel are skipped and the tombstone is
// consumed as a side effect. The returned job is marked RUNNING and
// stamped with StartedAt before return.
func (q *PriorityQueue) Get(ctx context.Context, timeout time.Duration) (*Job, bool) {
	deadline := time.Now().Add(timeout)

	for {
		q.mu.Lock()
		for q.data.Len() > 0 {
			item := heap.Pop(&q.data).(*queueItem)
			delete(q.byID, item.job.ID)
			if _, tomb := q.tombstone[item.job.ID]; tomb {
				delete(q.tombstone, item.job.ID)
				continue
			}
			item.job.Status = StatusRunning
			item.job.StartedAt = time.Now()
			q.mu.Unlock()
			return item.job, true
		}
		wait := q.notify
		q.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, false
		}
		timer := time.NewTimer(remaining)
		select {
		case <-wait:
			timer.Stop()
		case <-timer.C:
			return nil, false
		case <-ctx.Done():
			timer.Stop()
			return nil, false
		}
	}
}

// Cancel removes job id from the queue if still present (flipping it to
// CANCELED) and records a tombstone so a late Add or an in-flight Get
// never dispatches it.
func (q *PriorityQueue) Cancel(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tombstone[id] = struct{}{}
	item, ok := q.byID[id]
	if !ok {
		q.signalLocked()
		return false
	}
	item.job.Status = StatusCanceled
	heap.Remove(&q.data, item.index)
	delete(q.byID, id)
	q.signalLocked()
	return true
}

// Contains reports whether id is still enqueued (not yet dequeued).
func (q *PriorityQueue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[id]
	return ok
}

// Len returns the number of jobs currently queued.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.data.Len()
}

// Snapshot returns the queued jobs in heap-internal (not dequeue) order,
// for read-only listing.
func (q *PriorityQueue) Snapshot() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, 0, len(q.data))
	for _, item := range q.data {
		out = append(out, item.job)
	}
	return out
}
