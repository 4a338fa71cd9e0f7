package pool

import (
	"time"

	"github.com/netraven-io/netraven/pkg/protocol"
)

// Entry owns one protocol.Adapter and tracks its lifecycle. The pool
// exclusively owns entries; borrowers receive a reference whose lifetime
// ends at Return or Close.
type Entry struct {
	Key          protocol.ConnectionKey
	Adapter      protocol.Adapter
	CreatedAt    time.Time
	LastUsed     time.Time
	InUse        bool
	Failed       bool
	FailureCount int
}

// unhealthyThreshold is the number of failures reported through
// Pool.ReportFailure after which an entry is evicted eagerly on the next
// cleanup pass rather than waiting out the full idle timeout. Entries
// that fail a liveness check (IsConnected) are removed at once instead.
const unhealthyThreshold = 3

func (e *Entry) markFailure() {
	e.Failed = true
	e.FailureCount++
}

func (e *Entry) isUnhealthy() bool {
	return e.Failed && e.FailureCount >= unhealthyThreshold
}

func (e *Entry) idleFor(now time.Time) time.Duration {
	if e.InUse {
		return 0
	}
	return now.Sub(e.LastUsed)
}
