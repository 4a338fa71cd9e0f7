// Package pool implements the process-wide connection pool: a
// protocol-abstracted cache of device sessions with per-host limits,
// idle eviction, and a cooperative cleanup sweep. A single mutex guards
// all bookkeeping; adapters do their own locking for transport state.
package pool

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/netraven-io/netraven/pkg/deviceerr"
	"github.com/netraven-io/netraven/pkg/distlock"
	"github.com/netraven-io/netraven/pkg/logging"
	"github.com/netraven-io/netraven/pkg/protocol"
)

// Config is the pool's sizing and timing configuration.
type Config struct {
	MaxSize             int
	MaxPerHost          int
	IdleTimeoutSeconds  int
	CleanupIntervalSecs int
}

// Status is the read-only snapshot returned by Pool.Status.
type Status struct {
	Total       int
	Active      int
	Idle        int
	Hosts       int
	MaxSize     int
	MaxPerHost  int
	IdleTimeout int
	LastCleanup time.Time
}

// AdapterFactory is the subset of *protocol.Factory the pool depends on.
// Declaring it as a small interface (rather than taking *protocol.Factory
// directly) lets tests -- in this package and in packages built on top of
// Pool, such as devicecomm -- inject a fake factory/adapter pair to
// exercise pool invariants (sizing, eviction, borrow/return balance)
// without dialing real devices.
type AdapterFactory interface {
	Create(protoName, host string, creds protocol.Credentials, deviceType string, port int) (protocol.Adapter, error)
}

// Pool is the process-wide connection pool. Lifecycle: init-on-first-use
// via New, explicit teardown via CloseAll.
type Pool struct {
	cfg     Config
	factory AdapterFactory
	locker  *distlock.Locker

	mu          sync.Mutex
	entries     map[protocol.ConnectionKey][]*Entry
	byAdapter   map[protocol.Adapter]*Entry
	hostCounts  map[string]int
	reserved    int
	lastCleanup time.Time
}

// New constructs a Pool. Any zero-valued Config field is replaced with
// its documented default.
func New(cfg Config, factory *protocol.Factory, locker *distlock.Locker) *Pool {
	return NewWithAdapterFactory(cfg, factory, locker)
}

// NewWithAdapterFactory is New's implementation against the narrower
// AdapterFactory interface, exported so tests -- in this package and in
// packages built on top of Pool -- can supply a fake factory.
func NewWithAdapterFactory(cfg Config, factory AdapterFactory, locker *distlock.Locker) *Pool {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 50
	}
	if cfg.MaxPerHost == 0 {
		cfg.MaxPerHost = 5
	}
	if cfg.IdleTimeoutSeconds == 0 {
		cfg.IdleTimeoutSeconds = 300
	}
	if cfg.CleanupIntervalSecs == 0 {
		cfg.CleanupIntervalSecs = 60
	}
	if locker == nil {
		locker = distlock.NewNoop()
	}
	return &Pool{
		cfg:        cfg,
		factory:    factory,
		locker:     locker,
		entries:    map[protocol.ConnectionKey][]*Entry{},
		byAdapter:  map[protocol.Adapter]*Entry{},
		hostCounts: map[string]int{},
	}
}

// BorrowParams names every field a Borrow call needs.
type BorrowParams struct {
	Protocol    string
	Host        string
	Credentials protocol.Credentials
	DeviceType  string
	Port        int
	DeviceID    string
}

// Borrow returns a reusable or newly-created adapter for the given
// connection parameters.
func (p *Pool) Borrow(ctx context.Context, params BorrowParams) (protocol.Adapter, error) {
	p.maybeCleanup()

	key := protocol.NewConnectionKey(params.Protocol, params.Host, params.Port, params.Credentials.Username, params.DeviceID)

	p.mu.Lock()
	if reused := p.tryReuseLocked(key); reused != nil {
		reused.InUse = true
		reused.LastUsed = time.Now()
		p.mu.Unlock()
		return reused.Adapter, nil
	}

	if p.hostCounts[key.Host] >= p.cfg.MaxPerHost {
		p.mu.Unlock()
		return nil, deviceerr.New(deviceerr.KindPoolExhausted, "max connections per host reached").WithHost(key.Host)
	}

	if p.totalLocked() >= p.cfg.MaxSize {
		p.mu.Unlock()
		p.Cleanup()
		p.mu.Lock()
		if p.totalLocked() >= p.cfg.MaxSize {
			p.mu.Unlock()
			return nil, deviceerr.New(deviceerr.KindPoolExhausted, "connection pool is full").WithHost(key.Host)
		}
		if p.hostCounts[key.Host] >= p.cfg.MaxPerHost {
			p.mu.Unlock()
			return nil, deviceerr.New(deviceerr.KindPoolExhausted, "max connections per host reached").WithHost(key.Host)
		}
	}

	// Reserve the slot before dropping the lock for the dial, so concurrent
	// borrows cannot overshoot max_size or max_per_host while this one is
	// still connecting.
	p.hostCounts[key.Host]++
	p.reserved++
	p.mu.Unlock()

	unreserve := func() {
		p.mu.Lock()
		p.reserved--
		p.hostCounts[key.Host]--
		if p.hostCounts[key.Host] == 0 {
			delete(p.hostCounts, key.Host)
		}
		p.mu.Unlock()
	}

	adapter, err := p.factory.Create(params.Protocol, params.Host, params.Credentials, params.DeviceType, params.Port)
	if err != nil {
		unreserve()
		return nil, err
	}

	held, lockErr := p.locker.Acquire(ctx, lockName(key), holderID(), time.Duration(p.cfg.IdleTimeoutSeconds)*time.Second)
	if lockErr == nil && !held {
		unreserve()
		return nil, deviceerr.New(deviceerr.KindPoolExhausted, "connection slot held by another process").WithHost(key.Host)
	}

	if err := adapter.Connect(ctx); err != nil {
		_ = adapter.Disconnect()
		_ = p.locker.Release(ctx, lockName(key), holderID())
		unreserve()
		return nil, err
	}

	entry := &Entry{
		Key:       key,
		Adapter:   adapter,
		CreatedAt: time.Now(),
		LastUsed:  time.Now(),
		InUse:     true,
	}

	p.mu.Lock()
	p.reserved--
	p.entries[key] = append(p.entries[key], entry)
	p.byAdapter[adapter] = entry
	p.mu.Unlock()

	return adapter, nil
}

func lockName(key protocol.ConnectionKey) string {
	return fmt.Sprintf("%s:%s:%d:%s", key.Protocol, key.Host, key.Port, key.Username)
}

func holderID() string {
	return fmt.Sprintf("pid-%d", os.Getpid())
}

// tryReuseLocked must be called with p.mu held. It returns the first
// entry for key that is not in use, not failed, and passes a liveness
// check, disconnecting and removing any dead entry it encounters along
// the way.
func (p *Pool) tryReuseLocked(key protocol.ConnectionKey) *Entry {
	list := p.entries[key]
	kept := list[:0]
	var reused *Entry
	for _, e := range list {
		if reused == nil && !e.InUse && !e.Failed && e.Adapter.IsConnected() {
			reused = e
			kept = append(kept, e)
			continue
		}
		if !e.InUse && (e.Failed || !e.Adapter.IsConnected()) {
			p.removeEntryLocked(e)
			continue
		}
		kept = append(kept, e)
	}
	p.entries[key] = kept
	return reused
}

// removeEntryLocked must be called with p.mu held. It disconnects the
// adapter (logging any failure, never propagating it) and drops all
// pool bookkeeping for the entry except its position in the owning
// key's slice, which the caller is responsible for filtering out.
func (p *Pool) removeEntryLocked(e *Entry) {
	if err := e.Adapter.Disconnect(); err != nil {
		logging.WithHost(e.Key.Host).Warnf("pool: disconnect failed during eviction: %v", err)
	}
	delete(p.byAdapter, e.Adapter)
	if p.hostCounts[e.Key.Host] > 0 {
		p.hostCounts[e.Key.Host]--
		if p.hostCounts[e.Key.Host] == 0 {
			delete(p.hostCounts, e.Key.Host)
		}
	}
	_ = p.locker.Release(context.Background(), lockName(e.Key), holderID())
}

func (p *Pool) totalLocked() int {
	total := p.reserved
	for _, list := range p.entries {
		total += len(list)
	}
	return total
}

// Return marks a borrowed adapter as available for reuse. Unknown
// adapters are ignored, logged at warning.
func (p *Pool) Return(adapter protocol.Adapter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byAdapter[adapter]
	if !ok {
		logging.Logger.Warn("pool: return of unknown adapter ignored")
		return
	}
	e.InUse = false
	e.LastUsed = time.Now()
}

// ReportFailure flags the owning entry as failed after a borrower
// observes a command/connection error on it, so the next Borrow for the
// same key evicts it rather than handing it out again. Cleanup evicts a
// failed entry once it is idle past idle_timeout, disconnected, or has
// reached unhealthyThreshold reported failures.
func (p *Pool) ReportFailure(adapter protocol.Adapter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.byAdapter[adapter]; ok {
		e.markFailure()
	}
}

// Close disconnects and evicts the entry owning adapter.
func (p *Pool) Close(adapter protocol.Adapter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.byAdapter[adapter]
	if !ok {
		return
	}
	p.removeEntryLocked(e)
	list := p.entries[e.Key]
	for i, candidate := range list {
		if candidate == e {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(p.entries, e.Key)
	} else {
		p.entries[e.Key] = list
	}
}

// CloseAll disconnects every entry and clears the pool.
func (p *Pool) CloseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, list := range p.entries {
		for _, e := range list {
			if err := e.Adapter.Disconnect(); err != nil {
				logging.WithHost(e.Key.Host).Warnf("pool: disconnect failed during close_all: %v", err)
			}
		}
	}
	p.entries = map[protocol.ConnectionKey][]*Entry{}
	p.byAdapter = map[protocol.Adapter]*Entry{}
	p.hostCounts = map[string]int{}
}

// maybeCleanup runs Cleanup only if cleanup_interval has elapsed since
// the last pass.
func (p *Pool) maybeCleanup() {
	p.mu.Lock()
	due := time.Since(p.lastCleanup) > time.Duration(p.cfg.CleanupIntervalSecs)*time.Second
	p.mu.Unlock()
	if due {
		p.Cleanup()
	}
}

// Cleanup evicts every idle entry whose last use exceeds idle_timeout,
// plus any entry marked unhealthy after repeated failed liveness checks.
func (p *Pool) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	idleTimeout := time.Duration(p.cfg.IdleTimeoutSeconds) * time.Second

	for key, list := range p.entries {
		kept := list[:0]
		for _, e := range list {
			if e.InUse {
				kept = append(kept, e)
				continue
			}
			if e.idleFor(now) > idleTimeout || e.isUnhealthy() || !e.Adapter.IsConnected() {
				p.removeEntryLocked(e)
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			delete(p.entries, key)
		} else {
			p.entries[key] = kept
		}
	}
	p.lastCleanup = now
}

// Status returns a read-only snapshot of pool occupancy.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	var active, idle int
	for _, list := range p.entries {
		for _, e := range list {
			if e.InUse {
				active++
			} else {
				idle++
			}
		}
	}
	return Status{
		Total:       active + idle,
		Active:      active,
		Idle:        idle,
		Hosts:       len(p.hostCounts),
		MaxSize:     p.cfg.MaxSize,
		MaxPerHost:  p.cfg.MaxPerHost,
		IdleTimeout: p.cfg.IdleTimeoutSeconds,
		LastCleanup: p.lastCleanup,
	}
}
