// Package distlock provides an optional Redis-backed distributed lock so
// multiple NetRaven worker processes sharing one device fleet do not each
// open a competing session to the same host. Implemented as a plain Redis
// SET NX / DEL pair with a TTL; holders release only their own locks.
package distlock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Locker acquires and releases named, TTL-bounded locks. A Locker with
// no Redis client (NewNoop) always grants the lock immediately, so single-process
// deployments pay no Redis dependency cost.
type Locker struct {
	client *redis.Client
	prefix string
}

// New connects to addr and returns a Locker backed by it. Connection is
// lazy: go-redis dials on first command.
func New(addr, prefix string) *Locker {
	if prefix == "" {
		prefix = "netraven:lock:"
	}
	return &Locker{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

// NewNoop returns a Locker that grants every lock in-process, for
// deployments with no shared Redis (the common case, and the default).
func NewNoop() *Locker {
	return &Locker{}
}

func (l *Locker) key(name string) string {
	return l.prefix + name
}

// Acquire attempts to take the named lock for ttl, identified by holder.
// Returns true if the lock was acquired. A nil-client Locker always
// returns true.
func (l *Locker) Acquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	ok, err := l.client.SetNX(ctx, l.key(name), holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("distlock acquire %s: %w", name, err)
	}
	return ok, nil
}

// Release frees the named lock if still held by holder. A nil-client
// Locker is a no-op.
func (l *Locker) Release(ctx context.Context, name, holder string) error {
	if l.client == nil {
		return nil
	}
	val, err := l.client.Get(ctx, l.key(name)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("distlock release %s: %w", name, err)
	}
	if val != holder {
		return nil
	}
	return l.client.Del(ctx, l.key(name)).Err()
}

// Close releases the underlying Redis connection, if any.
func (l *Locker) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
