package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrBusy means the per-order lock could not be acquired within the timeout.
// Callers should retry with backoff instead of blocking indefinitely.
var ErrBusy = errors.New("order is busy, retry")

// Locker serializes every command touching a given order number. The
// in-process implementation below covers single-instance deployments;
// RedisLocker (lock_redis.go) covers multi-process ones.
type Locker interface {
	Acquire(ctx context.Context, key string, timeout time.Duration) (release func(), err error)
}

type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() Locker {
	return &keyedMutex{entries: make(map[string]*lockEntry)}
}

func (k *keyedMutex) Acquire(ctx context.Context, key string, timeout time.Duration) (func(), error) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.sem <- struct{}{}:
		return func() {
			<-e.sem
			k.put(key, e)
		}, nil
	case <-timer.C:
		k.put(key, e)
		return nil, ErrBusy
	case <-ctx.Done():
		k.put(key, e)
		return nil, ctx.Err()
	}
}

func (k *keyedMutex) put(key string, e *lockEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()
}
