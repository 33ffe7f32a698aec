package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrBusy is returned when another holder owns the lock.
var ErrBusy = errors.New("lock is held by another request")

// Locker serializes critical sections across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RedisLocker implements Locker with redsync mutexes.
type RedisLocker struct {
	rs     *redsync.Redsync
	expiry time.Duration
	tries  int
}

// NewRedisLocker builds a locker on top of an existing redis client.
func NewRedisLocker(client redis.UniversalClient, expiry time.Duration, tries int) *RedisLocker {
	if expiry <= 0 {
		expiry = 10 * time.Second
	}
	if tries <= 0 {
		tries = 1
	}
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client)), expiry: expiry, tries: tries}
}

// WithLock runs fn while holding the mutex named by key.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (err error) {
	mutex := l.rs.NewMutex(
		"lock:"+key,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %s: %v", ErrBusy, key, err)
	}
	defer func() {
		if _, unlockErr := mutex.UnlockContext(context.WithoutCancel(ctx)); unlockErr != nil && err == nil {
			err = fmt.Errorf("release lock %s: %w", key, unlockErr)
		}
	}()
	return fn(ctx)
}

// LocalLocker serializes callers inside one process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocalLocker returns an in-process Locker used when redis is not configured.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{})}
}

// WithLock runs fn while holding the in-process lock named by key.
func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	for {
		l.mu.Lock()
		wait, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			break
		}
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
		}
	}
	defer func() {
		l.mu.Lock()
		close(l.held[key])
		delete(l.held, key)
		l.mu.Unlock()
	}()
	return fn(ctx)
}
