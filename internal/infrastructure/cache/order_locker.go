package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	lockKeyPrefix     = "stockengine:lock:"
	defaultLockTTL    = 30 * time.Second
	defaultLockWait   = 2 * time.Second
	defaultLockStepMS = 50
)

// LockKey returns the Redis key guarding one order
func LockKey(kind string, id uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s", lockKeyPrefix, kind, id)
}

// RedisOrderLocker takes a short-lived Redis lease per order so that two
// instances do not queue on the same row locks.
type RedisOrderLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

// NewRedisOrderLocker creates a locker. ttl is the lease length; wait bounds
// how long Acquire retries before giving up.
func NewRedisOrderLocker(client redislock.RedisClient, ttl, wait time.Duration, logger *zap.Logger) *RedisOrderLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if wait <= 0 {
		wait = defaultLockWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisOrderLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

// Acquire obtains the lease or returns a ConcurrencyError
func (l *RedisOrderLocker) Acquire(ctx context.Context, kind string, id uuid.UUID) (func(), error) {
	key := LockKey(kind, id)

	retries := int(l.wait / (defaultLockStepMS * time.Millisecond))
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(defaultLockStepMS*time.Millisecond), retries),
	}

	lock, err := l.locker.Obtain(ctx, key, l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.NewConcurrencyError(err)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain %s: %w", key, err)
	}

	return func() {
		// Release with a fresh context: the request context may already be done.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release order lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

// InMemoryOrderLocker serialises orders within one process. Acquire queues
// behind the current holder for up to wait, then gives up with a
// ConcurrencyError.
type InMemoryOrderLocker struct {
	wait time.Duration

	mu   sync.Mutex
	held map[string]*keyLock
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewInMemoryOrderLocker creates an empty locker. wait <= 0 uses the default.
func NewInMemoryOrderLocker(wait time.Duration) *InMemoryOrderLocker {
	if wait <= 0 {
		wait = defaultLockWait
	}
	return &InMemoryOrderLocker{wait: wait, held: make(map[string]*keyLock)}
}

// Acquire blocks until the order is free, ctx is done or the wait elapses
func (l *InMemoryOrderLocker) Acquire(ctx context.Context, kind string, id uuid.UUID) (func(), error) {
	key := LockKey(kind, id)
	kl := l.ref(key)

	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	select {
	case kl.sem <- struct{}{}:
	case <-timer.C:
		l.unref(key)
		return nil, shared.NewConcurrencyError(fmt.Errorf("%s still held after %s", key, l.wait))
	case <-ctx.Done():
		l.unref(key)
		return nil, shared.NewConcurrencyError(ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.sem
			l.unref(key)
		})
	}, nil
}

func (l *InMemoryOrderLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.held[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.held[key] = kl
	}
	kl.refs++
	return kl
}

func (l *InMemoryOrderLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl := l.held[key]
	kl.refs--
	if kl.refs == 0 {
		delete(l.held, key)
	}
}

var (
	_ unitofwork.OrderLocker = (*RedisOrderLocker)(nil)
	_ unitofwork.OrderLocker = (*InMemoryOrderLocker)(nil)
)
