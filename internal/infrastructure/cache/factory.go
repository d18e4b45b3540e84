package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/stockengine/internal/application/unitofwork"
	"github.com/erp/stockengine/internal/domain/shared"
	"github.com/erp/stockengine/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend bundles the idempotency store and order locker chosen at startup
type Backend struct {
	Idempotency shared.IdempotencyStore
	Locker      unitofwork.OrderLocker

	client *redis.Client
}

// Distributed reports whether Redis backs the helpers
func (b *Backend) Distributed() bool {
	return b.client != nil
}

// Close releases the idempotency store and the Redis client
func (b *Backend) Close() error {
	err := b.Idempotency.Close()
	if b.client != nil {
		if cerr := b.client.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// FactoryOption configures NewBackend
type FactoryOption func(*factory)

type factory struct {
	logger        *zap.Logger
	allowFallback bool
	pingTimeout   time.Duration
	lockTTL       time.Duration
	lockWait      time.Duration
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to
// in-process helpers instead of failing startup. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.allowFallback = allow
	}
}

// WithLockLease sets the order lock TTL and acquire wait
func WithLockLease(ttl, wait time.Duration) FactoryOption {
	return func(f *factory) {
		f.lockTTL = ttl
		f.lockWait = wait
	}
}

// NewBackend builds Redis-backed helpers when cfg names a host, in-process
// ones otherwise.
func NewBackend(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (*Backend, error) {
	f := &factory{
		logger:        zap.NewNop(),
		allowFallback: true,
		pingTimeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled() {
		f.logger.Info("redis not configured, using in-memory idempotency and order locks")
		return inMemoryBackend(f.lockWait), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, f.pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		if !f.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable at %s: %w", cfg.Addr(), err)
		}
		f.logger.Warn("redis unavailable, falling back to in-memory helpers; "+
			"idempotency and order locks will not be shared between instances",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
		return inMemoryBackend(f.lockWait), nil
	}

	f.logger.Info("using redis for idempotency and order locks", zap.String("addr", cfg.Addr()))
	return &Backend{
		Idempotency: NewRedisIdempotencyStore(client, ""),
		Locker:      NewRedisOrderLocker(client, f.lockTTL, f.lockWait, f.logger),
		client:      client,
	}, nil
}

func inMemoryBackend(lockWait time.Duration) *Backend {
	return &Backend{
		Idempotency: NewInMemoryIdempotencyStore(),
		Locker:      NewInMemoryOrderLocker(lockWait),
	}
}
