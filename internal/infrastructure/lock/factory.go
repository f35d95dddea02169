package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/nfce/danfe/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// FactoryOption is a functional option for New
type FactoryOption func(*factory)

type factory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithFactoryLogger sets the logger passed to the created lock
func WithFactoryLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-process lock. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.allowInMemoryFallback = allow
	}
}

// New creates the ActionLock selected by cfg.Backend
func New(cfg config.LockConfig, redisCfg config.RedisConfig, opts ...FactoryOption) (ActionLock, error) {
	f := &factory{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	switch cfg.Backend {
	case "", "memory":
		f.logger.Info("Using in-memory print lock")
		return NewMemoryLock(cfg.AcquireTimeout), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     redisCfg.Addr(),
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			if !f.allowInMemoryFallback {
				return nil, fmt.Errorf("failed to connect to Redis: %w", err)
			}
			f.logger.Warn("Redis unavailable, falling back to in-memory print lock",
				zap.String("addr", redisCfg.Addr()),
				zap.Error(err),
			)
			return NewMemoryLock(cfg.AcquireTimeout), nil
		}

		f.logger.Info("Using Redis print lock", zap.String("addr", redisCfg.Addr()), zap.String("key", cfg.Key))
		return NewRedisLockWithClient(client, cfg.Key, cfg.TTL, cfg.AcquireTimeout, WithLogger(f.logger)), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Backend)
	}
}
