package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nfce/danfe/internal/domain/printing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is an ActionLock shared by every instance using the same key.
// The TTL bounds how long a crashed holder can keep the lock and must
// outlast one print action; config derives it from the action timeouts.
type RedisLock struct {
	client       *redis.Client
	key          string
	ttl          time.Duration
	timeout      time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// RedisLockOption is a functional option for configuring RedisLock
type RedisLockOption func(*RedisLock)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RedisLockOption {
	return func(l *RedisLock) {
		l.logger = logger
	}
}

// WithPollInterval sets how often a waiter retries
func WithPollInterval(d time.Duration) RedisLockOption {
	return func(l *RedisLock) {
		l.pollInterval = d
	}
}

// NewRedisLockWithClient creates a lock on an existing Redis client
func NewRedisLockWithClient(client *redis.Client, key string, ttl, acquireTimeout time.Duration, opts ...RedisLockOption) *RedisLock {
	if key == "" {
		key = "danfe:print-lock"
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	l := &RedisLock{
		client:       client,
		key:          key,
		ttl:          ttl,
		timeout:      acquireTimeout,
		pollInterval: 100 * time.Millisecond,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire implements ActionLock
func (l *RedisLock) Acquire(ctx context.Context) (Release, error) {
	token := uuid.NewString()

	var deadline <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire print lock: %w", err)
		}
		if ok {
			l.logger.Debug("Print lock acquired", zap.String("key", l.key))
			return l.releaseFunc(token), nil
		}

		select {
		case <-ticker.C:
		case <-deadline:
			return nil, printing.ErrBridgeBusy
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *RedisLock) releaseFunc(token string) Release {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err()
			if err != nil && !errors.Is(err, redis.Nil) {
				l.logger.Warn("Failed to release print lock", zap.String("key", l.key), zap.Error(err))
			}
		})
	}
}

// Close closes the Redis client
func (l *RedisLock) Close() error {
	return l.client.Close()
}

var _ ActionLock = (*RedisLock)(nil)
