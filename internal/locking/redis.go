package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/metrics"
	"retailops/pkg/retry"
)

var ErrLockTimeout = errors.New("timed out waiting for lock")

var errLockBusy = errors.New("lock is held")

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serialises tag updates across replicas with SET NX PX.
// The TTL bounds how long a crashed holder can block others.
type RedisLocker struct {
	client        *redis.Client
	ttl           time.Duration
	retryInterval time.Duration
	maxWait       time.Duration
	logger        logger.Logger
}

func NewRedisLocker(client *redis.Client, ttl, retryInterval, maxWait time.Duration, log logger.Logger) *RedisLocker {
	if log == nil {
		log = logger.NopLogger()
	}
	return &RedisLocker{
		client:        client,
		ttl:           ttl,
		retryInterval: retryInterval,
		maxWait:       maxWait,
		logger:        log,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := constants.LockKeyPrefixCustomer + key
	token := uuid.New().String()

	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	wait := retry.Policy{
		InitialInterval: l.retryInterval,
		MaxInterval:     8 * l.retryInterval,
		Multiplier:      2,
	}
	err := backoff.Retry(func() error {
		ok, err := l.client.SetNX(waitCtx, lockKey, token, l.ttl).Result()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("redis SetNX failed: %w", err))
		}
		if !ok {
			return errLockBusy
		}
		return nil
	}, wait.BackOff(waitCtx))

	switch {
	case err == nil:
	case ctx.Err() != nil:
		metrics.LockAcquisitionsTotal.WithLabelValues("redis", "cancelled").Inc()
		return nil, ctx.Err()
	case errors.Is(err, errLockBusy), errors.Is(err, context.DeadlineExceeded):
		metrics.LockAcquisitionsTotal.WithLabelValues("redis", "timeout").Inc()
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, lockKey)
	default:
		metrics.LockAcquisitionsTotal.WithLabelValues("redis", "error").Inc()
		return nil, err
	}

	metrics.LockAcquisitionsTotal.WithLabelValues("redis", "acquired").Inc()
	acquiredAt := time.Now()

	return sync.OnceFunc(func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if err := releaseScript.Run(releaseCtx, l.client, []string{lockKey}, token).Err(); err != nil {
			l.logger.WarnwCtx(ctx, "Failed to release lock",
				"key", lockKey,
				"error", err,
			)
		}
		if held := time.Since(acquiredAt); held > l.ttl {
			l.logger.WarnwCtx(ctx, "Lock held longer than its TTL",
				"key", lockKey,
				"held_ms", held.Milliseconds(),
				"ttl_ms", l.ttl.Milliseconds(),
			)
		}
	}), nil
}
