package locking

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"retailops/internal/automation"
	"retailops/internal/config"
	"retailops/internal/logger"
)

// New returns the Locker selected by cfg.Backend.
func New(cfg config.LockingConfig, client *redis.Client, log logger.Logger) (automation.Locker, error) {
	switch cfg.Backend {
	case "", config.LockBackendLocal:
		return automation.NewKeyedMutex(), nil
	case config.LockBackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis locking requires a redis client")
		}
		return NewRedisLocker(client, cfg.TTL, cfg.RetryInterval, cfg.MaxWait, log), nil
	default:
		return nil, fmt.Errorf("unsupported locking backend: %s", cfg.Backend)
	}
}
