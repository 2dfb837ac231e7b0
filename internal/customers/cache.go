package customers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"retailops/internal/config"
	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/circuitbreaker"
	"retailops/pkg/metrics"
	"retailops/pkg/models"
)

// CachedRepository is a read-through Redis cache in front of a Repository.
// Only Find is cached. Writes go to the store first and then evict the key.
// Redis failures fall back to the store.
type CachedRepository struct {
	Repository
	client *redis.Client
	ttl    time.Duration
	cb     *circuitbreaker.Wrapper
	logger logger.Logger
}

func NewCachedRepository(repo Repository, client *redis.Client, cacheCfg config.CacheConfig, cbCfg config.CircuitBreakerConfig, log logger.Logger) *CachedRepository {
	if log == nil {
		log = logger.NopLogger()
	}

	var cb *circuitbreaker.Wrapper
	if cbCfg.Enabled {
		cb = circuitbreaker.NewWrapper(circuitbreaker.DefaultConfig("redis-customers").Tune(
			cbCfg.MaxRequests, cbCfg.Interval, cbCfg.Timeout, cbCfg.FailureRatio, cbCfg.MinRequests,
		))
	}

	return &CachedRepository{
		Repository: repo,
		client:     client,
		ttl:        time.Duration(cacheCfg.TTLSeconds) * time.Second,
		cb:         cb,
		logger:     log,
	}
}

func cacheKey(id string) string {
	return constants.CacheKeyPrefixCustomer + id
}

func (r *CachedRepository) Find(ctx context.Context, id string) (*models.Customer, error) {
	cached, err := circuitbreaker.Call(ctx, r.cb, func() ([]byte, error) {
		data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return data, err
	})

	switch {
	case err != nil:
		metrics.CustomerCacheRequestsTotal.WithLabelValues("error").Inc()
		r.logger.WarnwCtx(ctx, "Customer cache read failed, using database", "customer_id", id, "error", err)
	case cached != nil:
		var customer models.Customer
		if err := json.Unmarshal(cached, &customer); err == nil {
			metrics.CustomerCacheRequestsTotal.WithLabelValues("hit").Inc()
			return &customer, nil
		}
		r.logger.WarnwCtx(ctx, "Discarding undecodable cache entry", "customer_id", id)
	default:
		metrics.CustomerCacheRequestsTotal.WithLabelValues("miss").Inc()
	}

	customer, err := r.Repository.Find(ctx, id)
	if err != nil || customer == nil {
		return customer, err
	}

	r.store(ctx, customer)
	return customer, nil
}

// ForUpdate returns a view of the cache that reads from the store and still
// evicts on write. Reads under the customer lock must go through it, since a
// concurrent lock-free reader can repopulate the cache with a stale entry.
func (r *CachedRepository) ForUpdate() Repository {
	return uncachedReads{r}
}

type uncachedReads struct {
	*CachedRepository
}

func (u uncachedReads) Find(ctx context.Context, id string) (*models.Customer, error) {
	return u.Repository.Find(ctx, id)
}

// ForUpdate returns the repository to use for read-modify-write under the
// customer lock.
func ForUpdate(repo Repository) Repository {
	if cached, ok := repo.(interface{ ForUpdate() Repository }); ok {
		return cached.ForUpdate()
	}
	return repo
}

func (r *CachedRepository) Upsert(ctx context.Context, customer *models.Customer) error {
	if err := r.Repository.Upsert(ctx, customer); err != nil {
		return err
	}
	r.evict(ctx, customer.ID)
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, id string) error {
	if err := r.Repository.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

func (r *CachedRepository) store(ctx context.Context, customer *models.Customer) {
	data, err := json.Marshal(customer)
	if err != nil {
		return
	}
	_, err = circuitbreaker.Call(ctx, r.cb, func() (bool, error) {
		return true, r.client.Set(ctx, cacheKey(customer.ID), data, r.ttl).Err()
	})
	if err != nil {
		r.logger.WarnwCtx(ctx, "Failed to populate customer cache", "customer_id", customer.ID, "error", err)
	}
}

func (r *CachedRepository) evict(ctx context.Context, id string) {
	_, err := circuitbreaker.Call(ctx, r.cb, func() (bool, error) {
		return true, r.client.Del(ctx, cacheKey(id)).Err()
	})
	if err != nil {
		r.logger.WarnwCtx(ctx, "Failed to evict customer cache entry", "customer_id", id, "error", err)
	}
}
