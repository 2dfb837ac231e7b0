//go:build integration

package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/config"
	"retailops/internal/logger"
	"retailops/internal/testinfra"
)

func TestRedisRepository_SetNXAndDelete(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Redis: true})
	repo := NewRepository(infra.RedisClient)
	ctx := context.Background()

	first, err := repo.SetNX(ctx, "idem:test", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.SetNX(ctx, "idem:test", 1, time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	ttl, err := infra.RedisClient.TTL(ctx, "idem:test").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, repo.Delete(ctx, "idem:test"))
	first, err = repo.SetNX(ctx, "idem:test", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, first)
}

func TestService_ClaimWithRedisAndCircuitBreaker(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Redis: true})
	repo := NewCircuitBreakerRepository(NewRepository(infra.RedisClient), config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Second,
		FailureRatio: 0.5,
		MinRequests:  3,
	})
	svc := NewService(repo, enabledConfig(), logger.NopLogger())
	ctx := context.Background()
	scope := map[string]interface{}{"customer_phone": "111"}

	first, err := svc.Claim(ctx, "key-1", scope)
	require.NoError(t, err)
	assert.True(t, first)

	dup, err := svc.Claim(ctx, "key-1", scope)
	require.NoError(t, err)
	assert.False(t, dup)

	other, err := svc.Claim(ctx, "key-1", map[string]interface{}{"customer_phone": "222"})
	require.NoError(t, err)
	assert.True(t, other)

	svc.Release(ctx, "key-1", scope)
	retry, err := svc.Claim(ctx, "key-1", scope)
	require.NoError(t, err)
	assert.True(t, retry)
	assert.Equal(t, "closed", repo.State())
}
