package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"retailops/internal/config"
	"retailops/pkg/models"
)

func ruleCacheConfig() config.ReloadConfig {
	return config.ReloadConfig{IntervalSeconds: 1, JitterMaxMilliseconds: 0}
}

func TestRuleCache_LoadAndCopy(t *testing.T) {
	repo := &stubRepository{}
	repo.set(vipRule("r1", 100), tagRule("r2", "x"))

	cache := NewRuleCache(repo, ruleCacheConfig(), nil)
	assert.Empty(t, cache.Rules())

	require.NoError(t, cache.Load(context.Background()))

	rules := cache.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, "r2", rules[1].ID)

	rules[0].ID = "mutated"
	assert.Equal(t, "r1", cache.Rules()[0].ID)
}

func TestRuleCache_ReloadErrorKeepsSnapshot(t *testing.T) {
	repo := &stubRepository{}
	repo.set(vipRule("r1", 100))

	cache := NewRuleCache(repo, ruleCacheConfig(), nil)
	require.NoError(t, cache.Load(context.Background()))

	repo.err = errStore
	err := cache.ReloadRules(context.Background())
	assert.ErrorIs(t, err, errStore)
	assert.Len(t, cache.Rules(), 1)
}

func TestRuleCache_JitterRespectsContext(t *testing.T) {
	repo := &stubRepository{}
	cache := NewRuleCache(repo, config.ReloadConfig{IntervalSeconds: 1, JitterMaxMilliseconds: 60000}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cache.ReloadRules(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRuleCache_StartReloaderStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	repo := &stubRepository{}
	cache := NewRuleCache(repo, ruleCacheConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- cache.StartReloader(ctx)
	}()

	repo.set(tagRule("r1", "x"))
	assert.Eventually(t, func() bool {
		return len(cache.Rules()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("reloader did not stop")
	}
}

func TestHandler_ReloadsOnAutomationEvent(t *testing.T) {
	repo := &stubRepository{}
	repo.set(tagRule("r1", "x"))
	cache := NewRuleCache(repo, ruleCacheConfig(), nil)
	handler := NewHandler(cache, nil)

	envelope := models.MessageEnvelope{
		ID: "cfg-1",
		Payload: map[string]interface{}{
			"event_type":   models.EventTypeAutomationRuleUpdated,
			"service_type": models.ServiceTypeAutomation,
			"rule_id":      "r1",
			"action":       models.ActionCreate,
		},
	}

	require.NoError(t, handler.HandleConfigUpdateEvent(context.Background(), envelope))
	assert.Equal(t, 1, repo.callCount())
	assert.Len(t, cache.Rules(), 1)

	envelope.Payload["service_type"] = models.ServiceTypeOrders
	require.NoError(t, handler.HandleConfigUpdateEvent(context.Background(), envelope))
	assert.Equal(t, 1, repo.callCount())
}
