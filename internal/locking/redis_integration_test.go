//go:build integration

package locking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/automation"
	"retailops/internal/constants"
	"retailops/internal/testinfra"
	"retailops/pkg/models"
)

func TestRedisLocker_MutualExclusion(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Redis: true})
	locker := NewRedisLocker(infra.RedisClient, 5*time.Second, 2*time.Millisecond, 5*time.Second, nil)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, "c1")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)

	exists, err := infra.RedisClient.Exists(ctx, constants.LockKeyPrefixCustomer+"c1").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}

func TestRedisLocker_TimesOutWhileHeld(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Redis: true})
	locker := NewRedisLocker(infra.RedisClient, 5*time.Second, 2*time.Millisecond, 50*time.Millisecond, nil)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "c1")
	require.NoError(t, err)
	defer unlock()

	_, err = locker.Lock(ctx, "c1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	other, err := locker.Lock(ctx, "c2")
	require.NoError(t, err)
	other()
}

type memoryCustomers struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
}

func (m *memoryCustomers) Find(_ context.Context, id string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[id].Clone(), nil
}

func (m *memoryCustomers) Upsert(_ context.Context, customer *models.Customer) error {
	// Widen the read-modify-write window so lost updates would show up.
	time.Sleep(time.Millisecond)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[customer.ID] = customer.Clone()
	return nil
}

func TestRedisLocker_EnginesShareCustomerLock(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Redis: true})
	store := &memoryCustomers{customers: map[string]*models.Customer{
		"c1": {ID: "c1", Name: "Jane", Tags: []string{}},
	}}

	// Two engines stand in for two order-service replicas.
	newEngine := func() *automation.Engine {
		locker := NewRedisLocker(infra.RedisClient, 5*time.Second, time.Millisecond, 10*time.Second, nil)
		engine, err := automation.NewEngine(store, nil, automation.WithLocker(locker))
		require.NoError(t, err)
		return engine
	}
	engines := []*automation.Engine{newEngine(), newEngine()}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag := string(rune('a' + i))
			rule := automation.AutomationRule{
				ID:        "r" + tag,
				Name:      "tag " + tag,
				Trigger:   automation.TriggerOrderCreated,
				Actions:   []automation.RuleAction{{Type: automation.ActionAddCustomerTag, Value: tag}},
				IsEnabled: true,
			}
			event := automation.Event{
				ID:      "e" + tag,
				Type:    automation.TriggerOrderCreated,
				Payload: map[string]interface{}{automation.PayloadCustomerID: "c1", automation.PayloadTotalAmount: 1.0},
			}
			engines[i%2].Evaluate(context.Background(), []automation.AutomationRule{rule}, event)
		}(i)
	}
	wg.Wait()

	got, err := store.Find(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, got.Tags, 10)
}
