package automation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/pkg/models"
)

func TestNewOrderCreatedEvent(t *testing.T) {
	createdAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	order := models.Order{
		ID:            "0f8fad5b-d9cb-469f-a165-70867728950e",
		CustomerID:    "c1",
		TotalAmount:   1500000,
		Status:        models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodCOD,
		Items: []models.OrderItem{
			{ProductID: "p1", Quantity: 2, Price: 500000},
			{ProductID: "p2", Quantity: 1, Price: 500000},
		},
		CreatedAt: createdAt,
	}

	event := NewOrderCreatedEvent(order)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, TriggerOrderCreated, event.Type)
	assert.Equal(t, createdAt, event.OccurredAt)
	assert.Equal(t, order.ID, event.Payload[PayloadOrderID])
	assert.Equal(t, "c1", event.Payload[PayloadCustomerID])
	assert.Equal(t, 1500000.0, event.Payload[PayloadTotalAmount])
	assert.Equal(t, "pending", event.Payload[PayloadStatus])
	assert.Equal(t, "cod", event.Payload[PayloadPaymentMethod])
	assert.Equal(t, 3, event.Payload[PayloadItemCount])
}

func TestDispatcher_OrderCreated(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine, err := NewEngine(customers, sink)
	require.NoError(t, err)

	rules := StaticRules{vipRule("r1", 1000000)}
	dispatcher := NewDispatcher(engine, rules, nil)

	report := dispatcher.OrderCreated(context.Background(), models.Order{
		ID:          "order-1",
		CustomerID:  "c1",
		TotalAmount: 1500000,
	})

	assert.Equal(t, []string{"r1"}, report.MatchedRules)
	assert.Equal(t, []string{"VIP"}, customers.get("c1").Tags)
	assert.Len(t, sink.all(), 1)
}

func TestDispatcher_UsesCurrentRuleSnapshot(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	engine, err := NewEngine(customers, &memorySink{})
	require.NoError(t, err)

	repo := &stubRepository{}
	cache := NewRuleCache(repo, ruleCacheConfig(), nil)
	dispatcher := NewDispatcher(engine, cache, nil)
	order := models.Order{ID: "order-1", CustomerID: "c1", TotalAmount: 10}

	report := dispatcher.OrderCreated(context.Background(), order)
	assert.Empty(t, report.MatchedRules)

	repo.set(tagRule("r1", "first-order"))
	require.NoError(t, cache.Load(context.Background()))

	report = dispatcher.OrderCreated(context.Background(), order)
	assert.Equal(t, []string{"r1"}, report.MatchedRules)
	assert.Equal(t, []string{"first-order"}, customers.get("c1").Tags)
}
