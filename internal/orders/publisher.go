package orders

import (
	"context"
	"time"

	"retailops/internal/broker"
	"retailops/internal/constants"
	"retailops/pkg/logging"
	"retailops/pkg/models"
)

// EventPublisher announces order lifecycle changes to other services.
type EventPublisher interface {
	OrderCreated(ctx context.Context, order models.Order) error
	OrderStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) error
}

type BrokerPublisher struct {
	producer broker.Producer
	topic    string
}

func NewBrokerPublisher(producer broker.Producer, topic string) *BrokerPublisher {
	if topic == "" {
		topic = constants.DefaultOrderEventsTopic
	}
	return &BrokerPublisher{producer: producer, topic: topic}
}

func (p *BrokerPublisher) OrderCreated(ctx context.Context, order models.Order) error {
	return p.publish(ctx, models.EventTypeOrderCreated, orderPayload(order))
}

func (p *BrokerPublisher) OrderStatusChanged(ctx context.Context, order models.Order, previous models.OrderStatus) error {
	payload := orderPayload(order)
	payload["previous_status"] = string(previous)
	return p.publish(ctx, models.EventTypeOrderStatusChanged, payload)
}

func (p *BrokerPublisher) publish(ctx context.Context, eventType string, payload map[string]interface{}) error {
	msg := models.NewEnvelope(constants.ServiceNameOrder, eventType, models.ServiceTypeOrders, payload).
		WithTraceID(logging.GetTraceID(ctx))
	return p.producer.Publish(ctx, p.topic, msg)
}

func orderPayload(order models.Order) map[string]interface{} {
	return map[string]interface{}{
		"order_id":       order.ID,
		"customer_id":    order.CustomerID,
		"total_amount":   order.TotalAmount,
		"status":         string(order.Status),
		"payment_method": string(order.PaymentMethod),
		"payment_status": string(order.PaymentStatus),
		"item_count":     order.ItemCount(),
		"order_date":     order.OrderDate.UTC().Format(time.RFC3339),
	}
}
