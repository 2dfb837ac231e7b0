package automation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"retailops/internal/logger"
	"retailops/pkg/models"
)

// Dispatcher turns persisted domain changes into engine events.
// Evaluation is synchronous: OrderCreated returns after every action ran.
type Dispatcher struct {
	engine *Engine
	rules  RuleSource
	logger logger.Logger
}

func NewDispatcher(engine *Engine, rules RuleSource, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Dispatcher{
		engine: engine,
		rules:  rules,
		logger: log,
	}
}

// OrderCreated must only be called after the order is durably stored.
func (d *Dispatcher) OrderCreated(ctx context.Context, order models.Order) Report {
	event := NewOrderCreatedEvent(order)
	report := d.engine.Evaluate(ctx, d.rules.Rules(), event)

	d.logger.InfowCtx(ctx, "Automation evaluated for new order",
		"order_id", order.ID,
		"matched_rules", len(report.MatchedRules),
		"actions", len(report.Actions),
	)
	return report
}

func NewOrderCreatedEvent(order models.Order) Event {
	occurredAt := order.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	return Event{
		ID:   uuid.New().String(),
		Type: TriggerOrderCreated,
		Payload: map[string]interface{}{
			PayloadOrderID:       order.ID,
			PayloadCustomerID:    order.CustomerID,
			PayloadTotalAmount:   order.TotalAmount,
			PayloadStatus:        string(order.Status),
			PayloadPaymentMethod: string(order.PaymentMethod),
			PayloadItemCount:     order.ItemCount(),
		},
		OccurredAt: occurredAt,
	}
}
