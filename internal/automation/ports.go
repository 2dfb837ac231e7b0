package automation

import (
	"context"

	"retailops/pkg/models"
)

// CustomerRepository is the customer store the engine mutates.
// Find returns (nil, nil) when the customer does not exist.
type CustomerRepository interface {
	Find(ctx context.Context, id string) (*models.Customer, error)
	Upsert(ctx context.Context, customer *models.Customer) error
}

type AuditEntry struct {
	Description string
	EntityID    string
	EntityType  models.EntityType
}

// AuditLogSink receives one human-readable entry per applied action.
type AuditLogSink interface {
	Append(ctx context.Context, entry AuditEntry) error
}

// RuleSource provides the current rule collection in evaluation order.
type RuleSource interface {
	Rules() []AutomationRule
}

// MissingEntityHook is called when an action targets an entity that does not exist.
type MissingEntityHook func(ctx context.Context, rule AutomationRule, entityType models.EntityType, entityID string)

// StaticRules is a fixed RuleSource.
type StaticRules []AutomationRule

func (s StaticRules) Rules() []AutomationRule {
	out := make([]AutomationRule, len(s))
	copy(out, s)
	return out
}
