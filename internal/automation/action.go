package automation

import (
	"context"
	"fmt"
	"time"

	"retailops/internal/logger"
	"retailops/pkg/metrics"
	"retailops/pkg/models"
)

// ActionExecutor applies a single rule action to the world.
// It never returns an error: failures are logged, counted and reported.
type ActionExecutor struct {
	customers CustomerRepository
	audit     AuditLogSink
	locker    Locker
	onMissing MissingEntityHook
	logger    logger.Logger
	now       func() time.Time
}

func NewActionExecutor(customers CustomerRepository, audit AuditLogSink, locker Locker, onMissing MissingEntityHook, log logger.Logger) *ActionExecutor {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if log == nil {
		log = logger.NopLogger()
	}
	return &ActionExecutor{
		customers: customers,
		audit:     audit,
		locker:    locker,
		onMissing: onMissing,
		logger:    log,
		now:       time.Now,
	}
}

func (x *ActionExecutor) Execute(ctx context.Context, rule AutomationRule, action RuleAction, event Event) ActionResult {
	result := ActionResult{RuleID: rule.ID, Action: action}

	switch action.Type {
	case ActionAddCustomerTag:
		result = x.addCustomerTag(ctx, rule, action, event)
	default:
		x.logger.DebugwCtx(ctx, "Skipping unsupported automation action",
			"rule_id", rule.ID,
			"action_type", action.Type,
		)
		result.Outcome = OutcomeUnsupported
	}

	metrics.IncAction(string(action.Type), string(result.Outcome))
	return result
}

func (x *ActionExecutor) addCustomerTag(ctx context.Context, rule AutomationRule, action RuleAction, event Event) ActionResult {
	result := ActionResult{RuleID: rule.ID, Action: action}

	// Values are trimmed when a rule is saved. The executor adds them as stored.
	tag := action.Value
	if tag == "" {
		result.Outcome = OutcomeUnsupported
		x.logger.WarnwCtx(ctx, "Automation action has an empty tag", "rule_id", rule.ID)
		return result
	}

	customerID, ok := stringField(event.Payload, PayloadCustomerID)
	if !ok {
		result.Outcome = OutcomeMissingTarget
		x.logger.WarnwCtx(ctx, "Event has no customer to tag",
			"rule_id", rule.ID,
			"event_id", event.ID,
		)
		return result
	}

	customer, added, err := x.unionTag(ctx, customerID, tag)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		x.logger.ErrorwCtx(ctx, "Failed to apply customer tag",
			"rule_id", rule.ID,
			"customer_id", customerID,
			"tag", tag,
			"error", err,
		)
		return result
	}

	if customer == nil {
		result.Outcome = OutcomeMissingEntity
		metrics.IncMissingEntity(string(models.EntityTypeCustomer))
		x.logger.InfowCtx(ctx, "Automation target customer not found",
			"rule_id", rule.ID,
			"customer_id", customerID,
		)
		if x.onMissing != nil {
			x.onMissing(ctx, rule, models.EntityTypeCustomer, customerID)
		}
		return result
	}

	result.Outcome = OutcomeApplied
	if !added {
		result.Outcome = OutcomeAlreadyPresent
	}

	// The entry is written even when the tag was already present: the rule
	// fired, and the feed records firings rather than effective changes.
	entry := AuditEntry{
		Description: fmt.Sprintf("Rule %q added tag %q to customer %s.", rule.Name, tag, customer.Name),
		EntityID:    customer.ID,
		EntityType:  models.EntityTypeCustomer,
	}
	if x.audit != nil {
		if err := x.audit.Append(ctx, entry); err != nil {
			result.Error = err.Error()
			x.logger.WarnwCtx(ctx, "Failed to append automation audit entry",
				"rule_id", rule.ID,
				"customer_id", customer.ID,
				"error", err,
			)
		}
	}

	return result
}

// unionTag performs the locked read-union-write. It returns a nil customer
// when the customer does not exist. The write happens even when the tag was
// already present, so every firing leaves the same trace in the store.
func (x *ActionExecutor) unionTag(ctx context.Context, customerID, tag string) (*models.Customer, bool, error) {
	unlock, err := x.locker.Lock(ctx, customerID)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock for customer %s: %w", customerID, err)
	}
	defer unlock()

	current, err := x.customers.Find(ctx, customerID)
	if err != nil {
		return nil, false, fmt.Errorf("find customer %s: %w", customerID, err)
	}
	if current == nil {
		return nil, false, nil
	}

	updated := current.Clone()
	added := updated.AddTag(tag)
	updated.UpdatedAt = x.now()

	if err := x.customers.Upsert(ctx, updated); err != nil {
		return nil, false, fmt.Errorf("upsert customer %s: %w", customerID, err)
	}

	return updated, added, nil
}
