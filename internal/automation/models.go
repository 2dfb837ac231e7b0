package automation

import (
	"time"
)

// Trigger names the domain event a rule listens to.
type Trigger string

const (
	TriggerOrderCreated Trigger = "ORDER_CREATED"
)

func (t Trigger) IsKnown() bool {
	switch t {
	case TriggerOrderCreated:
		return true
	default:
		return false
	}
}

type ConditionField string

const (
	FieldTotalAmount ConditionField = "totalAmount"
)

func (f ConditionField) IsKnown() bool {
	switch f {
	case FieldTotalAmount:
		return true
	default:
		return false
	}
}

type Operator string

const (
	OperatorGreaterThan Operator = "GREATER_THAN"
	// OperatorEquals can appear on stored rules but is never evaluated, so a
	// condition using it never matches. New rules cannot use it.
	OperatorEquals Operator = "EQUALS"
)

// IsKnown reports whether the operator can be evaluated.
func (o Operator) IsKnown() bool {
	switch o {
	case OperatorGreaterThan:
		return true
	default:
		return false
	}
}

type ActionType string

const (
	ActionAddCustomerTag ActionType = "ADD_CUSTOMER_TAG"
)

func (a ActionType) IsKnown() bool {
	switch a {
	case ActionAddCustomerTag:
		return true
	default:
		return false
	}
}

type RuleCondition struct {
	Field    ConditionField `json:"field"`
	Operator Operator       `json:"operator"`
	Value    float64        `json:"value"`
}

type RuleAction struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value"`
}

// AutomationRule is a trigger, an AND of conditions and an ordered list of actions.
// Rules are evaluated in collection order: Position, then CreatedAt.
type AutomationRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Trigger    Trigger         `json:"trigger"`
	Conditions []RuleCondition `json:"conditions"`
	Actions    []RuleAction    `json:"actions"`
	IsEnabled  bool            `json:"is_enabled"`
	Position   int             `json:"position"`
	Expression string          `json:"expression,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Payload keys of an ORDER_CREATED event.
const (
	PayloadOrderID       = "orderId"
	PayloadCustomerID    = "customerId"
	PayloadTotalAmount   = "totalAmount"
	PayloadStatus        = "status"
	PayloadPaymentMethod = "paymentMethod"
	PayloadItemCount     = "itemCount"
)

type Event struct {
	ID         string
	Type       Trigger
	Payload    map[string]interface{}
	OccurredAt time.Time
}

type ActionOutcome string

const (
	OutcomeApplied        ActionOutcome = "applied"
	OutcomeAlreadyPresent ActionOutcome = "already_present"
	OutcomeMissingEntity  ActionOutcome = "missing_entity"
	OutcomeMissingTarget  ActionOutcome = "missing_target"
	OutcomeUnsupported    ActionOutcome = "unsupported"
	OutcomeFailed         ActionOutcome = "failed"
)

type ActionResult struct {
	RuleID  string        `json:"rule_id"`
	Action  RuleAction    `json:"action"`
	Outcome ActionOutcome `json:"outcome"`
	Error   string        `json:"error,omitempty"`
}

// Report describes what one evaluation did. It is informational only;
// callers must not branch on it for correctness.
type Report struct {
	EventID      string         `json:"event_id"`
	Trigger      Trigger        `json:"trigger"`
	MatchedRules []string       `json:"matched_rules"`
	Actions      []ActionResult `json:"actions"`
}
