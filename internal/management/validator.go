package management

import (
	"fmt"
	"strings"

	"retailops/internal/automation"
	"retailops/pkg/cel"
)

const maxActionValueLength = 64

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRule checks a complete rule as it would be stored.
func ValidateRule(rule *automation.AutomationRule, evaluator *cel.Evaluator) error {
	if strings.TrimSpace(rule.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if !rule.Trigger.IsKnown() {
		return &ValidationError{Field: "trigger", Message: fmt.Sprintf("unknown trigger %q", rule.Trigger)}
	}

	for i, cond := range rule.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		if !cond.Field.IsKnown() {
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown field %q", cond.Field)}
		}
		if !cond.Operator.IsKnown() {
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown operator %q", cond.Operator)}
		}
		if cond.Value <= 0 {
			return &ValidationError{Field: field, Message: "value must be greater than 0"}
		}
	}

	if len(rule.Actions) == 0 {
		return &ValidationError{Field: "actions", Message: "at least one action is required"}
	}
	for i, action := range rule.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if !action.Type.IsKnown() {
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown action type %q", action.Type)}
		}
		value := strings.TrimSpace(action.Value)
		if value == "" {
			return &ValidationError{Field: field, Message: "value is required"}
		}
		if len(value) > maxActionValueLength {
			return &ValidationError{Field: field, Message: fmt.Sprintf("value must be at most %d characters", maxActionValueLength)}
		}
	}

	if rule.Expression != "" {
		if err := evaluator.ValidatePredicate(rule.Expression); err != nil {
			return &ValidationError{Field: "expression", Message: fmt.Sprintf("invalid CEL expression: %v", err)}
		}
	}
	return nil
}

// normalizeRule trims the name and every action value in place.
func normalizeRule(rule *automation.AutomationRule) {
	rule.Name = strings.TrimSpace(rule.Name)
	rule.Expression = strings.TrimSpace(rule.Expression)
	if rule.Conditions == nil {
		rule.Conditions = []automation.RuleCondition{}
	}
	for i := range rule.Actions {
		rule.Actions[i].Value = strings.TrimSpace(rule.Actions[i].Value)
	}
}
