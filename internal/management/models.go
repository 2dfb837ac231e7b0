package management

import (
	"time"

	"retailops/internal/automation"
)

// RuleTypeAutomation is the rule_type recorded on versions and audit logs.
const RuleTypeAutomation = "automation"

type CreateRuleRequest struct {
	Name       string                     `json:"name" binding:"required"`
	Trigger    automation.Trigger         `json:"trigger" binding:"required"`
	Conditions []automation.RuleCondition `json:"conditions"`
	Actions    []automation.RuleAction    `json:"actions" binding:"required"`
	Expression string                     `json:"expression"`
	IsEnabled  *bool                      `json:"is_enabled"`
}

// UpdateRuleRequest changes only the fields that are present. Conditions
// and actions are replaced wholesale when given.
type UpdateRuleRequest struct {
	Name       *string                     `json:"name"`
	Trigger    *automation.Trigger         `json:"trigger"`
	Conditions *[]automation.RuleCondition `json:"conditions"`
	Actions    *[]automation.RuleAction    `json:"actions"`
	Expression *string                     `json:"expression"`
	IsEnabled  *bool                       `json:"is_enabled"`
	Position   *int                        `json:"position"`
}

type SetEnabledRequest struct {
	IsEnabled *bool `json:"is_enabled" binding:"required"`
}

type RuleVersion struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	RuleType     string    `json:"rule_type"`
	RuleData     string    `json:"rule_data"`
	Version      int       `json:"version"`
	ChangedBy    string    `json:"changed_by,omitempty"`
	ChangeReason string    `json:"change_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditLog struct {
	ID           string                 `json:"id"`
	RuleID       *string                `json:"rule_id,omitempty"`
	RuleType     string                 `json:"rule_type"`
	Action       string                 `json:"action"`
	OldValue     map[string]interface{} `json:"old_value,omitempty"`
	NewValue     map[string]interface{} `json:"new_value,omitempty"`
	ChangedBy    string                 `json:"changed_by"`
	ChangeReason string                 `json:"change_reason,omitempty"`
	IPAddress    string                 `json:"ip_address,omitempty"`
	Timestamp    time.Time              `json:"timestamp"`
}

type AuditFilter struct {
	RuleID   *string
	RuleType string
	Limit    int
}
