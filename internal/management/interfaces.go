package management

import (
	"context"

	"retailops/internal/automation"
)

type Service interface {
	CreateRule(ctx context.Context, req CreateRuleRequest) (*automation.AutomationRule, error)
	ListRules(ctx context.Context) ([]automation.AutomationRule, error)
	GetRule(ctx context.Context, id string) (*automation.AutomationRule, error)
	UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*automation.AutomationRule, error)
	SetRuleEnabled(ctx context.Context, id string, enabled bool) (*automation.AutomationRule, error)
	DeleteRule(ctx context.Context, id string) error
	GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error)
	GetAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditLog, error)
}

// RuleNotifier tells running order services that the rule set changed.
type RuleNotifier interface {
	PublishRuleEvent(ctx context.Context, action, ruleID, changedBy string) error
}
