package management

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"retailops/internal/automation"
	"retailops/internal/constants"
	"retailops/internal/logger"
	"retailops/pkg/cel"
	pkgerrors "retailops/pkg/errors"
	"retailops/pkg/logging"
	"retailops/pkg/models"
)

type service struct {
	repo           Repository
	versioningRepo VersioningRepository
	notifier       RuleNotifier
	evaluator      *cel.Evaluator
	logger         logger.Logger
}

type ServiceOption func(*service)

func WithVersioning(versioningRepo VersioningRepository) ServiceOption {
	return func(s *service) {
		s.versioningRepo = versioningRepo
	}
}

func WithConfigEvents(notifier RuleNotifier) ServiceOption {
	return func(s *service) {
		s.notifier = notifier
	}
}

func WithLogger(log logger.Logger) ServiceOption {
	return func(s *service) {
		s.logger = log
	}
}

func NewService(repo Repository, opts ...ServiceOption) (Service, error) {
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL evaluator: %w", err)
	}

	s := &service{
		repo:      repo,
		evaluator: evaluator,
		logger:    logger.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *service) CreateRule(ctx context.Context, req CreateRuleRequest) (*automation.AutomationRule, error) {
	rule := &automation.AutomationRule{
		Name:       req.Name,
		Trigger:    req.Trigger,
		Conditions: req.Conditions,
		Actions:    req.Actions,
		Expression: req.Expression,
		IsEnabled:  getEnabledValue(req.IsEnabled),
	}
	normalizeRule(rule)
	if err := ValidateRule(rule, s.evaluator); err != nil {
		return nil, validation(err)
	}

	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}

	s.recordChange(ctx, rule, models.ActionCreate, nil)
	return rule, nil
}

func (s *service) ListRules(ctx context.Context) ([]automation.AutomationRule, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return rules, nil
}

func (s *service) GetRule(ctx context.Context, id string) (*automation.AutomationRule, error) {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	return rule, nil
}

func (s *service) UpdateRule(ctx context.Context, id string, req UpdateRuleRequest) (*automation.AutomationRule, error) {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}

	oldValue, _ := ruleToMap(rule)
	applyUpdate(rule, req)
	normalizeRule(rule)
	if err := ValidateRule(rule, s.evaluator); err != nil {
		return nil, validation(err)
	}

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, s.handleNotFoundError(err, id)
	}

	s.recordChange(ctx, rule, models.ActionUpdate, oldValue)
	return rule, nil
}

func (s *service) SetRuleEnabled(ctx context.Context, id string, enabled bool) (*automation.AutomationRule, error) {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, s.handleNotFoundError(err, id)
	}
	if rule.IsEnabled == enabled {
		return rule, nil
	}

	oldValue, _ := ruleToMap(rule)
	rule.IsEnabled = enabled

	if err := s.repo.UpdateRule(ctx, rule); err != nil {
		return nil, s.handleNotFoundError(err, id)
	}

	s.recordChange(ctx, rule, models.ActionToggle, oldValue)
	return rule, nil
}

func (s *service) DeleteRule(ctx context.Context, id string) error {
	rule, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return s.handleNotFoundError(err, id)
	}

	oldValue, _ := ruleToMap(rule)

	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return s.handleNotFoundError(err, id)
	}

	changedBy := getChangedBy(ctx)
	if s.versioningRepo != nil {
		auditLog := buildAuditLog(id, models.ActionDelete, oldValue, nil, changedBy)
		if err := s.versioningRepo.CreateAuditLog(ctx, auditLog); err != nil {
			s.logger.WarnwCtx(ctx, "Failed to write rule audit log", "rule_id", id, "error", err)
		}
	}
	s.publishConfigEvent(ctx, models.ActionDelete, id, changedBy)
	return nil
}

func (s *service) GetRuleVersions(ctx context.Context, ruleID string) ([]RuleVersion, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "versioning not enabled")
	}
	versions, err := s.versioningRepo.GetVersions(ctx, ruleID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return versions, nil
}

func (s *service) GetAuditLogs(ctx context.Context, filter AuditFilter) ([]AuditLog, error) {
	if s.versioningRepo == nil {
		return nil, pkgerrors.ErrInternal.WithDetail("message", "audit logging not enabled")
	}
	if filter.Limit <= 0 || filter.Limit > constants.MaxLimit {
		filter.Limit = constants.DefaultLimit
	}
	logs, err := s.versioningRepo.GetAuditLogs(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrInternal)
	}
	return logs, nil
}

func (s *service) handleNotFoundError(err error, id string) error {
	if errors.Is(err, ErrRuleNotFound) {
		return pkgerrors.ErrNotFound.WithDetail("message", fmt.Sprintf("automation rule '%s' not found", id)).WithDetail("id", id)
	}
	return pkgerrors.Wrap(err, pkgerrors.ErrInternal)
}

// recordChange stores a version and an audit entry, then notifies order
// services. None of these steps can fail the request: the rule is
// already saved.
func (s *service) recordChange(ctx context.Context, rule *automation.AutomationRule, action string, oldValue map[string]interface{}) {
	changedBy := getChangedBy(ctx)

	if s.versioningRepo != nil {
		if err := s.createVersion(ctx, rule, changedBy); err != nil {
			s.logger.WarnwCtx(ctx, "Failed to write rule version", "rule_id", rule.ID, "error", err)
		}

		newValue, _ := ruleToMap(rule)
		auditLog := buildAuditLog(rule.ID, action, oldValue, newValue, changedBy)
		if err := s.versioningRepo.CreateAuditLog(ctx, auditLog); err != nil {
			s.logger.WarnwCtx(ctx, "Failed to write rule audit log", "rule_id", rule.ID, "error", err)
		}
	}

	s.publishConfigEvent(ctx, action, rule.ID, changedBy)
}

func (s *service) createVersion(ctx context.Context, rule *automation.AutomationRule, changedBy string) error {
	data, err := json.Marshal(rule)
	if err != nil {
		return err
	}
	next, err := s.versioningRepo.GetNextVersion(ctx, rule.ID)
	if err != nil {
		return err
	}
	return s.versioningRepo.CreateVersion(ctx, &RuleVersion{
		RuleID:    rule.ID,
		RuleType:  RuleTypeAutomation,
		RuleData:  string(data),
		Version:   next,
		ChangedBy: changedBy,
	})
}

func (s *service) publishConfigEvent(ctx context.Context, action, ruleID, changedBy string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishRuleEvent(ctx, action, ruleID, changedBy); err != nil {
		s.logger.WarnwCtx(ctx, "Failed to publish rule update event", "rule_id", ruleID, "action", action, "error", err)
	}
}

func buildAuditLog(ruleID, action string, oldValue, newValue map[string]interface{}, changedBy string) *AuditLog {
	return &AuditLog{
		RuleID:    &ruleID,
		RuleType:  RuleTypeAutomation,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedBy: changedBy,
	}
}

func applyUpdate(rule *automation.AutomationRule, req UpdateRuleRequest) {
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Trigger != nil {
		rule.Trigger = *req.Trigger
	}
	if req.Conditions != nil {
		rule.Conditions = *req.Conditions
	}
	if req.Actions != nil {
		rule.Actions = *req.Actions
	}
	if req.Expression != nil {
		rule.Expression = *req.Expression
	}
	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}
	if req.Position != nil {
		rule.Position = *req.Position
	}
}

func validation(err error) error {
	return pkgerrors.ErrValidation.WithCause(err).WithDetail("message", err.Error())
}

func getEnabledValue(reqEnabled *bool) bool {
	if reqEnabled == nil {
		return true
	}
	return *reqEnabled
}

func getChangedBy(ctx context.Context) string {
	if userID := logging.GetUserID(ctx); userID != "" {
		return userID
	}
	return constants.DefaultChangedBy
}
