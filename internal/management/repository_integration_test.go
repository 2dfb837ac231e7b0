//go:build integration

package management

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/automation"
	"retailops/internal/testinfra"
	"retailops/pkg/models"
)

func TestPostgresRepository_RuleLifecycle(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Postgres: true})
	repo := NewRepository(infra.PostgresDB)
	ctx := context.Background()

	first := &automation.AutomationRule{
		Name:    "VIP over 2M",
		Trigger: automation.TriggerOrderCreated,
		Conditions: []automation.RuleCondition{
			{Field: automation.FieldTotalAmount, Operator: automation.OperatorGreaterThan, Value: 2000000},
		},
		Actions:   []automation.RuleAction{{Type: automation.ActionAddCustomerTag, Value: "VIP"}},
		IsEnabled: true,
	}
	second := &automation.AutomationRule{
		Name:       "Everyone",
		Trigger:    automation.TriggerOrderCreated,
		Conditions: []automation.RuleCondition{},
		Actions:    []automation.RuleAction{{Type: automation.ActionAddCustomerTag, Value: "buyer"}},
	}

	require.NoError(t, repo.CreateRule(ctx, first))
	require.NoError(t, repo.CreateRule(ctx, second))
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)

	rules, err := repo.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, first.ID, rules[0].ID)
	assert.Equal(t, first.Conditions, rules[0].Conditions)
	assert.False(t, rules[1].IsEnabled)

	got, err := repo.GetRule(ctx, first.ID)
	require.NoError(t, err)
	got.IsEnabled = false
	got.Position = 3
	require.NoError(t, repo.UpdateRule(ctx, got))

	rules, err = repo.ListRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, rules[0].ID)

	require.NoError(t, repo.DeleteRule(ctx, first.ID))
	assert.ErrorIs(t, repo.DeleteRule(ctx, first.ID), ErrRuleNotFound)

	_, err = repo.GetRule(ctx, first.ID)
	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestVersioningRepository_VersionsAndAudit(t *testing.T) {
	infra := testinfra.Setup(t, testinfra.Options{Postgres: true})
	versioning := NewVersioningRepository(infra.PostgresDB)
	svc, err := NewService(NewRepository(infra.PostgresDB), WithVersioning(versioning))
	require.NoError(t, err)
	ctx := context.Background()

	rule, err := svc.CreateRule(ctx, CreateRuleRequest{
		Name:    "VIP",
		Trigger: automation.TriggerOrderCreated,
		Actions: []automation.RuleAction{{Type: automation.ActionAddCustomerTag, Value: "VIP"}},
	})
	require.NoError(t, err)

	_, err = svc.SetRuleEnabled(ctx, rule.ID, false)
	require.NoError(t, err)

	versions, err := svc.GetRuleVersions(ctx, rule.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)

	next, err := versioning.GetNextVersion(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)

	logs, err := svc.GetAuditLogs(ctx, AuditFilter{RuleID: &rule.ID, RuleType: RuleTypeAutomation})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionToggle, logs[0].Action)
	assert.Equal(t, true, logs[0].OldValue["is_enabled"])
	assert.Equal(t, false, logs[0].NewValue["is_enabled"])
	assert.Equal(t, models.ActionCreate, logs[1].Action)
}
