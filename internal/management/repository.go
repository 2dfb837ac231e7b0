package management

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"retailops/internal/automation"
	"retailops/pkg/metrics"
)

var ErrRuleNotFound = errors.New("automation rule not found")

type Repository interface {
	CreateRule(ctx context.Context, rule *automation.AutomationRule) error
	ListRules(ctx context.Context) ([]automation.AutomationRule, error)
	GetRule(ctx context.Context, id string) (*automation.AutomationRule, error)
	UpdateRule(ctx context.Context, rule *automation.AutomationRule) error
	DeleteRule(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

// CreateRule appends the rule to the end of the evaluation order unless a
// position was set by the caller.
func (r *PostgresRepository) CreateRule(ctx context.Context, rule *automation.AutomationRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	conditions, actions, err := encodeRuleBody(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automation_rules (` + automation.RuleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			COALESCE($8::int, (SELECT COALESCE(MAX(position), 0) + 1 FROM automation_rules)),
			$9, $10)
		RETURNING position
	`

	var position sql.NullInt64
	if rule.Position > 0 {
		position = sql.NullInt64{Int64: int64(rule.Position), Valid: true}
	}

	err = r.db.QueryRowContext(ctx, query,
		rule.ID, rule.Name, string(rule.Trigger), conditions, actions, rule.Expression,
		rule.IsEnabled, position, rule.CreatedAt, rule.UpdatedAt,
	).Scan(&rule.Position)
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "rule_create", "error")
		return fmt.Errorf("failed to create automation rule: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "rule_create", "ok")
	return nil
}

func (r *PostgresRepository) GetRule(ctx context.Context, id string) (*automation.AutomationRule, error) {
	query := `SELECT ` + automation.RuleColumns + ` FROM automation_rules WHERE id = $1`

	rule, err := automation.ScanRule(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get automation rule: %w", err)
	}
	return rule, nil
}

func (r *PostgresRepository) ListRules(ctx context.Context) ([]automation.AutomationRule, error) {
	return automation.NewRepository(r.db).ListRules(ctx)
}

func (r *PostgresRepository) UpdateRule(ctx context.Context, rule *automation.AutomationRule) error {
	rule.UpdatedAt = time.Now().UTC()

	conditions, actions, err := encodeRuleBody(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE automation_rules
		SET name = $1, trigger_type = $2, conditions = $3, actions = $4, expression = $5,
			is_enabled = $6, position = $7, updated_at = $8
		WHERE id = $9
	`

	res, err := r.db.ExecContext(ctx, query,
		rule.Name, string(rule.Trigger), conditions, actions, rule.Expression,
		rule.IsEnabled, rule.Position, rule.UpdatedAt, rule.ID,
	)
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "rule_update", "error")
		return fmt.Errorf("failed to update automation rule: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "rule_update", "ok")
	return expectOneRow(res)
}

func (r *PostgresRepository) DeleteRule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM automation_rules WHERE id = $1`, id)
	if err != nil {
		metrics.IncDatabaseQuery("postgres", "rule_delete", "error")
		return fmt.Errorf("failed to delete automation rule: %w", err)
	}
	metrics.IncDatabaseQuery("postgres", "rule_delete", "ok")
	return expectOneRow(res)
}

func encodeRuleBody(rule *automation.AutomationRule) ([]byte, []byte, error) {
	conds := rule.Conditions
	if conds == nil {
		conds = []automation.RuleCondition{}
	}
	acts := rule.Actions
	if acts == nil {
		acts = []automation.RuleAction{}
	}

	conditions, err := json.Marshal(conds)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal conditions: %w", err)
	}
	actions, err := json.Marshal(acts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal actions: %w", err)
	}
	return conditions, actions, nil
}

func expectOneRow(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRuleNotFound
	}
	return nil
}
