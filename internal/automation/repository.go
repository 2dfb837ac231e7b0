package automation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"retailops/internal/logger"
)

// ErrMalformedRule marks a stored rule whose conditions or actions cannot
// be decoded.
var ErrMalformedRule = errors.New("malformed automation rule")

type Repository interface {
	ListRules(ctx context.Context) ([]AutomationRule, error)
}

type PostgresRepository struct {
	db     *sql.DB
	logger logger.Logger
}

type RepositoryOption func(*PostgresRepository)

func WithRepositoryLogger(log logger.Logger) RepositoryOption {
	return func(r *PostgresRepository) {
		r.logger = log
	}
}

func NewRepository(db *sql.DB, opts ...RepositoryOption) Repository {
	r := &PostgresRepository{db: db, logger: logger.NopLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RuleColumns is the column list matching ScanRule.
const RuleColumns = `id, name, trigger_type, conditions, actions, expression, is_enabled, position, created_at, updated_at`

// ListRules returns every rule, enabled or not, in evaluation order.
// Malformed rules are logged and left out.
func (r *PostgresRepository) ListRules(ctx context.Context) ([]AutomationRule, error) {
	query := `SELECT ` + RuleColumns + `
		FROM automation_rules
		ORDER BY position ASC, created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query automation rules: %w", err)
	}
	defer rows.Close()

	return collectRules(ctx, rows, r.logger)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type rowIterator interface {
	rowScanner
	Next() bool
	Err() error
}

func collectRules(ctx context.Context, rows rowIterator, log logger.Logger) ([]AutomationRule, error) {
	rules := make([]AutomationRule, 0)
	for rows.Next() {
		rule, err := ScanRule(rows)
		if errors.Is(err, ErrMalformedRule) {
			log.ErrorwCtx(ctx, "Skipping malformed automation rule",
				"error", err,
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rules, nil
}

// ScanRule reads one automation_rules row selected with RuleColumns.
func ScanRule(row rowScanner) (*AutomationRule, error) {
	var (
		rule           AutomationRule
		trigger        string
		conditionsJSON []byte
		actionsJSON    []byte
	)

	if err := row.Scan(
		&rule.ID,
		&rule.Name,
		&trigger,
		&conditionsJSON,
		&actionsJSON,
		&rule.Expression,
		&rule.IsEnabled,
		&rule.Position,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan automation rule: %w", err)
	}

	rule.Trigger = Trigger(trigger)
	rule.Conditions = make([]RuleCondition, 0)
	rule.Actions = make([]RuleAction, 0)

	if len(conditionsJSON) > 0 {
		if err := json.Unmarshal(conditionsJSON, &rule.Conditions); err != nil {
			return nil, fmt.Errorf("%w: conditions of rule %s: %v", ErrMalformedRule, rule.ID, err)
		}
	}
	if len(actionsJSON) > 0 {
		if err := json.Unmarshal(actionsJSON, &rule.Actions); err != nil {
			return nil, fmt.Errorf("%w: actions of rule %s: %v", ErrMalformedRule, rule.ID, err)
		}
	}

	return &rule, nil
}
