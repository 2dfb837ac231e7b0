package automation

import (
	"context"
	"time"

	"retailops/internal/logger"
	"retailops/pkg/cel"
	pkgerrors "retailops/pkg/errors"
	"retailops/pkg/metrics"
	"retailops/pkg/tracing"
)

// PredicateEvaluator runs a rule's optional expression against an event.
type PredicateEvaluator interface {
	EvaluatePredicate(ctx context.Context, expression, trigger string, payload map[string]interface{}) (bool, error)
}

// Engine evaluates automation rules against domain events.
// It holds no per-event state and is safe for concurrent use.
type Engine struct {
	executor   *ActionExecutor
	predicates PredicateEvaluator
	logger     logger.Logger
}

type EngineOption func(*engineOptions)

type engineOptions struct {
	locker     Locker
	onMissing  MissingEntityHook
	predicates PredicateEvaluator
	logger     logger.Logger
}

func WithLocker(locker Locker) EngineOption {
	return func(o *engineOptions) {
		o.locker = locker
	}
}

func WithMissingEntityHook(hook MissingEntityHook) EngineOption {
	return func(o *engineOptions) {
		o.onMissing = hook
	}
}

func WithPredicateEvaluator(p PredicateEvaluator) EngineOption {
	return func(o *engineOptions) {
		o.predicates = p
	}
}

func WithLogger(log logger.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = log
	}
}

func NewEngine(customers CustomerRepository, audit AuditLogSink, opts ...EngineOption) (*Engine, error) {
	o := engineOptions{logger: logger.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.predicates == nil {
		evaluator, err := cel.NewEvaluator()
		if err != nil {
			return nil, err
		}
		o.predicates = evaluator
	}

	return &Engine{
		executor:   NewActionExecutor(customers, audit, o.locker, o.onMissing, o.logger),
		predicates: o.predicates,
		logger:     o.logger,
	}, nil
}

// Evaluate runs every enabled rule whose trigger matches the event, in slice
// order. A rule's actions run in list order. A failing or non-matching rule
// never prevents later rules from running.
func (e *Engine) Evaluate(ctx context.Context, rules []AutomationRule, event Event) Report {
	ctx, span := tracing.Tracer(tracing.ScopeAutomation).Start(ctx, "automation.evaluate")
	defer span.End()

	start := time.Now()
	report := Report{
		EventID:      event.ID,
		Trigger:      event.Type,
		MatchedRules: make([]string, 0),
		Actions:      make([]ActionResult, 0),
	}

	for _, rule := range rules {
		if !rule.IsEnabled || rule.Trigger != event.Type {
			continue
		}

		matched := e.matches(ctx, rule, event)
		metrics.IncRuleEvaluation(rule.ID, matched)
		if !matched {
			continue
		}

		report.MatchedRules = append(report.MatchedRules, rule.ID)
		e.logger.DebugwCtx(ctx, "Automation rule matched",
			"rule_id", rule.ID,
			"rule_name", rule.Name,
			"event_id", event.ID,
		)

		for _, action := range rule.Actions {
			report.Actions = append(report.Actions, e.runAction(ctx, rule, action, event))
		}
	}

	metrics.AutomationEventsTotal.WithLabelValues(string(event.Type)).Inc()
	metrics.ObserveEvaluationDuration(string(event.Type), time.Since(start))
	return report
}

func (e *Engine) matches(ctx context.Context, rule AutomationRule, event Event) bool {
	if !EvaluateConditions(rule.Conditions, event.Payload) {
		return false
	}
	if rule.Expression == "" {
		return true
	}

	ok, err := e.predicates.EvaluatePredicate(ctx, rule.Expression, string(event.Type), event.Payload)
	if err != nil {
		e.logger.WarnwCtx(ctx, "Rule expression failed, treating as no match",
			"rule_id", rule.ID,
			"error", err,
		)
		return false
	}
	return ok
}

func (e *Engine) runAction(ctx context.Context, rule AutomationRule, action RuleAction, event Event) (result ActionResult) {
	err := pkgerrors.Guard(func() error {
		result = e.executor.Execute(ctx, rule, action, event)
		return nil
	})
	if err != nil {
		e.logger.ErrorwCtx(ctx, "Recovered panic in automation action",
			"rule_id", rule.ID,
			"action_type", action.Type,
			"error", err,
		)
		result = ActionResult{
			RuleID:  rule.ID,
			Action:  action,
			Outcome: OutcomeFailed,
			Error:   err.Error(),
		}
	}
	return result
}
