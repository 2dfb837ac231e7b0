package automation

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"retailops/internal/config"
	"retailops/internal/logger"
	"retailops/pkg/metrics"
)

// RuleCache keeps an in-memory snapshot of the rule collection.
// Readers always get a copy, so a reload never mutates a slice in use.
type RuleCache struct {
	repo    Repository
	rules   []AutomationRule
	rulesMu sync.RWMutex
	cfg     config.ReloadConfig
	logger  logger.Logger
}

func NewRuleCache(repo Repository, cfg config.ReloadConfig, log logger.Logger) *RuleCache {
	if log == nil {
		log = logger.NopLogger()
	}
	return &RuleCache{
		repo:   repo,
		rules:  make([]AutomationRule, 0),
		cfg:    cfg,
		logger: log,
	}
}

func (c *RuleCache) Rules() []AutomationRule {
	c.rulesMu.RLock()
	defer c.rulesMu.RUnlock()

	rules := make([]AutomationRule, len(c.rules))
	copy(rules, c.rules)
	return rules
}

// Load fetches rules immediately. Used at startup.
func (c *RuleCache) Load(ctx context.Context) error {
	return c.reload(ctx, true)
}

// ReloadRules fetches rules after a random jitter so that replicas
// receiving the same config event do not hit the database together.
func (c *RuleCache) ReloadRules(ctx context.Context) error {
	return c.reload(ctx, false)
}

func (c *RuleCache) reload(ctx context.Context, skipJitter bool) error {
	if err := c.applyJitter(ctx, skipJitter); err != nil {
		return err
	}

	c.logger.DebugwCtx(ctx, "Loading automation rules from database")
	rules, err := c.repo.ListRules(ctx)
	if err != nil {
		return err
	}

	c.rulesMu.Lock()
	c.rules = rules
	c.rulesMu.Unlock()

	metrics.SetAutomationActiveRules(countEnabled(rules))
	c.logger.InfowCtx(ctx, "Successfully reloaded automation rules",
		"rules_count", len(rules),
	)
	return nil
}

func (c *RuleCache) applyJitter(ctx context.Context, skipJitter bool) error {
	if skipJitter || c.cfg.JitterMaxMilliseconds <= 0 {
		return nil
	}

	jitter := time.Duration(rand.Intn(c.cfg.JitterMaxMilliseconds)) * time.Millisecond
	c.logger.DebugwCtx(ctx, "Reload scheduled with jitter",
		"jitter_ms", jitter.Milliseconds(),
	)

	timer := time.NewTimer(jitter)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartReloader polls the repository until ctx is cancelled.
func (c *RuleCache) StartReloader(ctx context.Context) error {
	interval := time.Duration(c.cfg.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ReloadRules(ctx); err != nil {
				c.logger.ErrorwCtx(ctx, "Failed to reload automation rules",
					"error", err,
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func countEnabled(rules []AutomationRule) int {
	n := 0
	for _, r := range rules {
		if r.IsEnabled {
			n++
		}
	}
	return n
}
