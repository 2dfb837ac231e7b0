package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"retailops/internal/logger"
)

type fakeRuleRow struct {
	id         string
	conditions string
	actions    string
}

type fakeRuleRows struct {
	rows    []fakeRuleRow
	pos     int
	scanErr error
	err     error
}

func (r *fakeRuleRows) Next() bool {
	r.pos++
	return r.pos <= len(r.rows)
}

func (r *fakeRuleRows) Err() error {
	return r.err
}

func (r *fakeRuleRows) Scan(dest ...interface{}) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.rows[r.pos-1]
	if len(dest) != 10 {
		return fmt.Errorf("expected 10 columns, got %d", len(dest))
	}
	*dest[0].(*string) = row.id
	*dest[1].(*string) = "rule " + row.id
	*dest[2].(*string) = string(TriggerOrderCreated)
	*dest[3].(*[]byte) = []byte(row.conditions)
	*dest[4].(*[]byte) = []byte(row.actions)
	*dest[5].(*string) = ""
	*dest[6].(*bool) = true
	*dest[7].(*int) = r.pos
	*dest[8].(*time.Time) = time.Unix(0, 0).UTC()
	*dest[9].(*time.Time) = time.Unix(0, 0).UTC()
	return nil
}

const (
	goodConditions = `[{"field":"totalAmount","operator":"GREATER_THAN","value":100}]`
	goodActions    = `[{"type":"ADD_CUSTOMER_TAG","value":"VIP"}]`
)

func TestScanRule_MalformedConditions(t *testing.T) {
	rows := &fakeRuleRows{rows: []fakeRuleRow{{
		id:         "r1",
		conditions: `[{"field":"totalAmount","operator":"GREATER_THAN","value":"100"}]`,
		actions:    goodActions,
	}}}
	require.True(t, rows.Next())

	_, err := ScanRule(rows)
	assert.ErrorIs(t, err, ErrMalformedRule)
	assert.Contains(t, err.Error(), "r1")
}

func TestCollectRules_SkipsMalformedRows(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewWithCore(core, "test")

	rows := &fakeRuleRows{rows: []fakeRuleRow{
		{id: "r1", conditions: goodConditions, actions: goodActions},
		{id: "r2", conditions: `[{"field":"totalAmount","operator":"GREATER_THAN","value":"100"}]`, actions: goodActions},
		{id: "r3", conditions: goodConditions, actions: `{"type":"ADD_CUSTOMER_TAG"}`},
		{id: "r4", conditions: `[]`, actions: goodActions},
	}}

	rules, err := collectRules(context.Background(), rows, log)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "r1", rules[0].ID)
	assert.Equal(t, "r4", rules[1].ID)
	assert.Equal(t, 100.0, rules[0].Conditions[0].Value)

	assert.Equal(t, 2, logs.FilterMessage("Skipping malformed automation rule").Len())
}

func TestCollectRules_ScanAndIterationErrorsFail(t *testing.T) {
	errScan := errors.New("connection reset")

	_, err := collectRules(context.Background(), &fakeRuleRows{
		rows:    []fakeRuleRow{{id: "r1", conditions: goodConditions, actions: goodActions}},
		scanErr: errScan,
	}, logger.NopLogger())
	assert.ErrorIs(t, err, errScan)

	_, err = collectRules(context.Background(), &fakeRuleRows{err: errScan}, logger.NopLogger())
	assert.ErrorIs(t, err, errScan)
}

func TestRuleCache_MalformedRuleDoesNotBlockOthers(t *testing.T) {
	rows := &fakeRuleRows{rows: []fakeRuleRow{
		{id: "bad", conditions: `[{"value":"100"}]`, actions: goodActions},
		{id: "good", conditions: goodConditions, actions: goodActions},
	}}
	rules, err := collectRules(context.Background(), rows, logger.NopLogger())
	require.NoError(t, err)

	repo := &stubRepository{}
	repo.set(rules...)
	cache := NewRuleCache(repo, ruleCacheConfig(), nil)
	require.NoError(t, cache.Load(context.Background()))

	snapshot := cache.Rules()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "good", snapshot[0].ID)
}
