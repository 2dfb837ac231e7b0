package automation

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/pkg/models"
)

func newTestEngine(t *testing.T, customers CustomerRepository, sink AuditLogSink, opts ...EngineOption) *Engine {
	t.Helper()
	engine, err := NewEngine(customers, sink, opts...)
	require.NoError(t, err)
	return engine
}

func TestEngine_AboveThresholdTagsCustomer(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	report := engine.Evaluate(context.Background(), []AutomationRule{vipRule("r1", 1000000)}, orderEvent("c1", 1500000))

	assert.Equal(t, []string{"VIP"}, customers.get("c1").Tags)
	entries := sink.all()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Description, "Big spender")
	assert.Contains(t, entries[0].Description, "VIP")
	assert.Equal(t, "c1", entries[0].EntityID)
	assert.Equal(t, models.EntityTypeCustomer, entries[0].EntityType)

	assert.Equal(t, []string{"r1"}, report.MatchedRules)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeApplied, report.Actions[0].Outcome)
}

func TestEngine_EqualToThresholdDoesNothing(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	report := engine.Evaluate(context.Background(), []AutomationRule{vipRule("r1", 1000000)}, orderEvent("c1", 1000000))

	assert.Empty(t, customers.get("c1").Tags)
	assert.Empty(t, sink.all())
	assert.Empty(t, report.MatchedRules)
	assert.Equal(t, 0, customers.upsertCount())
}

func TestEngine_TagValueAppliedVerbatim(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	engine := newTestEngine(t, customers, &memorySink{})

	engine.Evaluate(context.Background(), []AutomationRule{tagRule("r1", " Gold member")}, orderEvent("c1", 10))

	assert.Equal(t, []string{" Gold member"}, customers.get("c1").Tags)
}

func TestEngine_DisabledRuleDoesNothing(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	rule := vipRule("r1", 1000000)
	rule.IsEnabled = false

	for _, amount := range []float64{0, 1000000, 1500000, 99999999} {
		report := engine.Evaluate(context.Background(), []AutomationRule{rule}, orderEvent("c1", amount))
		assert.Empty(t, report.MatchedRules)
	}

	assert.Empty(t, customers.get("c1").Tags)
	assert.Empty(t, sink.all())
	assert.Equal(t, 0, customers.upsertCount())
}

func TestEngine_TagAlreadyPresentStillAudited(t *testing.T) {
	customers := newMemoryCustomers(customer("c1", "VIP"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	report := engine.Evaluate(context.Background(), []AutomationRule{vipRule("r1", 1000000)}, orderEvent("c1", 2000000))

	assert.Equal(t, []string{"VIP"}, customers.get("c1").Tags)
	assert.Len(t, sink.all(), 1)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeAlreadyPresent, report.Actions[0].Outcome)
}

func TestEngine_EmptyConditionsMatchEverything(t *testing.T) {
	rule := tagRule("r1", "customer")

	for _, amount := range []float64{0, 1, 1000000, 5e9} {
		customers := newMemoryCustomers(customer("c1"))
		sink := &memorySink{}
		engine := newTestEngine(t, customers, sink)

		report := engine.Evaluate(context.Background(), []AutomationRule{rule}, orderEvent("c1", amount))

		assert.Equal(t, []string{"r1"}, report.MatchedRules)
		assert.Equal(t, []string{"customer"}, customers.get("c1").Tags)
	}
}

func TestEngine_MissingCustomerIsNoOp(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}

	var hookCalls []string
	engine := newTestEngine(t, customers, sink, WithMissingEntityHook(
		func(_ context.Context, rule AutomationRule, entityType models.EntityType, entityID string) {
			hookCalls = append(hookCalls, rule.ID+":"+string(entityType)+":"+entityID)
		},
	))

	var report Report
	require.NotPanics(t, func() {
		report = engine.Evaluate(context.Background(), []AutomationRule{vipRule("r1", 100)}, orderEvent("ghost", 1500000))
	})

	assert.Empty(t, sink.all())
	assert.Equal(t, 0, customers.upsertCount())
	assert.Empty(t, customers.get("c1").Tags)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeMissingEntity, report.Actions[0].Outcome)
	assert.Equal(t, []string{"r1:customer:ghost"}, hookCalls)
}

func TestEngine_AndSemantics(t *testing.T) {
	rule := tagRule("r1", "mid",
		RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 100},
		RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 500},
	)

	tests := []struct {
		amount  float64
		matched bool
	}{
		{amount: 50, matched: false},
		{amount: 300, matched: false},
		{amount: 501, matched: true},
	}

	for _, tt := range tests {
		customers := newMemoryCustomers(customer("c1"))
		engine := newTestEngine(t, customers, &memorySink{})
		report := engine.Evaluate(context.Background(), []AutomationRule{rule}, orderEvent("c1", tt.amount))
		assert.Equal(t, tt.matched, len(report.MatchedRules) == 1, "amount %v", tt.amount)
	}
}

func TestEngine_MultipleRulesRunIndependently(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	rules := []AutomationRule{
		vipRule("r1", 1000),
		tagRule("r2", "big-order", RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 500}),
	}

	report := engine.Evaluate(context.Background(), rules, orderEvent("c1", 5000))

	assert.Equal(t, []string{"r1", "r2"}, report.MatchedRules)
	assert.Equal(t, []string{"VIP", "big-order"}, customers.get("c1").Tags)
	assert.Len(t, sink.all(), 2)
}

func TestEngine_FailingRuleDoesNotStopLaterRules(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	rules := []AutomationRule{
		{
			ID:        "broken",
			Name:      "Broken",
			Trigger:   TriggerOrderCreated,
			Actions:   []RuleAction{{Type: "SEND_SMS", Value: "hi"}, {Type: ActionAddCustomerTag, Value: "  "}},
			IsEnabled: true,
		},
		{
			ID:         "bad-expr",
			Name:       "Bad expression",
			Trigger:    TriggerOrderCreated,
			Expression: "payload.nope.deeper == 1",
			Actions:    []RuleAction{{Type: ActionAddCustomerTag, Value: "never"}},
			IsEnabled:  true,
		},
		tagRule("r3", "reached"),
	}

	report := engine.Evaluate(context.Background(), rules, orderEvent("c1", 10))

	assert.Equal(t, []string{"broken", "r3"}, report.MatchedRules)
	require.Len(t, report.Actions, 3)
	assert.Equal(t, OutcomeUnsupported, report.Actions[0].Outcome)
	assert.Equal(t, OutcomeUnsupported, report.Actions[1].Outcome)
	assert.Equal(t, OutcomeApplied, report.Actions[2].Outcome)
	assert.Equal(t, []string{"reached"}, customers.get("c1").Tags)
}

func TestEngine_RecoversPanickingAction(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"), customer("c2"))
	customers.panicOn = "c1"
	sink := &memorySink{}
	locker := NewKeyedMutex()
	engine := newTestEngine(t, customers, sink, WithLocker(locker))

	var report Report
	require.NotPanics(t, func() {
		report = engine.Evaluate(context.Background(), []AutomationRule{tagRule("r1", "VIP")}, orderEvent("c1", 10))
	})

	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeFailed, report.Actions[0].Outcome)
	assert.NotEmpty(t, report.Actions[0].Error)
	assert.Equal(t, 0, locker.Len())

	report = engine.Evaluate(context.Background(), []AutomationRule{tagRule("r1", "VIP")}, orderEvent("c2", 10))
	assert.Equal(t, OutcomeApplied, report.Actions[0].Outcome)
}

func TestEngine_StoreErrorsAreReported(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	customers.upsertErr = errStore
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	report := engine.Evaluate(context.Background(), []AutomationRule{tagRule("r1", "VIP")}, orderEvent("c1", 10))

	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeFailed, report.Actions[0].Outcome)
	assert.Contains(t, report.Actions[0].Error, errStore.Error())
	assert.Empty(t, sink.all())
}

func TestEngine_AuditFailureKeepsTag(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{err: errStore}
	engine := newTestEngine(t, customers, sink)

	report := engine.Evaluate(context.Background(), []AutomationRule{tagRule("r1", "VIP")}, orderEvent("c1", 10))

	assert.Equal(t, []string{"VIP"}, customers.get("c1").Tags)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeApplied, report.Actions[0].Outcome)
	assert.NotEmpty(t, report.Actions[0].Error)
}

func TestEngine_MissingCustomerIDInPayload(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	event := Event{ID: "e", Type: TriggerOrderCreated, Payload: map[string]interface{}{PayloadTotalAmount: 10.0}}
	report := engine.Evaluate(context.Background(), []AutomationRule{tagRule("r1", "VIP")}, event)

	require.Len(t, report.Actions, 1)
	assert.Equal(t, OutcomeMissingTarget, report.Actions[0].Outcome)
	assert.Empty(t, sink.all())
}

func TestEngine_IgnoresOtherTriggers(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	engine := newTestEngine(t, customers, &memorySink{})

	rule := tagRule("r1", "VIP")
	rule.Trigger = "ORDER_SHIPPED"

	report := engine.Evaluate(context.Background(), []AutomationRule{rule}, orderEvent("c1", 10))
	assert.Empty(t, report.MatchedRules)
	assert.Empty(t, customers.get("c1").Tags)
}

func TestEngine_ExpressionIsAndedWithConditions(t *testing.T) {
	rule := tagRule("r1", "cod-big",
		RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 100},
	)
	rule.Expression = "payload.paymentMethod == 'cod'"

	tests := []struct {
		name    string
		method  string
		amount  float64
		matched bool
	}{
		{name: "both hold", method: "cod", amount: 200, matched: true},
		{name: "expression fails", method: "bank_transfer", amount: 200, matched: false},
		{name: "condition fails", method: "cod", amount: 50, matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			customers := newMemoryCustomers(customer("c1"))
			engine := newTestEngine(t, customers, &memorySink{})

			event := orderEvent("c1", tt.amount)
			event.Payload[PayloadPaymentMethod] = tt.method

			report := engine.Evaluate(context.Background(), []AutomationRule{rule}, event)
			assert.Equal(t, tt.matched, len(report.MatchedRules) == 1)
		})
	}
}

func TestEngine_ConcurrentEventsForSameCustomer(t *testing.T) {
	customers := newMemoryCustomers(customer("c1"))
	sink := &memorySink{}
	engine := newTestEngine(t, customers, sink)

	tags := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	rules := make([]AutomationRule, 0, len(tags))
	for _, tag := range tags {
		rules = append(rules, tagRule("r-"+tag, tag))
	}

	var wg sync.WaitGroup
	for i := range rules {
		wg.Add(1)
		go func(rule AutomationRule) {
			defer wg.Done()
			engine.Evaluate(context.Background(), []AutomationRule{rule}, orderEvent("c1", 10))
		}(rules[i])
	}
	wg.Wait()

	assert.ElementsMatch(t, tags, customers.get("c1").Tags)
	assert.Len(t, sink.all(), len(tags))
}
