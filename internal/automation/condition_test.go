package automation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateCondition(t *testing.T) {
	gt := RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 1000000}

	tests := []struct {
		name     string
		cond     RuleCondition
		payload  map[string]interface{}
		expected bool
	}{
		{
			name:     "above threshold",
			cond:     gt,
			payload:  map[string]interface{}{PayloadTotalAmount: 1500000.0},
			expected: true,
		},
		{
			name:     "equal to threshold is not greater",
			cond:     gt,
			payload:  map[string]interface{}{PayloadTotalAmount: 1000000.0},
			expected: false,
		},
		{
			name:     "below threshold",
			cond:     gt,
			payload:  map[string]interface{}{PayloadTotalAmount: 999999.99},
			expected: false,
		},
		{
			name:     "integer amount",
			cond:     gt,
			payload:  map[string]interface{}{PayloadTotalAmount: 2000000},
			expected: true,
		},
		{
			name:     "json number amount",
			cond:     gt,
			payload:  map[string]interface{}{PayloadTotalAmount: json.Number("1000001")},
			expected: true,
		},
		{
			name:     "missing field",
			cond:     gt,
			payload:  map[string]interface{}{PayloadCustomerID: "c1"},
			expected: false,
		},
		{
			name:     "nil payload",
			cond:     gt,
			payload:  nil,
			expected: false,
		},
		{
			name:     "non numeric amount",
			cond:     gt,
			payload:  map[string]interface{}{PayloadTotalAmount: "1500000"},
			expected: false,
		},
		{
			name:     "equals operator never matches",
			cond:     RuleCondition{Field: FieldTotalAmount, Operator: OperatorEquals, Value: 500},
			payload:  map[string]interface{}{PayloadTotalAmount: 500.0},
			expected: false,
		},
		{
			name:     "unknown operator fails closed",
			cond:     RuleCondition{Field: FieldTotalAmount, Operator: "LESS_THAN", Value: 10},
			payload:  map[string]interface{}{PayloadTotalAmount: 1.0},
			expected: false,
		},
		{
			name:     "unknown field fails closed",
			cond:     RuleCondition{Field: "itemCount", Operator: OperatorGreaterThan, Value: 0},
			payload:  map[string]interface{}{"itemCount": 5},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EvaluateCondition(tt.cond, tt.payload))
		})
	}
}

func TestEvaluateConditions(t *testing.T) {
	payload := map[string]interface{}{PayloadTotalAmount: 150.0}
	above100 := RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 100}
	above200 := RuleCondition{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: 200}

	assert.True(t, EvaluateConditions(nil, payload))
	assert.True(t, EvaluateConditions([]RuleCondition{}, nil))
	assert.True(t, EvaluateConditions([]RuleCondition{above100}, payload))
	assert.False(t, EvaluateConditions([]RuleCondition{above100, above200}, payload))
	assert.False(t, EvaluateConditions([]RuleCondition{above200, above100}, payload))
}
