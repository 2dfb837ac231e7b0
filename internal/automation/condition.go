package automation

import (
	"encoding/json"
)

// EvaluateCondition reports whether cond holds for payload.
// Unknown field or operator pairs, missing fields and non-numeric values
// all evaluate to false.
func EvaluateCondition(cond RuleCondition, payload map[string]interface{}) bool {
	switch cond.Field {
	case FieldTotalAmount:
		amount, ok := numberField(payload, PayloadTotalAmount)
		if !ok {
			return false
		}
		return compare(cond.Operator, amount, cond.Value)
	default:
		return false
	}
}

// EvaluateConditions ANDs every condition. An empty list holds.
func EvaluateConditions(conds []RuleCondition, payload map[string]interface{}) bool {
	for _, cond := range conds {
		if !EvaluateCondition(cond, payload) {
			return false
		}
	}
	return true
}

func compare(op Operator, actual, expected float64) bool {
	switch op {
	case OperatorGreaterThan:
		return actual > expected
	default:
		return false
	}
}

func numberField(payload map[string]interface{}, key string) (float64, bool) {
	if payload == nil {
		return 0, false
	}
	raw, ok := payload[key]
	if !ok || raw == nil {
		return 0, false
	}
	return toFloat(raw)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func stringField(payload map[string]interface{}, key string) (string, bool) {
	if payload == nil {
		return "", false
	}
	s, ok := payload[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
