package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	EventTypeAutomationRuleUpdated = "automation_rule_updated"
	EventTypeOrderCreated          = "order_created"
	EventTypeOrderStatusChanged    = "order_status_changed"
)

const (
	ServiceTypeAutomation = "automation"
	ServiceTypeOrders     = "orders"
)

// Rule change actions carried by ConfigUpdateEvent.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionToggle = "toggle"
)

// ConfigUpdateEvent tells order-service instances that the rule set changed.
type ConfigUpdateEvent struct {
	EventType   string    `json:"event_type"`
	ServiceType string    `json:"service_type"`
	RuleID      string    `json:"rule_id,omitempty"`
	Action      string    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
	ChangedBy   string    `json:"changed_by,omitempty"`
}

// Payload flattens the event into an envelope payload.
func (e ConfigUpdateEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"event_type":   e.EventType,
		"service_type": e.ServiceType,
		"rule_id":      e.RuleID,
		"action":       e.Action,
		"timestamp":    e.Timestamp.Format(time.RFC3339Nano),
		"changed_by":   e.ChangedBy,
	}
}

// DecodeConfigUpdateEvent reads the event back out of an envelope payload.
func DecodeConfigUpdateEvent(payload map[string]interface{}) (ConfigUpdateEvent, error) {
	var event ConfigUpdateEvent
	raw, err := json.Marshal(payload)
	if err != nil {
		return event, fmt.Errorf("encode config event payload: %w", err)
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return event, fmt.Errorf("decode config event: %w", err)
	}
	return event, nil
}
