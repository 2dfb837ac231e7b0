package management

import (
	"context"
	"time"

	"retailops/internal/broker"
	"retailops/internal/constants"
	"retailops/pkg/logging"
	"retailops/pkg/models"
)

// ConfigEventProducer publishes automation_rule_updated events so that
// every order service reloads its rule snapshot.
type ConfigEventProducer struct {
	producer broker.Producer
	topic    string
}

func NewConfigEventProducer(producer broker.Producer, topic string) *ConfigEventProducer {
	if topic == "" {
		topic = constants.DefaultConfigUpdateTopic
	}
	return &ConfigEventProducer{
		producer: producer,
		topic:    topic,
	}
}

func (p *ConfigEventProducer) PublishRuleEvent(ctx context.Context, action, ruleID, changedBy string) error {
	if p.producer == nil {
		return nil
	}

	event := models.ConfigUpdateEvent{
		EventType:   models.EventTypeAutomationRuleUpdated,
		ServiceType: models.ServiceTypeAutomation,
		RuleID:      ruleID,
		Action:      action,
		Timestamp:   time.Now().UTC(),
		ChangedBy:   changedBy,
	}

	envelope := models.NewEnvelope(constants.ServiceNameManagement, event.EventType, event.ServiceType, event.Payload()).
		WithTraceID(logging.GetTraceID(ctx))

	return p.producer.Publish(ctx, p.topic, envelope)
}
