package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/config"
	"retailops/internal/logger"
	"retailops/pkg/models"
)

type recordingProducer struct {
	mu        sync.Mutex
	published map[string][]models.MessageEnvelope
	err       error
}

func (p *recordingProducer) Publish(_ context.Context, topic string, msg models.MessageEnvelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.published == nil {
		p.published = make(map[string][]models.MessageEnvelope)
	}
	p.published[topic] = append(p.published[topic], msg)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func fastRetryConfig() config.KafkaConfig {
	return config.KafkaConfig{
		DLQTopic: "dlq",
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			Multiplier:      1.5,
		},
	}
}

func TestOpen(t *testing.T) {
	_, err := Open(config.BrokerConfig{}, "order-service", logger.NopLogger())
	assert.ErrorIs(t, err, ErrDisabled)

	_, err = Open(config.BrokerConfig{Type: "rabbitmq"}, "order-service", logger.NopLogger())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDisabled)

	clients, err := Open(config.BrokerConfig{Type: TypeKafka, Kafka: config.KafkaConfig{Brokers: []string{"localhost:9092"}}}, "order-service", logger.NopLogger())
	require.NoError(t, err)
	consumer, ok := clients.Consumer.(*KafkaConsumer)
	require.True(t, ok)
	assert.Equal(t, "order-service", consumer.serviceName)
	assert.NoError(t, clients.Close())
}

func TestProcessMessageWithRetry(t *testing.T) {
	consumer := &KafkaConsumer{cfg: fastRetryConfig(), logger: logger.NopLogger(), serviceName: "test"}

	attempts := 0
	err := consumer.processMessageWithRetry(context.Background(), models.MessageEnvelope{ID: "m1"}, func(context.Context, models.MessageEnvelope) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, "topic")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestProcessMessageWithRetry_GivesUp(t *testing.T) {
	consumer := &KafkaConsumer{cfg: fastRetryConfig(), logger: logger.NopLogger(), serviceName: "test"}

	attempts := 0
	err := consumer.processMessageWithRetry(context.Background(), models.MessageEnvelope{ID: "m1"}, func(context.Context, models.MessageEnvelope) error {
		attempts++
		return errors.New("always")
	}, "topic")
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestProcessMessageWithRetry_RecoversPanic(t *testing.T) {
	cfg := fastRetryConfig()
	cfg.Retry.MaxAttempts = 1
	consumer := &KafkaConsumer{cfg: cfg, logger: logger.NopLogger(), serviceName: "test"}

	err := consumer.processMessageWithRetry(context.Background(), models.MessageEnvelope{}, func(context.Context, models.MessageEnvelope) error {
		panic("boom")
	}, "topic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestSendToDLQ(t *testing.T) {
	dlq := &recordingProducer{}
	consumer := &KafkaConsumer{cfg: fastRetryConfig(), logger: logger.NopLogger(), serviceName: "test", dlqProducer: dlq}

	err := consumer.sendToDLQ(context.Background(), models.MessageEnvelope{ID: "m1"}, errors.New("bad payload"), "config_updates")
	require.NoError(t, err)

	require.Len(t, dlq.published["dlq"], 1)
	sent := dlq.published["dlq"][0]
	assert.Equal(t, "m1", sent.ID)
	assert.Equal(t, "bad payload", sent.Metadata.Enrichment["dlq_reason"])
	assert.Equal(t, "config_updates", sent.Metadata.Enrichment["dlq_source_topic"])

	dlq.err = errors.New("kafka down")
	assert.Error(t, consumer.sendToDLQ(context.Background(), models.MessageEnvelope{ID: "m2"}, errors.New("x"), "t"))
}

func TestRetryPolicyDefaults(t *testing.T) {
	consumer := &KafkaConsumer{cfg: config.KafkaConfig{}}
	policy := consumer.retryPolicy()
	assert.Equal(t, 3, policy.MaxAttempts)
	assert.Equal(t, time.Second, policy.InitialInterval)
	assert.Zero(t, policy.MaxElapsedTime)
}
