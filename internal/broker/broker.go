package broker

import (
	"context"
	stderrors "errors"
	"fmt"

	"retailops/internal/config"
	"retailops/internal/logger"
	"retailops/pkg/models"
)

const TypeKafka = "kafka"

// ErrDisabled is returned by Open when broker.type is empty.
var ErrDisabled = stderrors.New("broker disabled")

// Producer publishes envelopes. Rule changes and order events both travel
// this way.
type Producer interface {
	Publish(ctx context.Context, topic string, msg models.MessageEnvelope) error
	Close() error
}

// Consumer blocks in Consume until ctx ends or the handler loop fails.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
}

type HandlerFunc func(ctx context.Context, msg models.MessageEnvelope) error

// Clients is the producer and consumer pair owned by one service.
type Clients struct {
	Producer Producer
	Consumer Consumer
}

// Open builds the clients for the configured broker. serviceName labels the
// consumer's logs and retry metrics.
func Open(cfg config.BrokerConfig, serviceName string, log logger.Logger) (*Clients, error) {
	switch cfg.Type {
	case "":
		return nil, ErrDisabled
	case TypeKafka:
		consumer := NewKafkaConsumer(cfg.Kafka, log)
		if serviceName != "" {
			consumer.SetServiceName(serviceName)
		}
		return &Clients{
			Producer: NewKafkaProducer(cfg.Kafka, log),
			Consumer: consumer,
		}, nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// Close closes both clients and joins their errors.
func (c *Clients) Close() error {
	var errs []error
	if c.Producer != nil {
		if err := c.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer: %w", err))
		}
	}
	if c.Consumer != nil {
		if err := c.Consumer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("consumer: %w", err))
		}
	}
	return stderrors.Join(errs...)
}
