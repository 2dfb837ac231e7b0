package models

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys stamped into envelope metadata by NewEnvelope.
const (
	MetaEventType   = "event_type"
	MetaServiceType = "service_type"
)

// MessageEnvelope is the wire format for everything published to Kafka.
type MessageEnvelope struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
	Metadata  Metadata               `json:"metadata"`
}

type Metadata struct {
	TraceID    string                 `json:"trace_id,omitempty"`
	Enrichment map[string]interface{} `json:"enrichment,omitempty"`
}

// NewEnvelope wraps payload with a fresh ID and UTC timestamp and tags it
// with the routing keys consumers filter on.
func NewEnvelope(source, eventType, serviceType string, payload map[string]interface{}) MessageEnvelope {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	msg := MessageEnvelope{
		ID:        uuid.New().String(),
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	msg.Annotate(MetaEventType, eventType)
	msg.Annotate(MetaServiceType, serviceType)
	return msg
}

// WithTraceID returns a copy of msg carrying traceID.
func (msg MessageEnvelope) WithTraceID(traceID string) MessageEnvelope {
	msg.Metadata.TraceID = traceID
	return msg
}

// Annotate sets a metadata enrichment field.
func (msg *MessageEnvelope) Annotate(name string, value interface{}) {
	if msg.Metadata.Enrichment == nil {
		msg.Metadata.Enrichment = make(map[string]interface{})
	}
	msg.Metadata.Enrichment[name] = value
}

// Lookup reads a string field from the metadata enrichment, then from the
// payload for producers that only fill the payload.
func (msg MessageEnvelope) Lookup(key string) (string, bool) {
	if v, ok := msg.Metadata.Enrichment[key].(string); ok {
		return v, true
	}
	if v, ok := msg.Payload[key].(string); ok {
		return v, true
	}
	return "", false
}
