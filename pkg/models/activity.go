package models

import "time"

type EntityType string

const (
	EntityTypeOrder      EntityType = "order"
	EntityTypeCustomer   EntityType = "customer"
	EntityTypeSystem     EntityType = "system"
	EntityTypeAutomation EntityType = "automation"
	EntityTypeReturn     EntityType = "return"
	EntityTypeUser       EntityType = "user"
)

func (t EntityType) IsKnown() bool {
	switch t {
	case EntityTypeOrder, EntityTypeCustomer, EntityTypeSystem,
		EntityTypeAutomation, EntityTypeReturn, EntityTypeUser:
		return true
	default:
		return false
	}
}

// ActivityLog is one entry of the human-readable activity feed.
type ActivityLog struct {
	ID          string     `json:"id" bson:"_id"`
	Timestamp   time.Time  `json:"timestamp" bson:"timestamp"`
	Description string     `json:"description" bson:"description"`
	EntityID    string     `json:"entity_id,omitempty" bson:"entity_id,omitempty"`
	EntityType  EntityType `json:"entity_type,omitempty" bson:"entity_type,omitempty"`
}
