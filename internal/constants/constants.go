package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	CacheKeyPrefixIdempotency = "idem:"
	CacheKeyPrefixCustomer    = "customer:"
	LockKeyPrefixCustomer     = "lock:customer:"
)

const (
	DefaultMongoDBName       = "retailops"
	ActivityLogsCollection   = "activity_logs"
	DefaultConfigUpdateTopic = "config_updates"
	DefaultOrderEventsTopic  = "order_events"
	DefaultChangedBy         = "system"
	HeaderUserID             = "X-User-ID"
	HeaderRequestID          = "X-Request-ID"
	HeaderIdempotencyKey     = "Idempotency-Key"
)

const (
	ShutdownTimeout = 5 * time.Second
	InitTimeout     = 30 * time.Second
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// NewCustomerTag is given to customers created from an order form.
const NewCustomerTag = "New customer"

const (
	FallbackAllow  = "allow"
	FallbackReject = "reject"
)

const (
	ServiceNameManagement = "management-service"
	ServiceNameOrder      = "order-service"
)
