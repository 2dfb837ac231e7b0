package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AutomationEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_events_total",
			Help: "Total number of domain events evaluated by the automation engine (count)",
		},
		[]string{"trigger"},
	)

	AutomationRuleEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_rule_evaluations_total",
			Help: "Total number of automation rule evaluations (count)",
		},
		[]string{"rule_id", "result"},
	)

	AutomationActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_actions_total",
			Help: "Total number of automation actions executed, by outcome (count)",
		},
		[]string{"action_type", "outcome"},
	)

	AutomationMissingEntitiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_missing_entities_total",
			Help: "Total number of actions skipped because the target entity did not exist (count)",
		},
		[]string{"entity_type"},
	)

	AutomationEvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "automation_evaluation_duration_ms",
			Help:    "Duration of a full engine evaluation for one event in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		},
		[]string{"trigger"},
	)

	AutomationActiveRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "automation_active_rules",
			Help: "Number of automation rules in the loaded snapshot (count)",
		},
	)

	OrdersCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created (count)",
		},
		[]string{"payment_method"},
	)

	IdempotencyChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idempotency_checks_total",
			Help: "Total number of idempotency key checks (count)",
		},
		[]string{"status"},
	)

	IdempotencyCheckDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idempotency_check_duration_ms",
			Help:    "Duration of idempotency key checks in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"status"},
	)

	CustomerCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "customer_cache_requests_total",
			Help: "Total number of customer cache lookups (count)",
		},
		[]string{"result"},
	)

	LockAcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lock_acquisitions_total",
			Help: "Total number of per-customer lock acquisitions (count)",
		},
		[]string{"backend", "status"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"service", "topic"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of messages sent to DLQ (count)",
		},
		[]string{"service", "topic", "reason"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"topic", "status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	FallbackUsageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fallback_usage_total",
			Help: "Total number of times fallback strategies were used (count)",
		},
		[]string{"service", "strategy", "reason"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"database", "operation", "status"},
	)
)

var (
	automationOnce     sync.Once
	ordersOnce         sync.Once
	brokerOnce         sync.Once
	circuitBreakerOnce sync.Once
	sharedOnce         sync.Once
)

func RegisterAutomationMetrics() {
	automationOnce.Do(func() {
		prometheus.MustRegister(AutomationEventsTotal)
		prometheus.MustRegister(AutomationRuleEvaluationsTotal)
		prometheus.MustRegister(AutomationActionsTotal)
		prometheus.MustRegister(AutomationMissingEntitiesTotal)
		prometheus.MustRegister(AutomationEvaluationDuration)
		prometheus.MustRegister(AutomationActiveRules)
		prometheus.MustRegister(LockAcquisitionsTotal)
	})
}

func RegisterOrderMetrics() {
	ordersOnce.Do(func() {
		prometheus.MustRegister(OrdersCreatedTotal)
		prometheus.MustRegister(IdempotencyChecksTotal)
		prometheus.MustRegister(IdempotencyCheckDuration)
	})
	registerSharedOnce()
}

// registerSharedOnce covers collectors used by more than one service.
func registerSharedOnce() {
	sharedOnce.Do(func() {
		prometheus.MustRegister(CustomerCacheRequestsTotal)
		prometheus.MustRegister(DatabaseQueriesTotal)
		prometheus.MustRegister(RateLimitRequestsTotal)
		prometheus.MustRegister(FallbackUsageTotal)
	})
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(RetryAttemptsTotal)
		prometheus.MustRegister(DLQMessagesTotal)
		prometheus.MustRegister(KafkaMessagesWrittenTotal)
	})
}

func RegisterCircuitBreakerMetrics() {
	circuitBreakerOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func RegisterManagementMetrics() {
	registerSharedOnce()
}

func ObserveEvaluationDuration(trigger string, duration time.Duration) {
	AutomationEvaluationDuration.WithLabelValues(trigger).Observe(float64(duration.Milliseconds()))
}

func IncRuleEvaluation(ruleID string, matched bool) {
	result := "no_match"
	if matched {
		result = "match"
	}
	AutomationRuleEvaluationsTotal.WithLabelValues(ruleID, result).Inc()
}

func IncAction(actionType, outcome string) {
	AutomationActionsTotal.WithLabelValues(actionType, outcome).Inc()
}

func IncMissingEntity(entityType string) {
	AutomationMissingEntitiesTotal.WithLabelValues(entityType).Inc()
}

func SetAutomationActiveRules(count int) {
	AutomationActiveRules.Set(float64(count))
}

func ObserveIdempotencyCheck(duration time.Duration, status string) {
	IdempotencyChecksTotal.WithLabelValues(status).Inc()
	IdempotencyCheckDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func IncDatabaseQuery(database, operation, status string) {
	DatabaseQueriesTotal.WithLabelValues(database, operation, status).Inc()
}
