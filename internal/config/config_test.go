package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8080,
			ReadTimeoutSeconds:  15 * time.Second,
			WriteTimeoutSeconds: 15 * time.Second,
		},
		Broker: BrokerConfig{
			Type: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "order-service",
				Retry:   RetryConfig{MaxAttempts: 3, Multiplier: 2},
			},
		},
		Automation: AutomationConfig{
			Reload:  ReloadConfig{IntervalSeconds: 30},
			Locking: LockingConfig{Backend: LockBackendLocal},
		},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(cfg *Config)
		wantError bool
		field     string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:      "invalid port",
			mutate:    func(cfg *Config) { cfg.Server.Port = 0 },
			wantError: true,
			field:     "server.port",
		},
		{
			name:   "no broker configured",
			mutate: func(cfg *Config) { cfg.Broker.Type = "" },
		},
		{
			name:      "unknown broker",
			mutate:    func(cfg *Config) { cfg.Broker.Type = "rabbitmq" },
			wantError: true,
			field:     "broker.type",
		},
		{
			name:      "kafka without group id",
			mutate:    func(cfg *Config) { cfg.Broker.Kafka.GroupID = "" },
			wantError: true,
			field:     "broker.kafka.group_id",
		},
		{
			name:      "redis locking without redis",
			mutate:    func(cfg *Config) { cfg.Automation.Locking.Backend = LockBackendRedis },
			wantError: true,
			field:     "automation.locking.backend",
		},
		{
			name: "redis locking with redis",
			mutate: func(cfg *Config) {
				cfg.Automation.Locking = LockingConfig{Backend: LockBackendRedis, TTL: time.Second}
				cfg.Database.Redis = RedisConfig{Host: "localhost", Port: 6379}
			},
		},
		{
			name:      "unknown locking backend",
			mutate:    func(cfg *Config) { cfg.Automation.Locking.Backend = "zookeeper" },
			wantError: true,
			field:     "automation.locking.backend",
		},
		{
			name:      "invalid idempotency hash",
			mutate:    func(cfg *Config) { cfg.Orders.Idempotency.HashAlgorithm = "crc32" },
			wantError: true,
			field:     "orders.idempotency.hash_algorithm",
		},
		{
			name:      "invalid idempotency fallback",
			mutate:    func(cfg *Config) { cfg.Orders.Idempotency.OnRedisError = "maybe" },
			wantError: true,
			field:     "orders.idempotency.on_redis_error",
		},
		{
			name:      "customer cache without ttl",
			mutate:    func(cfg *Config) { cfg.Customers.Cache = CacheConfig{Enabled: true} },
			wantError: true,
			field:     "customers.cache.ttl_seconds",
		},
		{
			name:      "bad mongodb uri",
			mutate:    func(cfg *Config) { cfg.Database.MongoDB = MongoDBConfig{URI: "http://mongo", Database: "retail"} },
			wantError: true,
			field:     "database.mongodb.uri",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(cfg *Config) { cfg.Tracing = TracingConfig{Enabled: true} },
			wantError: true,
			field:     "tracing.otlp.endpoint",
		},
		{
			name: "tracing with unknown sampler",
			mutate: func(cfg *Config) {
				cfg.Tracing = TracingConfig{Enabled: true, OTLP: OTLPConfig{Endpoint: "otel:4317"}, Sampler: SamplerConfig{Type: "sometimes"}}
			},
			wantError: true,
			field:     "tracing.sampler.type",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(cfg *Config) {
				cfg.Tracing = TracingConfig{Enabled: true, OTLP: OTLPConfig{Endpoint: "otel:4317"}, Sampler: SamplerConfig{Type: "traceidratio", Param: 2}}
			},
			wantError: true,
			field:     "tracing.sampler.param",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateStatic(cfg)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidateServer_ReturnsValidationError(t *testing.T) {
	err := validateServer(ServerConfig{Port: 70000})

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "server.port", vErr.Field)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
broker:
  type: kafka
  kafka:
    brokers: ["kafka:9092"]
    group_id: order-service
automation:
  reload:
    interval_seconds: 10
  locking:
    backend: local
orders:
  idempotency:
    enabled: true
circuit_breaker:
  enabled: true
  max_requests: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeoutSeconds)
	assert.Equal(t, []string{"kafka:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, "order_events", cfg.Broker.Kafka.OrderEventsTopic)
	assert.Equal(t, 10, cfg.Automation.Reload.IntervalSeconds)
	assert.Equal(t, 500, cfg.Automation.Reload.JitterMaxMilliseconds)
	assert.Equal(t, 5*time.Second, cfg.Automation.Locking.TTL)
	assert.True(t, cfg.Orders.Idempotency.Enabled)
	assert.Equal(t, "sha256", cfg.Orders.Idempotency.HashAlgorithm)
	assert.True(t, cfg.CircuitBreaker.Enabled)
	assert.Equal(t, uint32(5), cfg.CircuitBreaker.MaxRequests)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
broker:
  type: kafka
  kafka:
    brokers: ["kafka:9092"]
    group_id: order-service
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("BROKER_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.Kafka.Brokers)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "DATABASE_POSTGRES_HOST", envName("database.postgres.host"))
	assert.Equal(t, "BROKER_KAFKA_DLQ_TOPIC", envName("broker.kafka.dlq_topic"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a:1", "b:2"}, splitList(" a:1 ,, b:2 "))
	assert.Nil(t, splitList(""))
}
