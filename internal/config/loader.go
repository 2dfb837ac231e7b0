package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(envReplacer)
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", "15s")
	viper.SetDefault("server.write_timeout_seconds", "15s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("broker.type", "kafka")
	viper.SetDefault("broker.kafka.config_update_topic", "config_updates")
	viper.SetDefault("broker.kafka.order_events_topic", "order_events")
	viper.SetDefault("broker.kafka.retry.max_attempts", 3)
	viper.SetDefault("broker.kafka.retry.initial_interval", "1s")
	viper.SetDefault("broker.kafka.retry.max_interval", "30s")
	viper.SetDefault("broker.kafka.retry.multiplier", 2.0)

	viper.SetDefault("automation.reload.interval_seconds", 30)
	viper.SetDefault("automation.reload.jitter_max_milliseconds", 500)
	viper.SetDefault("automation.locking.backend", LockBackendLocal)
	viper.SetDefault("automation.locking.ttl", "5s")
	viper.SetDefault("automation.locking.retry_interval", "25ms")
	viper.SetDefault("automation.locking.max_wait", "2s")

	viper.SetDefault("orders.idempotency.hash_algorithm", "sha256")
	viper.SetDefault("orders.idempotency.ttl_seconds", 86400)
	viper.SetDefault("orders.idempotency.on_redis_error", "allow")

	viper.SetDefault("customers.cache.ttl_seconds", 300)
}

// envKeys are bound to upper-snake environment variables, e.g.
// database.postgres.host reads DATABASE_POSTGRES_HOST.
var envKeys = []string{
	"server.port",
	"server.read_timeout_seconds",
	"server.write_timeout_seconds",
	"logging.level",
	"logging.format",

	"database.run_migrations",
	"database.postgres.host",
	"database.postgres.port",
	"database.postgres.user",
	"database.postgres.password",
	"database.postgres.dbname",
	"database.postgres.sslmode",
	"database.redis.host",
	"database.redis.port",
	"database.redis.password",
	"database.redis.db",
	"database.mongodb.uri",
	"database.mongodb.database",

	"broker.type",
	"broker.kafka.brokers",
	"broker.kafka.group_id",
	"broker.kafka.config_update_topic",
	"broker.kafka.order_events_topic",
	"broker.kafka.dlq_topic",

	"automation.locking.backend",
	"orders.idempotency.enabled",
	"customers.cache.enabled",

	"tracing.enabled",
	"tracing.service_name",
	"tracing.otlp.endpoint",
	"tracing.otlp.insecure",
}

var envReplacer = strings.NewReplacer(".", "_")

func envName(key string) string {
	return strings.ToUpper(envReplacer.Replace(key))
}

func bindEnvVariables() {
	for _, key := range envKeys {
		_ = viper.BindEnv(key, envName(key))
	}
}

// applyEnvOverrides handles list settings, which arrive from the environment
// as one comma-separated string.
func applyEnvOverrides(cfg *Config) error {
	if brokers := splitList(viper.GetString(envName("broker.kafka.brokers"))); len(brokers) > 0 {
		cfg.Broker.Kafka.Brokers = brokers
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
