package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retailops/internal/config"
	"retailops/internal/logger"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host:     "db",
		Port:     5432,
		User:     "retail",
		Password: "p@ss word",
		DBName:   "retailops",
	})
	assert.Equal(t, "postgres://retail:p%40ss%20word@db:5432/retailops?sslmode=disable", dsn)
}

func TestInitBroker_Disabled(t *testing.T) {
	cfg := &config.Config{}
	base := NewBase(cfg, logger.NopLogger())

	require.NoError(t, base.InitBroker(context.Background(), "order-service"))
	assert.Nil(t, base.Producer)
	assert.Nil(t, base.Consumer)
	assert.NoError(t, base.Shutdown(context.Background()))
}

func TestShutdownRunsHooksInReverseOnce(t *testing.T) {
	base := NewBase(&config.Config{}, logger.NopLogger())

	var order []string
	base.OnShutdown("databases", func(context.Context) error {
		order = append(order, "databases")
		return nil
	})
	base.OnShutdown("http server", func(context.Context) error {
		order = append(order, "http server")
		return errors.New("still draining")
	})

	err := base.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server: still draining")
	assert.Equal(t, []string{"http server", "databases"}, order)

	assert.NoError(t, base.Shutdown(context.Background()))
	assert.Len(t, order, 2)
}

func TestInitBroker_UnknownType(t *testing.T) {
	cfg := &config.Config{Broker: config.BrokerConfig{Type: "carrier-pigeon"}}
	assert.Error(t, NewBase(cfg, logger.NopLogger()).InitBroker(context.Background(), ""))
}

func TestOptionalStoresSkipWhenUnconfigured(t *testing.T) {
	dc := NewDatabaseConnector(&config.Config{}, logger.NopLogger())

	rdb, err := dc.InitRedis(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rdb)

	mongoClient, err := dc.InitMongoDB(context.Background())
	require.NoError(t, err)
	assert.Nil(t, mongoClient)

	_, err = dc.InitPostgreSQL(context.Background())
	assert.Error(t, err)
}
