package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"retailops/pkg/logging"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		format string
	}{
		{name: "json info", level: "info", format: "json"},
		{name: "console debug", level: "debug", format: "console"},
		{name: "unknown level falls back to info", level: "verbose", format: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.level, tt.format)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}

func TestContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core, "order-service")

	ctx := logging.WithTraceID(context.Background(), "trace-1")
	ctx = logging.WithRequestID(ctx, "req-1")

	log.InfowCtx(ctx, "order created", "order_id", "o-1")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "order-service", fields["service_name"])
	assert.Equal(t, "o-1", fields["order_id"])
}

func TestContextFields_ServiceNameFromContextWins(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core, "default-name")

	ctx := logging.WithServiceName(context.Background(), "ctx-name")
	log.WarnwCtx(ctx, "warning")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "ctx-name", logs.All()[0].ContextMap()["service_name"])
}
