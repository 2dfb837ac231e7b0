package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"retailops/internal/config"
)

func TestKafkaHeadersRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "produce")
	defer span.End()

	headers := InjectTraceContext(ctx, []kafka.Header{{Key: "other", Value: []byte("x")}})
	require.Len(t, headers, 2)

	carrier := &kafkaHeaderCarrier{headers: headers}
	assert.NotEmpty(t, carrier.Get("traceparent"))
	assert.ElementsMatch(t, []string{"other", "traceparent"}, carrier.Keys())

	extracted := trace.SpanContextFromContext(ExtractTraceContext(context.Background(), headers))
	assert.Equal(t, span.SpanContext().TraceID(), extracted.TraceID())
}

func TestCarrierSetOverwrites(t *testing.T) {
	carrier := &kafkaHeaderCarrier{}
	carrier.Set("k", "1")
	carrier.Set("k", "2")
	require.Len(t, carrier.headers, 1)
	assert.Equal(t, "2", carrier.Get("k"))
	assert.Equal(t, "", carrier.Get("missing"))
}

func TestInitDisabled(t *testing.T) {
	tp, err := Init(config.TracingConfig{Enabled: false}, "test")
	require.NoError(t, err)
	assert.Nil(t, tp.sdk)
	assert.NoError(t, tp.Shutdown(context.Background()))

	var nilProvider *TracerProvider
	assert.NoError(t, nilProvider.Shutdown(context.Background()))
}

func TestInitRejectsUnknownSampler(t *testing.T) {
	_, err := Init(config.TracingConfig{Enabled: true, Sampler: config.SamplerConfig{Type: "sometimes"}}, "test")
	assert.ErrorContains(t, err, "sometimes")
}

func TestNewSampler(t *testing.T) {
	tests := []struct {
		cfg  config.SamplerConfig
		want string
	}{
		{cfg: config.SamplerConfig{Type: "always_off"}, want: "AlwaysOffSampler"},
		{cfg: config.SamplerConfig{Type: ""}, want: "AlwaysOnSampler"},
		{cfg: config.SamplerConfig{Type: "traceidratio", Param: 0.5}, want: "TraceIDRatioBased{0.5}"},
	}
	for _, tt := range tests {
		t.Run(tt.cfg.Type, func(t *testing.T) {
			sampler, err := newSampler(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, sampler.Description())
		})
	}
}

func TestNewResourceFallsBackToConfiguredName(t *testing.T) {
	res, err := newResource("", "from-config")
	require.NoError(t, err)

	var name string
	for _, kv := range res.Attributes() {
		if kv.Key == "service.name" {
			name = kv.Value.AsString()
		}
	}
	assert.Equal(t, "from-config", name)
}

func TestTracedFilter(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/api/v1/orders", want: true},
		{path: "/health/ready", want: false},
		{path: "/metrics", want: false},
		{path: "/swagger/index.html", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, traced(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}
