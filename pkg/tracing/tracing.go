package tracing

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"retailops/internal/config"
)

// Instrumentation scopes for spans the services start themselves.
const (
	ScopeOrders      = "retailops/orders"
	ScopeAutomation  = "retailops/automation"
	ScopeIdempotency = "retailops/idempotency"
	ScopeBroker      = "retailops/broker"
)

const (
	serviceNamespace = "retailops"
	exporterTimeout  = 5 * time.Second
)

// TracerProvider owns the exporting SDK provider. The zero value is a
// disabled provider whose Shutdown does nothing.
type TracerProvider struct {
	sdk *sdktrace.TracerProvider
}

// Shutdown flushes buffered spans and stops the exporter.
func (p *TracerProvider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	if err := p.sdk.ForceFlush(ctx); err != nil {
		return fmt.Errorf("flush spans: %w", err)
	}
	return p.sdk.Shutdown(ctx)
}

// Init installs a global OTLP provider and the W3C propagators for
// serviceName. When tracing is disabled the global no-op provider stays in
// place and only the propagators are set, so trace headers still pass
// through Kafka and HTTP untouched.
func Init(cfg config.TracingConfig, serviceName string) (*TracerProvider, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return &TracerProvider{}, nil
	}

	sampler, err := newSampler(cfg.Sampler)
	if err != nil {
		return nil, err
	}

	res, err := newResource(serviceName, cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), exporterTimeout)
	defer cancel()

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTLP.Endpoint),
		otlptracegrpc.WithTimeout(exporterTimeout),
	}
	if cfg.OTLP.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(sdk)

	return &TracerProvider{sdk: sdk}, nil
}

func newResource(serviceName, fallback string) (*resource.Resource, error) {
	if serviceName == "" {
		serviceName = fallback
	}
	if serviceName == "" {
		serviceName = serviceNamespace
	}

	attrs := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceNamespaceKey.String(serviceNamespace),
		),
		resource.WithTelemetrySDK(),
	}
	if host, err := os.Hostname(); err == nil {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceInstanceIDKey.String(host)))
	}
	return resource.New(context.Background(), attrs...)
}

// newSampler maps the configured sampler name onto an SDK sampler. An empty
// name samples everything.
func newSampler(cfg config.SamplerConfig) (sdktrace.Sampler, error) {
	switch cfg.Type {
	case "", "always_on":
		return sdktrace.AlwaysSample(), nil
	case "always_off":
		return sdktrace.NeverSample(), nil
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(cfg.Param), nil
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Param)), nil
	default:
		return nil, fmt.Errorf("unknown tracing sampler %q", cfg.Type)
	}
}

// Tracer returns a tracer for scope from the global provider.
func Tracer(scope string) trace.Tracer {
	return otel.Tracer(scope)
}
