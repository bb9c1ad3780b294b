package observability

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryConfig describes the tracing pipeline. Tracing is strictly
// opt-in: the bridge only emits spans around message dispatch and
// agent invocations when OTEL_ENABLED is set, so ordinary console use
// never opens network connections.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Namespace   string
	Version     string
	Commit      string
	Environment string
}

// TelemetryShutdown flushes pending spans and restores the global
// otel state captured at setup.
type TelemetryShutdown func(ctx context.Context) error

// SetupTelemetry installs the OTLP-HTTP trace pipeline. Disabled or
// nil config is a no-op that leaves the globals untouched.
func SetupTelemetry(ctx context.Context, cfg *TelemetryConfig) (TelemetryShutdown, error) {
	if cfg == nil || !cfg.Enabled {
		return noopShutdown, nil
	}

	restore := snapshotGlobals()

	res, err := traceResource(cfg)
	if err != nil {
		return noopShutdown, err
	}

	exporter, err := traceExporter(ctx, cfg)
	if err != nil {
		return noopShutdown, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Export failures must stay off stderr: the bridge may be mid-way
	// through rendering an agent reply there.
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(error) {}))

	return func(shutdownCtx context.Context) error {
		err := provider.Shutdown(shutdownCtx)

		restore()

		if err != nil {
			return fmt.Errorf("shutdown otel provider: %w", err)
		}

		return nil
	}, nil
}

// snapshotGlobals captures the process-wide otel state and returns a
// function that puts it back.
func snapshotGlobals() func() {
	tp := otel.GetTracerProvider()
	prop := otel.GetTextMapPropagator()
	handler := otel.GetErrorHandler()

	return func() {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(prop)
		otel.SetErrorHandler(handler)
	}
}

// traceResource identifies this bridge instance on every span.
func traceResource(cfg *TelemetryConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", firstOf(cfg.ServiceName, os.Getenv("OTEL_SERVICE_NAME"), "bridgebot")),
		attribute.String("service.namespace", firstOf(cfg.Namespace, "bridgebot")),
		attribute.String("service.version", cfg.Version),
		attribute.String("deployment.environment", firstOf(cfg.Environment, os.Getenv("OTEL_ENVIRONMENT"), "development")),
	}

	if cfg.Commit != "" {
		attrs = append(attrs, attribute.String("service.commit", cfg.Commit))
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
	if err != nil {
		return nil, fmt.Errorf("merge otel resource: %w", err)
	}

	return res, nil
}

func traceExporter(ctx context.Context, cfg *TelemetryConfig) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}

	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otel exporter: %w", err)
	}

	return exporter, nil
}

// firstOf returns the first non-empty value.
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

// Tracer returns a named tracer from the global TracerProvider.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// IsTelemetryEnabled checks the OTEL_ENABLED opt-in.
func IsTelemetryEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("OTEL_ENABLED"))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func noopShutdown(context.Context) error { return nil }
