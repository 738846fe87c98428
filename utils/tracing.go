package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/cppla/bloghub/config"
)

// TracingEnabled reports whether InitTracer will install a provider for cfg.
func TracingEnabled(cfg config.AppConfig) bool {
	switch strings.ToLower(cfg.TracesExporter) {
	case "stdout":
		return true
	case "none":
		return false
	default:
		return cfg.OTLPEndpoint != ""
	}
}

// InitTracer installs a global tracer provider exporting over OTLP/HTTP, or to
// stdout for local debugging. The returned func flushes and stops it; it is a
// no-op when tracing is off.
func InitTracer(ctx context.Context, cfg config.AppConfig) (func(context.Context), error) {
	if !TracingEnabled(cfg) {
		return func(context.Context) {}, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	if strings.EqualFold(cfg.TracesExporter, "stdout") {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
	} else {
		exporter, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("deployment.environment", cfg.AppEnv),
	))
	if err != nil {
		return nil, fmt.Errorf("build trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		if err := tp.Shutdown(ctx); err != nil {
			Sugar.Warnf("tracer shutdown failed: %v", err)
		}
	}, nil
}
