package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/mmo-worldgen/internal/logging"
)

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

// InitTelemetry installs a global TracerProvider exporting over OTLP/HTTP
// (OTEL_EXPORTER_OTLP_ENDPOINT, localhost:4318 by default).
func InitTelemetry(ctx context.Context, serviceName string) (Shutdown, error) {
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("OpenTelemetry initialized (OTLP/HTTP, service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Noop is returned when telemetry is disabled.
func Noop(context.Context) error { return nil }
