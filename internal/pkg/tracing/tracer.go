// internal/pkg/tracing/tracer.go
package tracing

import (
	"context"
	"log"

	"github.com/your-org/storefront-api/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(ctx context.Context) error

// Init registers a Jaeger-backed tracer provider when tracing is enabled.
// When disabled the global no-op provider stays in place and spans cost nothing.
func Init(cfg *config.Config) (ShutdownFunc, error) {
	if !cfg.Tracing.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Tracing.JaegerEndpoint)))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Tracing.SampleRatio))),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.App.Name),
			semconv.ServiceVersionKey.String(cfg.App.Version),
			semconv.DeploymentEnvironmentKey.String(cfg.App.Environment),
		)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Printf("Tracing initialized for service '%s' exporting to '%s'", cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	return tp.Shutdown, nil
}

// Tracer returns a named tracer from the global provider
func Tracer(name string) trace.Tracer {
	return otel.Tracer("storefront-api/" + name)
}

// RecordError marks the span failed when err is non-nil
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
