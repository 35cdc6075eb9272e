// Package observability wires an OTLP HTTP trace exporter into Genkit's
// TracerProvider. Traces are sent to a local collector which forwards them to
// whatever backend the deployment uses; the app never talks to a vendor API
// directly and never needs backend credentials.
package observability

import (
	"context"
	"os"
	"time"

	"github.com/firebase/genkit/go/core/tracing"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kineticguard/kinetic/internal/log"
)

// DefaultCollectorURL is the default OTLP HTTP endpoint of a local collector.
const DefaultCollectorURL = "localhost:4318"

// shutdownTimeout bounds the final span flush so a hung collector cannot
// stall process exit.
const shutdownTimeout = 5 * time.Second

// Config for the trace exporter.
type Config struct {
	// CollectorURL is the OTLP HTTP endpoint (default: localhost:4318).
	CollectorURL string
	// ServiceName tags exported spans (default left to the SDK).
	ServiceName string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
}

// Setup registers an OTLP exporter with Genkit's TracerProvider so every
// prompt execution and tool call is traced. Tracing failures are never
// fatal: if the exporter cannot be built the returned shutdown is a no-op
// and the assistant runs untraced.
func Setup(ctx context.Context, cfg Config, logger log.Logger) (shutdown func(context.Context) error, err error) {
	collectorURL := cfg.CollectorURL
	if collectorURL == "" {
		collectorURL = DefaultCollectorURL
	}

	// Genkit's TracerProvider reads its resource attributes from the
	// standard OTEL environment variables.
	if cfg.ServiceName != "" {
		_ = os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName)
	}
	if cfg.Environment != "" {
		_ = os.Setenv("OTEL_RESOURCE_ATTRIBUTES", "deployment.environment="+cfg.Environment)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(collectorURL),
		otlptracehttp.WithInsecure(), // local collector, no TLS
	)
	if err != nil {
		logger.Warn("failed to create trace exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }, nil
	}

	processor := sdktrace.NewBatchSpanProcessor(exporter)
	tracing.TracerProvider().RegisterSpanProcessor(processor)

	// Share Genkit's provider globally so non-Genkit code (the eval
	// harness) lands its spans on the same exporter.
	otel.SetTracerProvider(tracing.TracerProvider())

	logger.Debug("tracing enabled",
		"collector", collectorURL,
		"service", cfg.ServiceName,
		"environment", cfg.Environment)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tracing.TracerProvider().Shutdown(ctx)
	}, nil
}
