// Package telemetry installs the process-wide OpenTelemetry tracer provider and propagator.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes pending spans and releases the exporter
type ShutdownFunc func(ctx context.Context) error

// Propagator is the W3C trace context plus baggage propagator used on every hop
func Propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}

// Setup installs the global propagator and, when enabled, a batching tracer provider
// exporting to stdout or a JSON lines file. The returned ShutdownFunc is never nil.
func Setup(config *common.TelemetryConfig, logger arbor.ILogger) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(Propagator())

	if !config.Enabled {
		logger.Debug().Msg("Tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	writer, closeWriter, err := openWriter(config)
	if err != nil {
		return func(context.Context) error { return nil }, err
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(writer))
	if err != nil {
		closeWriter()
		return func(context.Context) error { return nil }, fmt.Errorf("create trace exporter: %w", err)
	}

	provider := NewTracerProvider(config, sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)

	logger.Debug().
		Str("exporter", config.Exporter).
		Str("file_path", config.FilePath).
		Float64("sample_ratio", config.SampleRatio).
		Msg("Tracing enabled")

	return func(ctx context.Context) error {
		return errors.Join(provider.Shutdown(ctx), closeWriter())
	}, nil
}

// NewTracerProvider builds a provider with the service resource and ratio sampler.
// Extra options choose where spans go.
func NewTracerProvider(config *common.TelemetryConfig, opts ...sdktrace.TracerProviderOption) *sdktrace.TracerProvider {
	base := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", config.ServiceName),
			attribute.String("service.version", common.GetVersion()),
		)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(config.SampleRatio))),
	}
	return sdktrace.NewTracerProvider(append(base, opts...)...)
}

func openWriter(config *common.TelemetryConfig) (io.Writer, func() error, error) {
	if config.Exporter == "stdout" {
		return os.Stdout, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create trace directory: %w", err)
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace file: %w", err)
	}
	return file, file.Close, nil
}
