// Package telemetry installs the OpenTelemetry tracer and meter providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gitlab.com/yelinaung/budget-health/internal/config"
	"gitlab.com/yelinaung/budget-health/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

// Options selects the exporter. Writer is only used by the stdout exporter and defaults to os.Stdout.
type Options struct {
	Exporter    string
	ServiceName string
	Version     string
	Writer      io.Writer
}

// Setup installs global tracer and meter providers for opts.Exporter.
// With config.ExporterNone nothing is installed and the OpenTelemetry no-op providers stay in place.
func Setup(ctx context.Context, opts Options) (ShutdownFunc, error) {
	if opts.Exporter == "" || opts.Exporter == config.ExporterNone {
		return func(context.Context) error { return nil }, nil
	}

	spanExporter, metricExporter, err := newExporters(ctx, opts)
	if err != nil {
		return nil, err
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", opts.ServiceName),
		attribute.String("service.version", opts.Version),
	)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)

	logger.Log.Info().
		Str("exporter", opts.Exporter).
		Str("service", opts.ServiceName).
		Msg("Telemetry initialized")

	return func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}, nil
}

func newExporters(ctx context.Context, opts Options) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	switch opts.Exporter {
	case config.ExporterStdout:
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		return pairExporters(ctx, "stdout",
			func() (sdktrace.SpanExporter, error) { return stdouttrace.New(stdouttrace.WithWriter(w)) },
			func() (sdkmetric.Exporter, error) { return stdoutmetric.New(stdoutmetric.WithWriter(w)) },
		)

	case config.ExporterOTLPGRPC:
		return pairExporters(ctx, "OTLP gRPC",
			func() (sdktrace.SpanExporter, error) { return otlptracegrpc.New(ctx) },
			func() (sdkmetric.Exporter, error) { return otlpmetricgrpc.New(ctx) },
		)

	case config.ExporterOTLPHTTP:
		return pairExporters(ctx, "OTLP HTTP",
			func() (sdktrace.SpanExporter, error) { return otlptracehttp.New(ctx) },
			func() (sdkmetric.Exporter, error) { return otlpmetrichttp.New(ctx) },
		)

	default:
		return nil, nil, fmt.Errorf("unsupported telemetry exporter %q", opts.Exporter)
	}
}

// pairExporters builds both exporters. The span exporter is shut down if the metric one fails.
func pairExporters(
	ctx context.Context,
	kind string,
	newSpans func() (sdktrace.SpanExporter, error),
	newMetrics func() (sdkmetric.Exporter, error),
) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	spans, err := newSpans()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s trace exporter: %w", kind, err)
	}
	metrics, err := newMetrics()
	if err != nil {
		err = fmt.Errorf("failed to create %s metric exporter: %w", kind, err)
		if shutdownErr := spans.Shutdown(ctx); shutdownErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to shut down %s trace exporter: %w", kind, shutdownErr))
		}
		return nil, nil, err
	}
	return spans, metrics, nil
}
