package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/budget-health/internal/config"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestSetup_None(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Exporter: config.ExporterNone})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_Unsupported(t *testing.T) {
	shutdown, err := Setup(context.Background(), Options{Exporter: "zipkin"})
	require.Error(t, err)
	require.Nil(t, shutdown)
	require.Contains(t, err.Error(), "zipkin")
}

func TestSetup_Stdout(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.Background()

	shutdown, err := Setup(ctx, Options{
		Exporter:    config.ExporterStdout,
		ServiceName: "budget-health-test",
		Writer:      &buf,
	})
	require.NoError(t, err)

	_, span := otel.Tracer("telemetry-test").Start(ctx, "preview-span")
	span.End()

	counter, err := otel.Meter("telemetry-test").Int64Counter("test.counter")
	require.NoError(t, err)
	counter.Add(ctx, 3)

	require.NoError(t, shutdown(ctx))

	out := buf.String()
	require.Contains(t, out, "preview-span")
	require.Contains(t, out, "budget-health-test")
	require.Contains(t, out, "test.counter")
}

type fakeSpanExporter struct {
	shutdowns   int
	shutdownErr error
}

func (f *fakeSpanExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error { return nil }

func (f *fakeSpanExporter) Shutdown(context.Context) error {
	f.shutdowns++
	return f.shutdownErr
}

func TestPairExporters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	errMetrics := errors.New("collector unreachable")

	t.Run("metric failure shuts down span exporter", func(t *testing.T) {
		t.Parallel()
		fake := &fakeSpanExporter{}

		spans, metrics, err := pairExporters(ctx, "test",
			func() (sdktrace.SpanExporter, error) { return fake, nil },
			func() (sdkmetric.Exporter, error) { return nil, errMetrics },
		)
		require.ErrorIs(t, err, errMetrics)
		require.Contains(t, err.Error(), "test metric exporter")
		require.Nil(t, spans)
		require.Nil(t, metrics)
		require.Equal(t, 1, fake.shutdowns)
	})

	t.Run("shutdown error is joined", func(t *testing.T) {
		t.Parallel()
		errShutdown := errors.New("flush failed")
		fake := &fakeSpanExporter{shutdownErr: errShutdown}

		_, _, err := pairExporters(ctx, "test",
			func() (sdktrace.SpanExporter, error) { return fake, nil },
			func() (sdkmetric.Exporter, error) { return nil, errMetrics },
		)
		require.ErrorIs(t, err, errMetrics)
		require.ErrorIs(t, err, errShutdown)
	})

	t.Run("span failure skips metric exporter", func(t *testing.T) {
		t.Parallel()
		errSpans := errors.New("bad endpoint")
		called := false

		_, _, err := pairExporters(ctx, "test",
			func() (sdktrace.SpanExporter, error) { return nil, errSpans },
			func() (sdkmetric.Exporter, error) {
				called = true
				return nil, nil
			},
		)
		require.ErrorIs(t, err, errSpans)
		require.False(t, called)
	})
}
