package metrics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/tigerroll/syncwave/pkg/replication/core/config"
	coremetrics "github.com/tigerroll/syncwave/pkg/replication/core/metrics"
	"github.com/tigerroll/syncwave/pkg/replication/infrastructure/metrics"
)

func TestOpenTelemetryTracer_RecordsTagsAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := metrics.NewOpenTelemetryTracer(tp)

	ctx, end := tracer.StartSpan(context.Background(), "replicate")
	tracer.AddTags(ctx, map[string]string{
		coremetrics.TagJobID:         "42",
		coremetrics.TagAttemptNumber: "1",
	})
	tracer.RecordError(ctx, errors.New("source crashed"))
	end()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "replicate", span.Name())
	assert.Equal(t, []attribute.KeyValue{
		attribute.String(coremetrics.TagAttemptNumber, "1"),
		attribute.String(coremetrics.TagJobID, "42"),
	}, span.Attributes())
	assert.Equal(t, codes.Error, span.Status().Code)
	require.Len(t, span.Events(), 1)
	assert.Equal(t, "exception", span.Events()[0].Name)
}

func TestOpenTelemetryTracer_AddTagsWithoutSpan(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	tracer := metrics.NewOpenTelemetryTracer(tp)
	assert.NotPanics(t, func() {
		tracer.AddTags(context.Background(), map[string]string{"k": "v"})
		tracer.RecordError(context.Background(), errors.New("x"))
	})
}

func TestNewTracerProvider(t *testing.T) {
	tp, err := metrics.NewTracerProvider(context.Background(), config.TracingConfig{Exporter: "none", ServiceName: "test", SampleRatio: 1})
	require.NoError(t, err)
	defer tp.Shutdown(context.Background())

	_, err = metrics.NewTracerProvider(context.Background(), config.TracingConfig{Exporter: "zipkin"})
	require.Error(t, err)
}
