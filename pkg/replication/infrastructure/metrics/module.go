package metrics

import (
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"

	"github.com/tigerroll/syncwave/pkg/replication/core/metrics"
)

// Module provides the MetricRecorder and the OpenTelemetry-backed Tracer.
var Module = fx.Options(
	fx.Provide(NewPrometheusRecorderFromConfig),
	fx.Provide(provideTracerProvider),
	fx.Provide(fx.Annotate(
		func(tp *sdktrace.TracerProvider) *OpenTelemetryTracer { return NewOpenTelemetryTracer(tp) },
		fx.As(new(metrics.Tracer)),
	)),
)
