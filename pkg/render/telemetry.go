package render

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/goliatone/go-widgetmcp/pkg/render"

type telemetry struct {
	tracer   trace.Tracer
	calls    metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*telemetry, error) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	calls, err := meter.Int64Counter("widget.render.calls",
		metric.WithDescription("Number of widget render calls"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter("widget.render.failures",
		metric.WithDescription("Number of failed widget render calls by stage"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("widget.render.duration",
		metric.WithDescription("Duration of widget render calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &telemetry{
		tracer:   tp.Tracer(instrumentationName),
		calls:    calls,
		failures: failures,
		duration: duration,
	}, nil
}

func (t *telemetry) record(ctx context.Context, widgetName, stage string, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("widget", widgetName))
	t.calls.Add(ctx, 1, attrs)
	t.duration.Record(ctx, elapsed.Seconds(), attrs)
	if stage != stageNone {
		t.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("widget", widgetName),
			attribute.String("stage", stage),
		))
	}
}
