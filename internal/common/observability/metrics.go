// internal/common/observability/metrics.go
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the OpenTelemetry meter and tracer providers of one process.
type Observability struct {
	meterProvider    *metric.MeterProvider
	tracerProvider   *sdktrace.TracerProvider
	tracer           trace.Tracer
	workflowCounter  otelmetric.Int64Counter
	workflowDuration otelmetric.Float64Histogram
}

type Option func(*options)

type options struct {
	spanProcessors []sdktrace.SpanProcessor
	skipExporter   bool
}

// WithSpanProcessor registers an additional span processor, e.g. a tracetest.SpanRecorder.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.spanProcessors = append(o.spanProcessors, sp) }
}

// WithoutPrometheusExporter keeps metrics in-process. Used by tests that build several instances.
func WithoutPrometheusExporter() Option {
	return func(o *options) { o.skipExporter = true }
}

// New wires the meter provider to the Prometheus registry and installs a tracer provider globally.
func New(serviceName string, opts ...Option) (*Observability, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var meterOpts []metric.Option
	if !o.skipExporter {
		exporter, err := prometheus.New()
		if err != nil {
			return nil, err
		}
		meterOpts = append(meterOpts, metric.WithReader(exporter))
	}
	meterProvider := metric.NewMeterProvider(meterOpts...)
	otel.SetMeterProvider(meterProvider)

	var traceOpts []sdktrace.TracerProviderOption
	for _, sp := range o.spanProcessors {
		traceOpts = append(traceOpts, sdktrace.WithSpanProcessor(sp))
	}
	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tracerProvider)

	meter := meterProvider.Meter(serviceName)

	workflowCounter, err := meter.Int64Counter(
		"workflow.completed",
		otelmetric.WithDescription("Number of planner workflows completed"),
	)
	if err != nil {
		return nil, err
	}

	workflowDuration, err := meter.Float64Histogram(
		"workflow.duration",
		otelmetric.WithDescription("Planner workflow duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:    meterProvider,
		tracerProvider:   tracerProvider,
		tracer:           tracerProvider.Tracer(serviceName),
		workflowCounter:  workflowCounter,
		workflowDuration: workflowDuration,
	}, nil
}

// Noop returns an instance whose spans and instruments discard everything.
func Noop() *Observability {
	return &Observability{}
}

// StartSpan starts a child span of whatever span ctx carries.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if o == nil || o.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return o.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordWorkflow counts one workflow run with its status ("ok", "degraded", "failed").
func (o *Observability) RecordWorkflow(ctx context.Context, workflow, status string, elapsed time.Duration) {
	if o == nil || o.workflowCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("workflow", workflow),
		attribute.String("status", status),
	)
	o.workflowCounter.Add(ctx, 1, attrs)
	o.workflowDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if o.tracerProvider != nil {
		if err := o.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if o.meterProvider != nil {
		return o.meterProvider.Shutdown(ctx)
	}
	return nil
}
