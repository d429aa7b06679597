package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/cashflow-diagnosis"

// Metrics holds all application metrics. A nil *Metrics records nothing.
type Metrics struct {
	RequestCount      metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	SubmissionCount   metric.Int64Counter
	NarrativeCount    metric.Int64Counter
	NarrativeDuration metric.Float64Histogram
	StoreWriteCount   metric.Int64Counter
	EventWriteCount   metric.Int64Counter
	RenderDuration    metric.Float64Histogram
	SessionCacheCount metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing, metrics export and runtime metrics
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMeterProvider(meterProvider)); err != nil {
		_ = tracerProvider.Shutdown(ctx)
		_ = meterProvider.Shutdown(ctx)
		return nil, err
	}

	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics on the global meter provider
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &Metrics{}
	var err error

	if m.RequestCount, err = meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Number of HTTP requests"),
	); err != nil {
		return nil, err
	}
	if m.RequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.SubmissionCount, err = meter.Int64Counter(
		"diagnosis.submission.count",
		metric.WithDescription("Number of diagnoses by signal level"),
	); err != nil {
		return nil, err
	}
	if m.NarrativeCount, err = meter.Int64Counter(
		"diagnosis.narrative.count",
		metric.WithDescription("Narrative generation outcomes by provider"),
	); err != nil {
		return nil, err
	}
	if m.NarrativeDuration, err = meter.Float64Histogram(
		"diagnosis.narrative.duration",
		metric.WithDescription("Narrative generation latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.StoreWriteCount, err = meter.Int64Counter(
		"diagnosis.store.write.count",
		metric.WithDescription("Record append attempts by store and outcome"),
	); err != nil {
		return nil, err
	}
	if m.EventWriteCount, err = meter.Int64Counter(
		"diagnosis.event.write.count",
		metric.WithDescription("Event append attempts by store and outcome"),
	); err != nil {
		return nil, err
	}
	if m.RenderDuration, err = meter.Float64Histogram(
		"diagnosis.report.render.duration",
		metric.WithDescription("Report rendering latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.SessionCacheCount, err = meter.Int64Counter(
		"diagnosis.session.lookup.count",
		metric.WithDescription("Session lookups by outcome"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	)
	metrics.RequestCount.Add(ctx, 1, attrs)
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordSubmission counts a completed diagnosis
func RecordSubmission(ctx context.Context, metrics *Metrics, signal, typeKey string) {
	if metrics == nil {
		return
	}
	metrics.SubmissionCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("diagnosis.signal", signal),
		attribute.String("diagnosis.type", typeKey),
	))
}

// RecordNarrative records one narrative generation outcome
func RecordNarrative(ctx context.Context, metrics *Metrics, provider, outcome string, attempts int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("narrative.provider", provider),
		attribute.String("narrative.outcome", outcome),
		attribute.Int("narrative.attempts", attempts),
	)
	metrics.NarrativeCount.Add(ctx, 1, attrs)
	metrics.NarrativeDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

// RecordStoreWrite records a record append attempt
func RecordStoreWrite(ctx context.Context, metrics *Metrics, store string, ok bool) {
	if metrics == nil {
		return
	}
	metrics.StoreWriteCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store.name", store),
		attribute.Bool("store.success", ok),
	))
}

// RecordEventWrite records an event append attempt
func RecordEventWrite(ctx context.Context, metrics *Metrics, store string, ok bool) {
	if metrics == nil {
		return
	}
	metrics.EventWriteCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("store.name", store),
		attribute.Bool("store.success", ok),
	))
}

// RecordRender records report rendering latency
func RecordRender(ctx context.Context, metrics *Metrics, duration time.Duration, ok bool) {
	if metrics == nil {
		return
	}
	metrics.RenderDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.Bool("render.success", ok),
	))
}

// RecordSessionLookup counts a session hit or miss
func RecordSessionLookup(ctx context.Context, metrics *Metrics, hit bool) {
	if metrics == nil {
		return
	}
	metrics.SessionCacheCount.Add(ctx, 1, metric.WithAttributes(attribute.Bool("session.hit", hit)))
}
