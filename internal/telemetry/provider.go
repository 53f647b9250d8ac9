package telemetry

import (
	"context"
	"errors"
	"net/http"
	"os"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const defaultOTLPEndpoint = "localhost:4317"

// Provider owns the process-wide tracer and meter providers of one service.
type Provider struct {
	// MetricsHandler serves the Prometheus scrape endpoint.
	MetricsHandler http.Handler

	shutdowns []func(context.Context) error
}

// Setup installs global tracing, metrics and propagation for serviceName. Traces are
// exported over OTLP gRPC to OTEL_EXPORTER_OTLP_ENDPOINT and metrics are exposed for
// Prometheus, including Go runtime metrics.
func Setup(ctx context.Context, serviceName, serviceVersion string) (*Provider, error) {
	res := newResource(serviceName, serviceVersion)

	shutdownTracer, err := initTracerProvider(ctx, res)
	if err != nil {
		return nil, err
	}

	metricsHandler, shutdownMeter, err := initMeterProvider(res)
	if err != nil {
		_ = shutdownTracer(ctx)
		return nil, err
	}

	if err := runtime.Start(); err != nil {
		_ = shutdownMeter(ctx)
		_ = shutdownTracer(ctx)
		return nil, err
	}

	return &Provider{
		MetricsHandler: metricsHandler,
		shutdowns:      []func(context.Context) error{shutdownMeter, shutdownTracer},
	}, nil
}

// Shutdown flushes pending telemetry. It is safe to call on a nil Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, shutdown := range p.shutdowns {
		errs = append(errs, shutdown(ctx))
	}
	return errors.Join(errs...)
}

func newResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}

func initTracerProvider(ctx context.Context, res *resource.Resource) (func(context.Context) error, error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultOTLPEndpoint
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// WithHTTPRoute tags the active span with the matched ServeMux pattern, which otelhttp
// cannot see because routing happens after its handler runs.
func WithHTTPRoute(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Pattern != "" {
			span := oteltrace.SpanFromContext(r.Context())
			span.SetAttributes(semconv.HTTPRoute(r.Pattern))
		}
		h(w, r)
	}
}
