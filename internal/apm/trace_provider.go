// Package apm installs the global otel tracer provider.
package apm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

type Provider string

const (
	ZipkinProvider   Provider = "zipkin"
	ConsoleProvider  Provider = "stdout"
	OTLPGRPCProvider Provider = "otlp-grpc"
	OTLPHTTPProvider Provider = "otlp-http"
	EmptyProvider    Provider = "none"
)

// ParseProvider maps a configured exporter name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(s))); p {
	case ZipkinProvider, ConsoleProvider, OTLPGRPCProvider, OTLPHTTPProvider, EmptyProvider:
		return p, nil
	case "":
		return EmptyProvider, nil
	}
	return "", fmt.Errorf("unknown trace exporter %q", s)
}

// TraceProvider is the installed tracer provider.
type TraceProvider interface {
	Stop() error
}

// TracerOptions configures NewTraceProvider.
type TracerOptions struct {
	provider    Provider
	serviceName string
	endpoint    string
	headers     map[string]string
	insecure    bool
	writer      io.Writer
}

type TracerOption func(*TracerOptions)

// WithProvider selects the exporter.
func WithProvider(p Provider) TracerOption {
	return func(o *TracerOptions) { o.provider = p }
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(name string) TracerOption {
	return func(o *TracerOptions) { o.serviceName = name }
}

// WithEndpoint sets the collector URL and headers for zipkin and OTLP exporters.
func WithEndpoint(url string, headers map[string]string) TracerOption {
	return func(o *TracerOptions) {
		o.endpoint = url
		o.headers = headers
	}
}

// WithInsecure disables TLS for OTLP exporters.
func WithInsecure() TracerOption {
	return func(o *TracerOptions) { o.insecure = true }
}

// WithWriter redirects the stdout exporter.
func WithWriter(w io.Writer) TracerOption {
	return func(o *TracerOptions) { o.writer = w }
}

func newExporter(ctx context.Context, o *TracerOptions) (sdktrace.SpanExporter, error) {
	switch o.provider {
	case ConsoleProvider:
		w := o.writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())

	case ZipkinProvider:
		if o.endpoint == "" {
			return nil, fmt.Errorf("zipkin exporter requires an endpoint")
		}
		return zipkin.New(o.endpoint, zipkin.WithHeaders(o.headers))

	case OTLPGRPCProvider:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(o.headers)}
		if o.endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(o.endpoint))
		}
		if o.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		return otlptracegrpc.New(ctx, opts...)

	case OTLPHTTPProvider:
		opts := []otlptracehttp.Option{otlptracehttp.WithHeaders(o.headers)}
		if o.endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(o.endpoint))
		}
		if o.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	}

	return nil, fmt.Errorf("unknown trace exporter %q", o.provider)
}

type traceProvider struct {
	tp *sdktrace.TracerProvider
}

type emptyTraceProvider struct{}

func (emptyTraceProvider) Stop() error { return nil }

// NewTraceProvider installs a batching tracer provider for the selected
// exporter along with W3C trace-context propagation. EmptyProvider leaves the
// global no-op provider in place.
func NewTraceProvider(ctx context.Context, options ...TracerOption) (TraceProvider, error) {
	opts := &TracerOptions{provider: EmptyProvider}
	for _, opt := range options {
		opt(opts)
	}

	if opts.provider == EmptyProvider {
		return emptyTraceProvider{}, nil
	}

	exp, err := newExporter(ctx, opts)
	if err != nil {
		return nil, err
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(opts.serviceName),
			attribute.String("otel.provider", string(opts.provider)),
		))
	if err != nil {
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	return &traceProvider{tp}, nil
}

func (o *traceProvider) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:gomnd
	defer cancel()

	return o.tp.Shutdown(ctx)
}
