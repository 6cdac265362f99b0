// Package httpclient provides a JSON HTTP client instrumented with otel
// tracing and request metrics.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	meterName            = "github.com/fd1az/web3-connect/internal/httpclient"
	metricRequestCounter = "http_client_requests_total"
	metricRequestLatency = "http_client_request_duration_ms"
)

// Client builds instrumented requests.
type Client interface {
	NewRequest(opts ...RequestOption) Request
}

// InstrumentedClient wraps http.Client with otel transport instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	providerName   string
	tracer         trace.Tracer
	baseURL        string
	defaultHeaders map[string]string
	traceBodies    bool

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewInstrumentedClient creates a client. Without options it talks JSON with
// a 10s timeout through a small per-host connection pool.
func NewInstrumentedClient(opts ...ClientOption) (*InstrumentedClient, error) {
	o := &clientOptions{timeout: defaultRequestTimeout, providerName: "default"}
	for _, opt := range opts {
		opt(o)
	}

	transport := o.roundTripper
	if transport == nil {
		transport = &http.Transport{
			DialContext:     (&net.Dialer{KeepAlive: defaultDialKeepAlive}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: otelhttp.NewTransport(transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	meterProvider := o.meterProvider
	if meterProvider == nil {
		meterProvider = otel.GetMeterProvider()
	}
	meter := meterProvider.Meter(meterName,
		metric.WithInstrumentationAttributes(attribute.String("provider", o.providerName)))

	requests, err := meter.Int64Counter(metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram(metricRequestLatency,
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer(meterName)
	}

	headers := map[string]string{"Accept": "application/json"}
	for k, v := range o.headers {
		headers[k] = v
	}

	return &InstrumentedClient{
		client:         httpClient,
		providerName:   o.providerName,
		tracer:         tracer,
		baseURL:        o.baseURL,
		defaultHeaders: headers,
		traceBodies:    o.traceBodies,
		requests:       requests,
		latency:        latency,
	}, nil
}

// NewRequest starts a request carrying the client's default headers.
func (c *InstrumentedClient) NewRequest(opts ...RequestOption) Request {
	r := &request{
		client:  c,
		headers: make(http.Header, len(c.defaultHeaders)),
	}
	for k, v := range c.defaultHeaders {
		r.headers.Set(k, v)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	meterProvider metric.MeterProvider
	tracer        trace.Tracer
	roundTripper  http.RoundTripper
	providerName  string
	baseURL       string
	headers       map[string]string
	timeout       time.Duration
	traceBodies   bool
}

// WithProviderName labels metrics and spans with the upstream's name.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) { o.providerName = name }
}

// WithRequestTimeout bounds each request, including reading the body.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeaders adds default headers sent with every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) { o.headers = headers }
}

// WithBaseURL resolves relative request paths against url.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithRoundTripper replaces the pooled transport.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(o *clientOptions) { o.roundTripper = rt }
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) ClientOption {
	return func(o *clientOptions) { o.meterProvider = mp }
}

// WithTracer sets the tracer. With traceBodies, response bodies are attached
// to spans as events.
func WithTracer(tracer trace.Tracer, traceBodies bool) ClientOption {
	return func(o *clientOptions) {
		o.tracer = tracer
		o.traceBodies = traceBodies
	}
}
