// Package metrics installs the global otel meter provider and serves the
// Prometheus scrape endpoint.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/web3-connect/internal/logger"
)

// MetricProvider is the installed meter provider.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// NewMetricProvider builds a meter provider from the configured readers and
// installs it globally. Without readers it exports nothing.
func NewMetricProvider(ctx context.Context, options ...OptionFn) (MetricProvider, error) {
	var cfg Config
	for _, opt := range options {
		cfg = opt(cfg)
	}

	var opts []sdkmetric.Option
	for _, p := range cfg.Provider {
		reader, err := newReader(ctx, p, cfg.registry)
		if err != nil {
			return nil, fmt.Errorf("metrics provider %s: %w", p.Provider, err)
		}
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return mp, nil
}

func newReader(ctx context.Context, p ProviderCfg, registry *prometheus.Registry) (sdkmetric.Reader, error) {
	switch p.Provider {
	case PrometheusProvider:
		var opts []otelprom.Option
		if registry != nil {
			opts = append(opts, otelprom.WithRegisterer(registry))
		}
		return otelprom.New(opts...)

	case OtelCollector:
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(p.Endpoint),
			otlpmetricgrpc.WithHeaders(p.Headers),
		}
		if p.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, err
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	}

	return nil, fmt.Errorf("unknown provider %q", p.Provider)
}

// PrometheusServer serves /metrics on its own mux.
type PrometheusServer struct {
	server *http.Server
	logger logger.LoggerInterface
}

// NewPrometheusServer creates a scrape server. A nil gatherer serves the
// default Prometheus registry.
func NewPrometheusServer(log logger.LoggerInterface, opt ...PromOptionFn) *PrometheusServer {
	cfg := PromServerConfig{port: defaultPromPort}
	for _, o := range opt {
		cfg = o(cfg)
	}

	handler := promhttp.Handler()
	if cfg.gatherer != nil {
		handler = promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	return &PrometheusServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Handler returns the scrape mux.
func (s *PrometheusServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves in the background.
func (s *PrometheusServer) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "metrics server stopped", "addr", s.server.Addr, "error", err)
		}
	}()
	s.logger.Info(context.Background(), "serving metrics", "addr", s.server.Addr, "path", "/metrics")
}

// Stop shuts the server down.
func (s *PrometheusServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
