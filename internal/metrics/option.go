package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider names a metrics reader.
type Provider string

const (
	PrometheusProvider Provider = "prometheus"
	OtelCollector      Provider = "customOtelCollector"
	InsecureOtel                = true
	SecureOtel                  = false

	defaultPromPort = 2223
)

// NewOtelCollectorConfig pushes metrics to an OTLP gRPC collector.
func NewOtelCollectorConfig(url string, headers map[string]string, insecure bool) ProviderCfg {
	return ProviderCfg{
		Provider: OtelCollector,
		Endpoint: url,
		Headers:  headers,
		Insecure: insecure,
	}
}

// Config holds meter provider settings.
type Config struct {
	ServiceName string
	Provider    []ProviderCfg
	registry    *prometheus.Registry
}

// ProviderCfg configures one reader.
type ProviderCfg struct {
	Provider Provider
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

type OptionFn func(config Config) Config

// WithProviderConfig adds a reader.
func WithProviderConfig(provider ProviderCfg) OptionFn {
	return func(config Config) Config {
		config.Provider = append(config.Provider, provider)
		return config
	}
}

// WithServiceName sets the service.name resource attribute.
func WithServiceName(serviceName string) OptionFn {
	return func(config Config) Config {
		config.ServiceName = serviceName
		return config
	}
}

// WithRegistry registers the Prometheus reader on registry instead of the default one.
func WithRegistry(registry *prometheus.Registry) OptionFn {
	return func(config Config) Config {
		config.registry = registry
		return config
	}
}

type PromServerConfig struct {
	port     int
	gatherer prometheus.Gatherer
}

type PromOptionFn func(config PromServerConfig) PromServerConfig

// WithPort sets the scrape port.
func WithPort(port int) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		if port > 0 {
			config.port = port
		}
		return config
	}
}

// WithGatherer serves gatherer instead of the default registry.
func WithGatherer(gatherer prometheus.Gatherer) PromOptionFn {
	return func(config PromServerConfig) PromServerConfig {
		config.gatherer = gatherer
		return config
	}
}
