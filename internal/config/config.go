// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Gas tier names accepted by gas.default_tier.
var gasTiers = []string{"safeLow", "average", "fast", "fastest"}

// Gas price sources accepted by gas.source.
const (
	GasSourceNode     = "node"
	GasSourceStation  = "station"
	GasSourceFallback = "fallback"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Network   NetworkConfig   `mapstructure:"network"`
	Contracts ContractsConfig `mapstructure:"contracts"`
	Gas       GasConfig       `mapstructure:"gas"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	HealthPort  int    `mapstructure:"health_port"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime from flags
}

// WalletConfig describes the injected wallet endpoint.
type WalletConfig struct {
	// RPCURL is the wallet's JSON-RPC endpoint. Empty means no wallet is injected.
	RPCURL string `mapstructure:"rpc_url"`

	// BridgeURL is an optional websocket pushing wallet events. When empty, events are polled.
	BridgeURL string `mapstructure:"bridge_url"`

	PollInterval      time.Duration `mapstructure:"poll_interval"`
	SupportedChainIDs []uint64      `mapstructure:"supported_chain_ids"`
	SuppressEvents    bool          `mapstructure:"suppress_events"`
	ActivationTimeout time.Duration `mapstructure:"activation_timeout"`
}

// Injected reports whether a wallet endpoint is configured.
func (c *WalletConfig) Injected() bool {
	return c.RPCURL != ""
}

// NetworkConfig holds the read-only node used when no wallet is active.
type NetworkConfig struct {
	HTTPURL      string `mapstructure:"http_url"`
	WebSocketURL string `mapstructure:"websocket_url"`
	ChainID      uint64 `mapstructure:"chain_id"`
}

// ContractsConfig holds the contract addresses the dashboard reads.
type ContractsConfig struct {
	Exchange string            `mapstructure:"exchange"`
	Tokens   map[string]string `mapstructure:"tokens"`
	MemoSize int               `mapstructure:"memo_size"` // Handles remembered per resolver
}

// TokenAddresses returns configured token addresses keyed by upper-case symbol.
// Viper lower-cases map keys, so symbols are normalized here.
func (c *ContractsConfig) TokenAddresses() map[string]common.Address {
	out := make(map[string]common.Address, len(c.Tokens))
	for sym, addr := range c.Tokens {
		out[strings.ToUpper(sym)] = common.HexToAddress(addr)
	}
	return out
}

// GasConfig holds gas price selection settings.
type GasConfig struct {
	DefaultTier string        `mapstructure:"default_tier"`
	Source      string        `mapstructure:"source"`
	StationURL  string        `mapstructure:"station_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	MaxGwei     float64       `mapstructure:"max_gwei"`
}

// MaxGweiDecimal returns the price cap as decimal.Decimal.
func (c *GasConfig) MaxGweiDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxGwei)
}

// DashboardConfig holds head watching and refresh settings.
type DashboardConfig struct {
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	TraceExporter  string `mapstructure:"trace_exporter"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Headers parses OTLPHeaders ("k1=v1,k2=v2"). Malformed pairs are skipped.
func (c *TelemetryConfig) Headers() map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(c.OTLPHeaders, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			continue
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("W3C")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "W3C_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "W3C_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "W3C_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.health_port", "W3C_HEALTH_PORT")

	// Wallet
	v.BindEnv("wallet.rpc_url", "W3C_WALLET_RPC_URL", "WALLET_RPC_URL")
	v.BindEnv("wallet.bridge_url", "W3C_WALLET_BRIDGE_URL", "WALLET_BRIDGE_URL")
	v.BindEnv("wallet.poll_interval", "W3C_WALLET_POLL_INTERVAL")
	v.BindEnv("wallet.suppress_events", "W3C_WALLET_SUPPRESS_EVENTS")

	// Network
	v.BindEnv("network.http_url", "W3C_NETWORK_HTTP_URL", "ETH_HTTP_URL")
	v.BindEnv("network.websocket_url", "W3C_NETWORK_WS_URL", "ETH_WS_URL")
	v.BindEnv("network.chain_id", "W3C_NETWORK_CHAIN_ID", "ETH_CHAIN_ID")

	// Contracts
	v.BindEnv("contracts.exchange", "W3C_EXCHANGE_ADDRESS")
	v.BindEnv("contracts.memo_size", "W3C_CONTRACT_MEMO_SIZE")

	// Gas
	v.BindEnv("gas.default_tier", "W3C_GAS_TIER")
	v.BindEnv("gas.source", "W3C_GAS_SOURCE")
	v.BindEnv("gas.station_url", "W3C_GAS_STATION_URL", "GAS_STATION_URL")

	// Dashboard
	v.BindEnv("dashboard.poll_interval", "W3C_DASHBOARD_POLL_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "W3C_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "W3C_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "W3C_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "W3C_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.trace_exporter", "W3C_OTEL_TRACE_EXPORTER")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "web3-connect")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.health_port", 8081)

	// Wallet defaults
	v.SetDefault("wallet.poll_interval", "2s")
	v.SetDefault("wallet.supported_chain_ids", []uint64{1, 3, 4, 5, 42})
	v.SetDefault("wallet.suppress_events", false)
	v.SetDefault("wallet.activation_timeout", "30s")

	// Network defaults
	v.SetDefault("network.chain_id", 1)

	// Mainnet 3pool and the coins it trades
	v.SetDefault("contracts.exchange", "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7")
	v.SetDefault("contracts.memo_size", 256)
	v.SetDefault("contracts.tokens", map[string]string{
		"DAI":  "0x6B175474E89094C44Da98b954EedeAC495271d0F",
		"USDC": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		"USDT": "0xdAC17F958D2ee523a2206206994597C13D831ec7",
	})

	// Gas defaults
	v.SetDefault("gas.default_tier", "fast")
	v.SetDefault("gas.source", GasSourceNode)
	v.SetDefault("gas.station_url", "https://ethgasstation.info/api/ethgasAPI.json")
	v.SetDefault("gas.cache_ttl", "12s")
	v.SetDefault("gas.max_gwei", 500)

	// Dashboard defaults
	v.SetDefault("dashboard.poll_interval", "12s")
	v.SetDefault("dashboard.reconnect_delay", "1m")
	v.SetDefault("dashboard.refresh_timeout", "10s")

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "web3-connect")
	v.SetDefault("telemetry.trace_exporter", "otlp-grpc")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Network.HTTPURL == "" {
		return fmt.Errorf("network.http_url is required")
	}
	if c.Wallet.BridgeURL != "" && !c.Wallet.Injected() {
		return fmt.Errorf("wallet.bridge_url requires wallet.rpc_url")
	}
	if c.Contracts.Exchange != "" && !common.IsHexAddress(c.Contracts.Exchange) {
		return fmt.Errorf("invalid contracts.exchange: %s", c.Contracts.Exchange)
	}
	for sym, addr := range c.Contracts.Tokens {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("invalid contracts.tokens.%s: %s", sym, addr)
		}
	}
	if !slices.Contains(gasTiers, c.Gas.DefaultTier) {
		return fmt.Errorf("invalid gas.default_tier: %s", c.Gas.DefaultTier)
	}
	switch c.Gas.Source {
	case GasSourceNode:
	case GasSourceStation, GasSourceFallback:
		if c.Gas.StationURL == "" {
			return fmt.Errorf("gas.station_url is required for source %q", c.Gas.Source)
		}
	default:
		return fmt.Errorf("invalid gas.source: %s", c.Gas.Source)
	}
	return nil
}
