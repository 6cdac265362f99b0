// Package node quotes gas prices from the connected node's eth_gasPrice.
package node

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	connApp "github.com/fd1az/web3-connect/business/connection/app"
	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/cache"
	"github.com/fd1az/web3-connect/internal/circuitbreaker"
	"github.com/fd1az/web3-connect/internal/logger"
)

const (
	tracerName = "github.com/fd1az/web3-connect/business/gas/infra/node"
	meterName  = "github.com/fd1az/web3-connect/business/gas/infra/node"
)

// OracleName identifies quotes from this oracle.
const OracleName = "node"

// Multipliers scale the node's suggestion per tier, in percent.
var Multipliers = map[domain.Tier]int64{
	domain.TierSafeLow: 80,
	domain.TierAverage: 100,
	domain.TierFast:    120,
	domain.TierFastest: 150,
}

// Config holds configuration for the node oracle.
type Config struct {
	CacheTTL    time.Duration // How long a suggestion is reused
	MaxGasPrice *big.Int      // Cap applied after the tier multiplier
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:    12 * time.Second, // ~1 block
		MaxGasPrice: big.NewInt(500_000_000_000),
	}
}

type oracleMetrics struct {
	fetches     metric.Int64Counter
	gasGwei     metric.Float64Gauge
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// Oracle suggests prices through whichever connection context is active.
type Oracle struct {
	config  Config
	primary connApp.ContextReader
	network connApp.ContextReader
	logger  logger.LoggerInterface

	// Suggestions keyed by provider so a reconnect does not serve stale quotes.
	suggestions *cache.Cache[*connDomain.Library, *big.Int]
	cb          *circuitbreaker.CircuitBreaker[*big.Int]

	tracer  trace.Tracer
	metrics *oracleMetrics
}

// NewOracle creates a node oracle over the two connection contexts.
func NewOracle(cfg Config, primary, network connApp.ContextReader, log logger.LoggerInterface) (*Oracle, error) {
	o := &Oracle{
		config:      cfg,
		primary:     primary,
		network:     network,
		logger:      log,
		suggestions: cache.New[*connDomain.Library, *big.Int](5 * time.Minute),
		tracer:      otel.Tracer(tracerName),
	}

	if err := o.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	cbCfg := circuitbreaker.DefaultConfig("gas-node")
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "gas oracle circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	o.cb = circuitbreaker.New[*big.Int](cbCfg)

	return o, nil
}

func (o *Oracle) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &oracleMetrics{}

	o.metrics.fetches, err = meter.Int64Counter(
		"gas_price_fetches_total",
		metric.WithDescription("Total gas price fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return err
	}

	o.metrics.gasGwei, err = meter.Float64Gauge(
		"gas_price_gwei",
		metric.WithDescription("Latest quoted gas price in gwei"),
		metric.WithUnit("gwei"),
	)
	if err != nil {
		return err
	}

	o.metrics.cacheHits, err = meter.Int64Counter(
		"gas_cache_hits_total",
		metric.WithDescription("Gas price cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	o.metrics.cacheMisses, err = meter.Int64Counter(
		"gas_cache_misses_total",
		metric.WithDescription("Gas price cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name implements app.PriceOracle.
func (o *Oracle) Name() string {
	return OracleName
}

// FetchPrice returns the node's suggestion scaled for tier.
func (o *Oracle) FetchPrice(ctx context.Context, tier domain.Tier) (*domain.GasPrice, error) {
	ctx, span := o.tracer.Start(ctx, "gas.node.fetch_price",
		trace.WithAttributes(attribute.String("tier", tier.String())),
	)
	defer span.End()

	multiplier, ok := Multipliers[tier]
	if !ok {
		err := apperror.Validation(apperror.CodeUnknownGasTier, tier.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown tier")
		return nil, err
	}

	base, err := o.suggestion(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	wei := new(big.Int).Mul(base, big.NewInt(multiplier))
	wei.Quo(wei, big.NewInt(100))

	price, capped := domain.NewGasPrice(tier, wei, OracleName).Capped(o.config.MaxGasPrice)
	if capped {
		span.AddEvent("gas_price_exceeded_max",
			trace.WithAttributes(attribute.String("wei", wei.String())))
		o.logger.Warn(ctx, "gas price exceeds max", "tier", tier, "wei", wei.String())
	}

	o.metrics.gasGwei.Record(ctx, price.GweiFloat(),
		metric.WithAttributes(attribute.String("tier", tier.String())))

	span.SetAttributes(attribute.String("gwei", price.Gwei.String()))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

// suggestion returns the active provider's eth_gasPrice, cached per provider.
func (o *Oracle) suggestion(ctx context.Context) (*big.Int, error) {
	library := connApp.SelectActive(o.primary, o.network).Snapshot().Library
	if library == nil {
		return nil, apperror.New(apperror.CodeGasPriceFetchFailed,
			apperror.WithContext(OracleName),
			apperror.WithCause(apperror.New(apperror.CodeNoActiveConnection)))
	}

	if wei, found := o.suggestions.Get(ctx, library); found {
		o.metrics.cacheHits.Add(ctx, 1)
		return wei, nil
	}
	o.metrics.cacheMisses.Add(ctx, 1)
	o.metrics.fetches.Add(ctx, 1)

	wei, err := o.cb.Execute(func() (*big.Int, error) {
		return library.Backend().SuggestGasPrice(ctx)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeGasPriceFetchFailed,
			apperror.WithContext(OracleName),
			apperror.WithCause(err))
	}

	o.suggestions.Set(ctx, library, wei, o.config.CacheTTL)
	return wei, nil
}

// Close releases the cache.
func (o *Oracle) Close() error {
	o.suggestions.Close()
	return nil
}
