// Package station quotes gas prices from an ethgasstation-style HTTP endpoint.
package station

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/cache"
	"github.com/fd1az/web3-connect/internal/httpclient"
	"github.com/fd1az/web3-connect/internal/logger"
)

const tracerName = "github.com/fd1az/web3-connect/business/gas/infra/station"

// OracleName identifies quotes from this oracle.
const OracleName = "station"

// The station reports prices in tenths of a gwei.
var tenths = decimal.NewFromInt(10)

// Config holds configuration for the station oracle.
type Config struct {
	URL      string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:      url,
		Timeout:  5 * time.Second,
		CacheTTL: 12 * time.Second,
	}
}

// quoteResponse is the station payload.
type quoteResponse struct {
	SafeLow  decimal.Decimal `json:"safeLow"`
	Average  decimal.Decimal `json:"average"`
	Fast     decimal.Decimal `json:"fast"`
	Fastest  decimal.Decimal `json:"fastest"`
	BlockNum uint64          `json:"blockNum"`
}

func (r *quoteResponse) tier(t domain.Tier) (decimal.Decimal, bool) {
	switch t {
	case domain.TierSafeLow:
		return r.SafeLow, true
	case domain.TierAverage:
		return r.Average, true
	case domain.TierFast:
		return r.Fast, true
	case domain.TierFastest:
		return r.Fastest, true
	}
	return decimal.Zero, false
}

// Oracle fetches the station's quote sheet and serves tiers from it.
type Oracle struct {
	config Config
	client httpclient.Client
	logger logger.LoggerInterface
	quotes *cache.Cache[string, *quoteResponse]
	tracer trace.Tracer
}

// NewOracle creates a station oracle.
func NewOracle(cfg Config, log logger.LoggerInterface) (*Oracle, error) {
	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("gas-station"),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTracer(tracer, true),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Oracle{
		config: cfg,
		client: client,
		logger: log,
		quotes: cache.New[string, *quoteResponse](time.Minute),
		tracer: tracer,
	}, nil
}

// Name implements app.PriceOracle.
func (o *Oracle) Name() string {
	return OracleName
}

// FetchPrice returns the station's quote for tier.
func (o *Oracle) FetchPrice(ctx context.Context, tier domain.Tier) (*domain.GasPrice, error) {
	ctx, span := o.tracer.Start(ctx, "gas.station.fetch_price",
		trace.WithAttributes(attribute.String("tier", tier.String())),
	)
	defer span.End()

	if !tier.Valid() {
		err := apperror.Validation(apperror.CodeUnknownGasTier, tier.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown tier")
		return nil, err
	}

	sheet, err := o.sheet(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil, err
	}

	tenthsGwei, _ := sheet.tier(tier)
	if !tenthsGwei.IsPositive() {
		err := apperror.New(apperror.CodeGasPriceFetchFailed,
			apperror.WithContext(fmt.Sprintf("%s: no quote for %s", OracleName, tier)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "missing tier")
		return nil, err
	}

	price := domain.NewGasPriceFromGwei(tier, tenthsGwei.Div(tenths), OracleName)

	span.SetAttributes(attribute.String("gwei", price.Gwei.String()))
	span.SetStatus(codes.Ok, "fetched")

	return price, nil
}

func (o *Oracle) sheet(ctx context.Context) (*quoteResponse, error) {
	if sheet, found := o.quotes.Get(ctx, o.config.URL); found {
		return sheet, nil
	}

	var result quoteResponse
	resp, err := o.client.NewRequest(
		httpclient.WithLabels(httpclient.NewLabel("endpoint", "gas")),
	).SetResult(&result).Get(ctx, o.config.URL)
	if err != nil {
		return nil, apperror.New(apperror.CodeGasPriceFetchFailed,
			apperror.WithContext(OracleName),
			apperror.WithCause(err))
	}
	if resp.Result() == nil {
		return nil, apperror.New(apperror.CodeGasPriceFetchFailed,
			apperror.WithContext(OracleName+": malformed response"))
	}

	o.logger.Debug(ctx, "gas station quotes fetched",
		"block", result.BlockNum, "fast", result.Fast.String())

	o.quotes.Set(ctx, o.config.URL, &result, o.config.CacheTTL)
	return &result, nil
}

// Close releases the cache.
func (o *Oracle) Close() error {
	o.quotes.Close()
	return nil
}
