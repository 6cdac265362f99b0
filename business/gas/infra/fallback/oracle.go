// Package fallback chains gas oracles, answering from the first that succeeds.
package fallback

import (
	"context"
	"errors"
	"strings"

	"github.com/fd1az/web3-connect/business/gas/app"
	"github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/logger"
)

// Oracle tries each oracle in order.
type Oracle struct {
	oracles []app.PriceOracle
	logger  logger.LoggerInterface
}

// NewOracle chains oracles, highest priority first.
func NewOracle(log logger.LoggerInterface, oracles ...app.PriceOracle) *Oracle {
	return &Oracle{oracles: oracles, logger: log}
}

// Name implements app.PriceOracle.
func (o *Oracle) Name() string {
	names := make([]string, len(o.oracles))
	for i, oracle := range o.oracles {
		names[i] = oracle.Name()
	}
	return strings.Join(names, ">")
}

// FetchPrice returns the first successful quote. Unknown tiers are not retried.
func (o *Oracle) FetchPrice(ctx context.Context, tier domain.Tier) (*domain.GasPrice, error) {
	var errs []error
	for _, oracle := range o.oracles {
		price, err := oracle.FetchPrice(ctx, tier)
		if err == nil {
			return price, nil
		}
		if apperror.HasCode(err, apperror.CodeUnknownGasTier) {
			return nil, err
		}
		o.logger.Warn(ctx, "gas oracle failed, trying next",
			"oracle", oracle.Name(), "tier", tier, "error", err)
		errs = append(errs, err)
	}

	return nil, apperror.New(apperror.CodeGasPriceFetchFailed,
		apperror.WithContext(o.Name()),
		apperror.WithCause(errors.Join(errs...)))
}

// Oracles returns the chained oracles in priority order.
func (o *Oracle) Oracles() []app.PriceOracle {
	return o.oracles
}
