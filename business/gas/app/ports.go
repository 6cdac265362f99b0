// Package app contains application services and port definitions for the gas context.
package app

import (
	"context"

	"github.com/fd1az/web3-connect/business/gas/domain"
)

// PriceOracle quotes a gas price for a tier.
type PriceOracle interface {
	// Name identifies the oracle in logs and quotes.
	Name() string

	FetchPrice(ctx context.Context, tier domain.Tier) (*domain.GasPrice, error)
}
