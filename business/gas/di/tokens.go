// Package di contains dependency injection tokens for the gas context.
package di

import (
	"github.com/fd1az/web3-connect/business/gas/app"
	"github.com/fd1az/web3-connect/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Selector = di.NewToken[*app.Selector]("gas.Selector")
)

// Private tokens - internal to gas module
var (
	PriceOracle = di.NewToken[app.PriceOracle]("gas.PriceOracle")
)

// Helper functions for type-safe access
func GetSelector(c di.ServiceRegistry) *app.Selector {
	return di.GetToken(c, Selector)
}

func GetPriceOracle(c di.ServiceRegistry) app.PriceOracle {
	return di.GetToken(c, PriceOracle)
}
