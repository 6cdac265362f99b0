// Package di contains dependency injection tokens for the contract context.
package di

import (
	"github.com/fd1az/web3-connect/business/contract/app"
	"github.com/fd1az/web3-connect/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Resolver         = di.NewToken[*app.Resolver]("contract.Resolver")
	TokenResolver    = di.NewToken[*app.TokenResolver]("contract.TokenResolver")
	ExchangeResolver = di.NewToken[*app.ExchangeResolver]("contract.ExchangeResolver")
)

// Helper functions for type-safe access
func GetResolver(c di.ServiceRegistry) *app.Resolver {
	return di.GetToken(c, Resolver)
}

func GetTokenResolver(c di.ServiceRegistry) *app.TokenResolver {
	return di.GetToken(c, TokenResolver)
}

func GetExchangeResolver(c di.ServiceRegistry) *app.ExchangeResolver {
	return di.GetToken(c, ExchangeResolver)
}
