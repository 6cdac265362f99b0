// Package contract implements the contract bounded context: memoized contract
// handles bound to the active connection.
package contract

import (
	"context"

	connectionDI "github.com/fd1az/web3-connect/business/connection/di"
	"github.com/fd1az/web3-connect/business/contract/app"
	contractDI "github.com/fd1az/web3-connect/business/contract/di"
	"github.com/fd1az/web3-connect/business/contract/domain"
	"github.com/fd1az/web3-connect/business/contract/infra/abis"
	"github.com/fd1az/web3-connect/internal/config"
	"github.com/fd1az/web3-connect/internal/di"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/monolith"
)

// Module implements the contract bounded context.
type Module struct{}

// RegisterServices registers all contract services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, contractDI.Resolver, func(sr di.ServiceRegistry) *app.Resolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		r, err := app.NewResolver(connectionDI.GetPrimaryContext(sr), connectionDI.GetNetworkContext(sr), log,
			app.WithMemoSize(cfg.Contracts.MemoSize))
		if err != nil {
			panic("failed to create contract resolver: " + err.Error())
		}
		return r
	})

	// Token and exchange resolvers read the primary context only
	di.RegisterToken(c, contractDI.TokenResolver, func(sr di.ServiceRegistry) *app.TokenResolver {
		cfg := sr.Get("config").(*config.Config)
		r, err := app.NewTokenResolver(connectionDI.GetPrimaryContext(sr), abis.ERC20,
			app.WithMemoSize(cfg.Contracts.MemoSize))
		if err != nil {
			panic("failed to create token resolver: " + err.Error())
		}
		return r
	})

	di.RegisterToken(c, contractDI.ExchangeResolver, func(sr di.ServiceRegistry) *app.ExchangeResolver {
		cfg := sr.Get("config").(*config.Config)
		r, err := app.NewExchangeResolver(connectionDI.GetPrimaryContext(sr), abis.Exchange,
			app.WithMemoSize(cfg.Contracts.MemoSize))
		if err != nil {
			panic("failed to create exchange resolver: " + err.Error())
		}
		return r
	})

	return nil
}

// Startup checks the bundled interfaces parse.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	for _, iface := range []*domain.Interface{abis.ERC20, abis.Exchange} {
		if _, err := iface.ABI(); err != nil {
			return err
		}
	}

	log.Info(ctx, "contract module started")
	return nil
}
