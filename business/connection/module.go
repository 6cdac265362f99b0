// Package connection implements the connection bounded context: wallet and
// read-only network contexts and the lifecycle that keeps one of them active.
package connection

import (
	"context"

	"github.com/fd1az/web3-connect/business/connection/app"
	connectionDI "github.com/fd1az/web3-connect/business/connection/di"
	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/business/connection/infra/injected"
	"github.com/fd1az/web3-connect/business/connection/infra/network"
	"github.com/fd1az/web3-connect/internal/config"
	"github.com/fd1az/web3-connect/internal/di"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/monolith"
)

// Module implements the connection bounded context.
type Module struct{}

// RegisterServices registers all connection services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register the two process-wide contexts (public)
	di.RegisterToken(c, connectionDI.PrimaryContext, func(sr di.ServiceRegistry) *app.Context {
		log := sr.Get("logger").(logger.LoggerInterface)
		ctx, err := app.NewContext(domain.PrimaryContextName, log)
		if err != nil {
			panic("failed to create primary context: " + err.Error())
		}
		return ctx
	})

	di.RegisterToken(c, connectionDI.NetworkContext, func(sr di.ServiceRegistry) *app.Context {
		log := sr.Get("logger").(logger.LoggerInterface)
		ctx, err := app.NewContext(domain.NetworkContextName, log)
		if err != nil {
			panic("failed to create network context: " + err.Error())
		}
		return ctx
	})

	// Register InjectedConnector (private - nil when no wallet is configured)
	di.RegisterToken(c, connectionDI.InjectedConnector, func(sr di.ServiceRegistry) *injected.Connector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if !cfg.Wallet.Injected() {
			return nil
		}

		injCfg := injected.DefaultConfig(cfg.Wallet.RPCURL)
		injCfg.BridgeURL = cfg.Wallet.BridgeURL
		if cfg.Wallet.PollInterval > 0 {
			injCfg.PollInterval = cfg.Wallet.PollInterval
		}
		if len(cfg.Wallet.SupportedChainIDs) > 0 {
			injCfg.SupportedChainIDs = cfg.Wallet.SupportedChainIDs
		}
		return injected.NewConnector(injCfg, log)
	})

	// Register NetworkConnector (private)
	di.RegisterToken(c, connectionDI.NetworkConnector, func(sr di.ServiceRegistry) *network.Connector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return network.NewConnector(network.Config{
			URL:     cfg.Network.HTTPURL,
			ChainID: cfg.Network.ChainID,
		}, log)
	})

	// Register ConnectionService (public - exposed to other modules)
	di.RegisterToken(c, connectionDI.ConnectionService, func(sr di.ServiceRegistry) *app.ConnectionService {
		log := sr.Get("logger").(logger.LoggerInterface)
		primary := connectionDI.GetPrimaryContext(sr)
		net := connectionDI.GetNetworkContext(sr)
		netConnector := connectionDI.GetNetworkConnector(sr)

		// Interfaces must stay untyped nil when no wallet is injected
		var (
			wallet    app.EventEmitter
			connector app.Connector
		)
		if inj := connectionDI.GetInjectedConnector(sr); inj != nil {
			wallet = inj.Wallet()
			connector = inj
		}

		return app.NewConnectionService(primary, net, connector, netConnector, wallet, log)
	})

	return nil
}

// Startup connects the wallet transport and starts the connection lifecycle.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	inj := connectionDI.GetInjectedConnector(mono.Services())
	if inj != nil {
		if err := inj.Start(ctx); err != nil {
			// Don't fail - the wallet may come up later and the network context covers reads
			log.Error(ctx, "failed to connect injected wallet", "error", err)
		}
		mono.OnClose(inj.Close)
	}

	svc := connectionDI.GetConnectionService(mono.Services())
	svc.SetSuppressEvents(cfg.Wallet.SuppressEvents)
	svc.Start(ctx)
	mono.OnClose(func() error {
		svc.Close()
		return nil
	})

	log.Info(ctx, "connection module started", "wallet", inj != nil)
	return nil
}
