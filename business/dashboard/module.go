// Package dashboard implements the dashboard bounded context: a snapshot of
// the active connection refreshed on every new head.
package dashboard

import (
	"context"

	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	connectionDI "github.com/fd1az/web3-connect/business/connection/di"
	contractDI "github.com/fd1az/web3-connect/business/contract/di"
	"github.com/fd1az/web3-connect/business/contract/infra/abis"
	"github.com/fd1az/web3-connect/business/dashboard/app"
	dashboardDI "github.com/fd1az/web3-connect/business/dashboard/di"
	"github.com/fd1az/web3-connect/business/dashboard/infra/heads"
	"github.com/fd1az/web3-connect/business/dashboard/infra/report"
	gasApp "github.com/fd1az/web3-connect/business/gas/app"
	gasDI "github.com/fd1az/web3-connect/business/gas/di"
	"github.com/fd1az/web3-connect/internal/asset"
	"github.com/fd1az/web3-connect/internal/config"
	"github.com/fd1az/web3-connect/internal/di"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/monolith"
)

// Module implements the dashboard bounded context.
type Module struct{}

// RegisterServices registers all dashboard services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register HeadSource (private)
	di.RegisterToken(c, dashboardDI.HeadSource, func(sr di.ServiceRegistry) app.HeadSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		headsCfg := heads.DefaultConfig(cfg.Network.WebSocketURL)
		if cfg.Dashboard.PollInterval > 0 {
			headsCfg.PollInterval = cfg.Dashboard.PollInterval
		}
		if cfg.Dashboard.ReconnectDelay > 0 {
			headsCfg.ReconnectDelay = cfg.Dashboard.ReconnectDelay
		}

		w, err := heads.NewWatcher(headsCfg,
			connectionDI.GetPrimaryContext(sr), connectionDI.GetNetworkContext(sr), log)
		if err != nil {
			panic("failed to create head watcher: " + err.Error())
		}
		return w
	})

	// Register Reporter (private) - TUI or console based on mode
	di.RegisterToken(c, dashboardDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.App.TUIMode {
			return report.NewTUIReporter()
		}
		return report.NewConsoleReporter()
	})

	// Register Monitor (public - exposed to other modules)
	di.RegisterToken(c, dashboardDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		monCfg := app.DefaultMonitorConfig()
		monCfg.Tokens = cfg.Contracts.TokenAddresses()
		monCfg.Exchange = cfg.Contracts.Exchange
		monCfg.ExchangeInterface = abis.Exchange
		if cfg.Dashboard.RefreshTimeout > 0 {
			monCfg.RefreshTimeout = cfg.Dashboard.RefreshTimeout
		}

		mon, err := app.NewMonitor(monCfg, app.MonitorDeps{
			Primary:   connectionDI.GetPrimaryContext(sr),
			Network:   connectionDI.GetNetworkContext(sr),
			Contracts: contractDI.GetResolver(sr),
			Tokens:    contractDI.GetTokenResolver(sr),
			Exchanges: contractDI.GetExchangeResolver(sr),
			Gas:       gasDI.GetSelector(sr),
			Assets:    sr.Get("assetRegistry").(*asset.Registry),
			Heads:     dashboardDI.GetHeadSource(sr),
			Reporter:  dashboardDI.GetReporter(sr),
		}, log)
		if err != nil {
			panic("failed to create dashboard monitor: " + err.Error())
		}
		return mon
	})

	return nil
}

// Startup starts the monitor and refreshes it whenever either context or the
// gas tier changes.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	sr := mono.Services()

	mon := dashboardDI.GetMonitor(sr)
	if err := mon.Start(ctx); err != nil {
		return err
	}

	refresh := func(connDomain.State) { mon.Refresh() }
	cancelPrimary := connectionDI.GetPrimaryContext(sr).Watch(refresh)
	cancelNetwork := connectionDI.GetNetworkContext(sr).Watch(refresh)
	cancelTier := gasDI.GetSelector(sr).Watch(func(*gasApp.PriceFetcher) { mon.Refresh() })

	mono.OnClose(func() error {
		cancelTier()
		cancelNetwork()
		cancelPrimary()
		return mon.Close()
	})

	log.Info(ctx, "dashboard module started",
		"tokens", len(mono.Config().Contracts.Tokens),
		"exchange", mono.Config().Contracts.Exchange,
		"ws", mono.Config().Network.WebSocketURL != "")
	return nil
}
