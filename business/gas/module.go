// Package gas implements the gas bounded context: tiered gas price quotes and
// the user's tier selection.
package gas

import (
	"context"
	"io"

	connectionDI "github.com/fd1az/web3-connect/business/connection/di"
	"github.com/fd1az/web3-connect/business/gas/app"
	gasDI "github.com/fd1az/web3-connect/business/gas/di"
	"github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/business/gas/infra/fallback"
	"github.com/fd1az/web3-connect/business/gas/infra/node"
	"github.com/fd1az/web3-connect/business/gas/infra/station"
	"github.com/fd1az/web3-connect/internal/config"
	"github.com/fd1az/web3-connect/internal/di"
	"github.com/fd1az/web3-connect/internal/logger"
	"github.com/fd1az/web3-connect/internal/monolith"
)

// Module implements the gas bounded context.
type Module struct{}

// RegisterServices registers all gas services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PriceOracle (private) according to gas.source
	di.RegisterToken(c, gasDI.PriceOracle, func(sr di.ServiceRegistry) app.PriceOracle {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		nodeCfg := node.DefaultConfig()
		if cfg.Gas.CacheTTL > 0 {
			nodeCfg.CacheTTL = cfg.Gas.CacheTTL
		}
		if cfg.Gas.MaxGwei > 0 {
			nodeCfg.MaxGasPrice = cfg.Gas.MaxGweiDecimal().Shift(9).BigInt()
		}
		nodeOracle, err := node.NewOracle(nodeCfg,
			connectionDI.GetPrimaryContext(sr), connectionDI.GetNetworkContext(sr), log)
		if err != nil {
			panic("failed to create node gas oracle: " + err.Error())
		}
		if cfg.Gas.Source == config.GasSourceNode {
			return nodeOracle
		}

		stationCfg := station.DefaultConfig(cfg.Gas.StationURL)
		if cfg.Gas.CacheTTL > 0 {
			stationCfg.CacheTTL = cfg.Gas.CacheTTL
		}
		stationOracle, err := station.NewOracle(stationCfg, log)
		if err != nil {
			panic("failed to create station gas oracle: " + err.Error())
		}
		if cfg.Gas.Source == config.GasSourceStation {
			return stationOracle
		}

		return fallback.NewOracle(log, stationOracle, nodeOracle)
	})

	// Register Selector (public - exposed to other modules)
	di.RegisterToken(c, gasDI.Selector, func(sr di.ServiceRegistry) *app.Selector {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		tier, err := domain.ParseTier(cfg.Gas.DefaultTier)
		if err != nil {
			tier = domain.DefaultTier
		}
		return app.NewSelector(gasDI.GetPriceOracle(sr), tier, log)
	})

	return nil
}

// Startup logs the selected tier and registers oracle cleanup.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	oracle := gasDI.GetPriceOracle(mono.Services())
	for _, closer := range oracleClosers(oracle) {
		mono.OnClose(closer.Close)
	}

	selector := gasDI.GetSelector(mono.Services())
	log.Info(ctx, "gas module started",
		"oracle", oracle.Name(),
		"tier", selector.Tier(),
		"max_gwei", mono.Config().Gas.MaxGwei)
	return nil
}

func oracleClosers(oracle app.PriceOracle) []io.Closer {
	if fb, ok := oracle.(*fallback.Oracle); ok {
		var closers []io.Closer
		for _, inner := range fb.Oracles() {
			closers = append(closers, oracleClosers(inner)...)
		}
		return closers
	}
	if c, ok := oracle.(io.Closer); ok {
		return []io.Closer{c}
	}
	return nil
}
