package app

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	connApp "github.com/fd1az/web3-connect/business/connection/app"
	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	contractDomain "github.com/fd1az/web3-connect/business/contract/domain"
	"github.com/fd1az/web3-connect/business/dashboard/domain"
	"github.com/fd1az/web3-connect/internal/asset"
	"github.com/fd1az/web3-connect/internal/logger"
)

const (
	tracerName = "github.com/fd1az/web3-connect/business/dashboard/app"
	meterName  = "github.com/fd1az/web3-connect/business/dashboard/app"
)

var hundred = decimal.NewFromInt(100)

// MonitorConfig holds configuration for the monitor.
type MonitorConfig struct {
	// Tokens whose wallet balances are shown, keyed by symbol.
	Tokens map[string]common.Address

	Exchange          string
	ExchangeInterface *contractDomain.Interface

	RefreshTimeout time.Duration
	Concurrency    int
}

// DefaultMonitorConfig returns sensible defaults.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		RefreshTimeout: 10 * time.Second,
		Concurrency:    4,
	}
}

type monitorMetrics struct {
	refreshes       metric.Int64Counter
	refreshErrors   metric.Int64Counter
	refreshDuration metric.Float64Histogram
}

// Monitor refreshes a snapshot on every new head and on demand.
type Monitor struct {
	config    MonitorConfig
	primary   connApp.ContextReader
	network   connApp.ContextReader
	contracts ContractResolver
	tokens    TokenResolver
	exchanges ExchangeResolver
	gas       GasQuoter
	assets    *asset.Registry
	heads     HeadSource
	reporter  Reporter
	logger    logger.LoggerInterface

	trigger chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once

	mu     sync.RWMutex
	latest *domain.Snapshot
	block  *domain.Block

	tracer  trace.Tracer
	metrics *monitorMetrics
}

// MonitorDeps are the monitor's collaborators.
type MonitorDeps struct {
	Primary   connApp.ContextReader
	Network   connApp.ContextReader
	Contracts ContractResolver
	Tokens    TokenResolver
	Exchanges ExchangeResolver
	Gas       GasQuoter
	Assets    *asset.Registry
	Heads     HeadSource
	Reporter  Reporter
}

// NewMonitor creates a monitor.
func NewMonitor(cfg MonitorConfig, deps MonitorDeps, log logger.LoggerInterface) (*Monitor, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	m := &Monitor{
		config:    cfg,
		primary:   deps.Primary,
		network:   deps.Network,
		contracts: deps.Contracts,
		tokens:    deps.Tokens,
		exchanges: deps.Exchanges,
		gas:       deps.Gas,
		assets:    deps.Assets,
		heads:     deps.Heads,
		reporter:  deps.Reporter,
		logger:    log,
		trigger:   make(chan struct{}, 1),
		done:      make(chan struct{}),
		tracer:    otel.Tracer(tracerName),
	}

	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return m, nil
}

func (m *Monitor) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &monitorMetrics{}

	m.metrics.refreshes, err = meter.Int64Counter(
		"dashboard_refreshes_total",
		metric.WithDescription("Total snapshot refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return err
	}

	m.metrics.refreshErrors, err = meter.Int64Counter(
		"dashboard_refresh_errors_total",
		metric.WithDescription("Reads that failed during a refresh"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	m.metrics.refreshDuration, err = meter.Float64Histogram(
		"dashboard_refresh_duration_ms",
		metric.WithDescription("Time to build a snapshot"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Start subscribes to heads and starts the refresh loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info(ctx, "starting dashboard monitor")

	if err := m.reporter.Start(ctx); err != nil {
		return err
	}

	blocks, err := m.heads.Subscribe(ctx)
	if err != nil {
		return err
	}

	m.wg.Add(1)
	go m.run(ctx, blocks)

	m.Refresh()
	return nil
}

// Refresh asks for a snapshot outside the block cadence. It never blocks.
func (m *Monitor) Refresh() {
	select {
	case m.trigger <- struct{}{}:
	default:
	}
}

// Latest returns the most recent snapshot, or nil before the first refresh.
func (m *Monitor) Latest() *domain.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Monitor) run(ctx context.Context, blocks <-chan *domain.Block) {
	defer m.wg.Done()

	mode := m.heads.Mode()
	for {
		select {
		case <-ctx.Done():
			m.logger.Info(ctx, "monitor stopping", "reason", ctx.Err())
			return
		case <-m.done:
			return
		case block, ok := <-blocks:
			if !ok {
				return
			}
			if block == nil {
				continue
			}
			m.mu.Lock()
			m.block = block
			m.mu.Unlock()
			m.publish(ctx, block)
		case <-m.trigger:
			m.mu.RLock()
			block := m.block
			m.mu.RUnlock()
			m.publish(ctx, block)
		}

		if current := m.heads.Mode(); current != mode {
			mode = current
			m.reporter.UpdateConnectionStatus("Heads", mode != domain.HeadModeStopped, 0)
		}
	}
}

func (m *Monitor) publish(ctx context.Context, block *domain.Block) {
	snap := m.Snapshot(ctx, block)

	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	m.reporter.UpdateConnectionStatus("RPC", snap.Connection.Active, snap.Duration)
	m.reporter.Report(snap)
}

// Snapshot reads everything the dashboard shows. Reads that fail are
// recorded in Errors and leave their section empty. block may be nil, in
// which case the latest header is read.
func (m *Monitor) Snapshot(ctx context.Context, block *domain.Block) *domain.Snapshot {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, m.config.RefreshTimeout)
	defer cancel()

	ctx, span := m.tracer.Start(ctx, "dashboard.snapshot")
	defer span.End()

	reader := connApp.SelectActive(m.primary, m.network)
	active := reader.Snapshot()
	primary := m.primary.Snapshot()

	snap := &domain.Snapshot{
		Block:      block,
		Connection: connectionOf(reader.Name(), active, primary),
		GasTier:    m.gas.Tier(),
		Taken:      start,
	}

	var mu sync.Mutex
	record := func(section string, err error) {
		m.metrics.refreshErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("section", section)))
		m.logger.Debug(ctx, "dashboard read failed", "section", section, "error", err)
		mu.Lock()
		snap.Errors = append(snap.Errors, fmt.Errorf("%s: %w", section, err))
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(m.config.Concurrency)

	if block == nil && active.Library != nil {
		g.Go(func() error {
			header, err := active.Library.Backend().HeaderByNumber(ctx, nil)
			if err != nil {
				record("block", err)
				return nil
			}
			b := domain.BlockFromHeader(header)
			mu.Lock()
			snap.Block = b
			mu.Unlock()
			return nil
		})
	}

	if active.Library != nil && active.HasAccount() {
		g.Go(func() error {
			wei, err := active.Library.Backend().BalanceAt(ctx, active.Account, nil)
			if err != nil {
				record("ether", err)
				return nil
			}
			amount := asset.NewAmount(m.assets.Native(active.ChainID), wei)
			mu.Lock()
			snap.Ether = &amount
			mu.Unlock()
			return nil
		})
	}

	// Token balances belong to the wallet, so only the primary context is read.
	if primary.HasAccount() {
		for symbol, addr := range m.config.Tokens {
			g.Go(func() error {
				amount, ok, err := m.tokenBalance(ctx, primary, symbol, addr)
				if err != nil {
					record("balance "+symbol, err)
					return nil
				}
				if ok {
					mu.Lock()
					snap.Balances = append(snap.Balances, amount)
					mu.Unlock()
				}
				return nil
			})
		}
	}

	if m.config.Exchange != "" {
		g.Go(func() error {
			info, err := m.exchangeInfo(ctx, active.ChainID)
			if err != nil {
				record("exchange", err)
				return nil
			}
			mu.Lock()
			snap.Exchange = info
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		prices, err := m.gas.FetchAll(ctx)
		if err != nil {
			record("gas", err)
		}
		mu.Lock()
		snap.GasPrices = prices
		mu.Unlock()
		return nil
	})

	_ = g.Wait()

	sort.Slice(snap.Balances, func(i, j int) bool {
		return snap.Balances[i].Asset().Symbol() < snap.Balances[j].Asset().Symbol()
	})

	snap.Duration = time.Since(start)
	m.metrics.refreshes.Add(ctx, 1)
	m.metrics.refreshDuration.Record(ctx, float64(snap.Duration.Milliseconds()))

	span.SetAttributes(
		attribute.String("context", snap.Connection.Context),
		attribute.Int("errors", len(snap.Errors)),
	)
	if len(snap.Errors) > 0 {
		span.SetStatus(codes.Error, "partial snapshot")
	} else {
		span.SetStatus(codes.Ok, "refreshed")
	}

	return snap
}

func connectionOf(name string, active, primary connDomain.State) domain.Connection {
	c := domain.Connection{
		Context:   name,
		Connector: active.ConnectorName,
		Active:    active.Active,
		Account:   active.Account,
		ChainID:   active.ChainID,
		Error:     active.Error,
	}
	if name != connDomain.PrimaryContextName {
		c.WalletError = primary.Error
	}
	return c
}

// tokenBalance reads the wallet's balance of addr. ok is false when no
// token handle is available.
func (m *Monitor) tokenBalance(ctx context.Context, primary connDomain.State, symbol string, addr common.Address) (asset.Amount, bool, error) {
	token := m.tokens.Resolve(addr.Hex(), false)
	if token == nil {
		return asset.Amount{}, false, nil
	}

	a, err := m.tokenAsset(ctx, primary.ChainID, symbol, token)
	if err != nil {
		return asset.Amount{}, false, err
	}

	raw, err := token.BalanceOf(ctx, primary.Account)
	if err != nil {
		return asset.Amount{}, false, err
	}
	return asset.NewAmount(a, raw), true, nil
}

// tokenAsset returns the registered asset for token, reading its metadata
// on first sight.
func (m *Monitor) tokenAsset(ctx context.Context, chainID uint64, symbol string, token *contractDomain.Token) (*asset.Asset, error) {
	if a, ok := m.assets.Token(chainID, token.Address()); ok {
		return a, nil
	}

	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, err
	}
	if onChain, err := token.Symbol(ctx); err == nil && onChain != "" {
		symbol = onChain
	}
	return m.assets.Ensure(asset.NewToken(chainID, token.Address(), symbol, "", decimals)), nil
}

func (m *Monitor) exchangeInfo(ctx context.Context, chainID uint64) (*domain.ExchangeInfo, error) {
	exchange := m.exchanges.Resolve(m.config.Exchange, false)
	if exchange == nil {
		// No wallet provider; read through whichever context is active.
		if c := m.contracts.Resolve(m.config.Exchange, m.config.ExchangeInterface, false); c != nil {
			exchange = contractDomain.NewExchange(c)
		}
	}
	if exchange == nil {
		return nil, fmt.Errorf("no provider for %s", m.config.Exchange)
	}

	fee, err := exchange.Fee(ctx)
	if err != nil {
		return nil, err
	}

	info := &domain.ExchangeInfo{
		Address:    exchange.Address(),
		FeePercent: decimal.NewFromBigInt(fee, 0).Div(decimal.NewFromBigInt(contractDomain.FeeDenominator, 0)).Mul(hundred),
	}

	for i := int64(0); i < 2; i++ {
		coin, err := exchange.Coins(ctx, i)
		if err != nil {
			return nil, err
		}
		info.Coins = append(info.Coins, coin)
	}

	in, inOK := m.assets.Token(chainID, info.Coins[0])
	out, outOK := m.assets.Token(chainID, info.Coins[1])
	if !inOK || !outOK {
		return info, nil
	}

	dx := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(in.Decimals())), nil)
	dy, err := exchange.GetOutputAmount(ctx, 0, 1, dx)
	if err != nil {
		return nil, err
	}
	info.Quote = asset.NewAmount(out, dy).ToDecimal()

	return info, nil
}

// Close stops the refresh loop, the head source and the reporter.
func (m *Monitor) Close() error {
	var err error
	m.stop.Do(func() {
		close(m.done)
		m.wg.Wait()
		if herr := m.heads.Close(); herr != nil {
			err = herr
		}
		if rerr := m.reporter.Stop(); rerr != nil && err == nil {
			err = rerr
		}
	})
	return err
}
