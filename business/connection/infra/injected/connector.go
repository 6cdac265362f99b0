package injected

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/web3-connect/business/connection/app"
	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/logger"
)

const (
	tracerName = "github.com/fd1az/web3-connect/business/connection/infra/injected"

	// ConnectorName identifies the injected connector.
	ConnectorName = "injected"
)

// Config holds injected connector settings.
type Config struct {
	URL               string
	BridgeURL         string
	PollInterval      time.Duration
	SupportedChainIDs []uint64
}

// DefaultConfig returns sensible defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		PollInterval:      2 * time.Second,
		SupportedChainIDs: []uint64{1, 3, 4, 5, 42},
	}
}

// eventSource feeds the hub.
type eventSource interface {
	Start(ctx context.Context) error
	Close() error
}

// Connector activates the wallet at Config.URL.
type Connector struct {
	config Config
	logger logger.LoggerInterface
	hub    *EventHub
	tracer trace.Tracer

	mu       sync.Mutex
	provider *Provider
	source   eventSource
	dial     func(ctx context.Context, url string) (*Provider, error)
}

var (
	_ app.Connector            = (*Connector)(nil)
	_ app.AuthorizationChecker = (*Connector)(nil)
	_ app.UpdateSource         = (*Connector)(nil)
)

// NewConnector creates an injected connector. Nothing is dialed until first use.
func NewConnector(cfg Config, log logger.LoggerInterface) *Connector {
	return &Connector{
		config: cfg,
		logger: log,
		hub:    NewEventHub(),
		tracer: otel.Tracer(tracerName),
		dial:   Dial,
	}
}

// Name implements app.Connector.
func (c *Connector) Name() string {
	return ConnectorName
}

// Wallet returns the wallet object the inactive listener subscribes to.
func (c *Connector) Wallet() *EventHub {
	return c.hub
}

// Start dials the wallet and starts delivering its events, through the
// bridge when one is configured and by polling otherwise.
func (c *Connector) Start(ctx context.Context) error {
	provider, err := c.ensureProvider(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.source != nil {
		c.mu.Unlock()
		return nil
	}

	var source eventSource
	if c.config.BridgeURL != "" {
		bridge, err := NewBridge(c.config.BridgeURL, c.hub, c.logger)
		if err != nil {
			c.mu.Unlock()
			return err
		}
		source = bridge
	} else {
		source = NewPoller(provider, c.hub, c.config.PollInterval, c.logger)
	}
	c.source = source
	c.mu.Unlock()

	go func() {
		if err := source.Start(ctx); err != nil {
			c.logger.Warn(ctx, "wallet event source stopped", "error", err)
		}
	}()

	c.logger.Info(ctx, "injected wallet connected", "url", c.config.URL, "bridge", c.config.BridgeURL != "")
	return nil
}

// IsAuthorized reports whether the wallet exposes accounts without prompting.
func (c *Connector) IsAuthorized(ctx context.Context) (bool, error) {
	provider, err := c.ensureProvider(ctx)
	if err != nil {
		return false, err
	}

	accounts, err := provider.Accounts(ctx)
	if err != nil {
		return false, err
	}
	return len(accounts) > 0, nil
}

// Activate requests accounts and checks the chain.
func (c *Connector) Activate(ctx context.Context) (*domain.Activation, error) {
	ctx, span := c.tracer.Start(ctx, "injected.activate",
		trace.WithAttributes(attribute.String("url", c.config.URL)),
	)
	defer span.End()

	provider, err := c.ensureProvider(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, err
	}

	accounts, err := provider.RequestAccounts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request accounts failed")
		return nil, err
	}
	if len(accounts) == 0 {
		err := apperror.New(apperror.CodeWalletNotAuthorized, apperror.WithContext("wallet returned no accounts"))
		span.RecordError(err)
		return nil, err
	}

	chainID, err := provider.ChainID(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain id failed")
		return nil, err
	}
	if err := c.checkChain(chainID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unsupported chain")
		return nil, err
	}

	span.SetAttributes(attribute.Int64("chain_id", int64(chainID)))
	span.SetStatus(codes.Ok, "activated")

	return &domain.Activation{
		Library: domain.NewLibrary(provider.Client(), chainID, provider),
		Account: accounts[0],
		ChainID: chainID,
	}, nil
}

// Deactivate implements app.Connector. The wallet transport stays open so
// its events keep flowing to the inactive listener.
func (c *Connector) Deactivate() {
	c.logger.Debug(context.Background(), "injected connector deactivated")
}

// OnUpdate forwards wallet events to an active context: a new first account,
// a new chain (with a fresh library), an unsupported chain as an error, or
// an empty account list as deactivation.
func (c *Connector) OnUpdate(fn func(domain.Update)) func() {
	chainID := c.hub.On(domain.EventChainChanged, func(p domain.EventPayload) {
		if err := c.checkChain(p.ChainID); err != nil {
			fn(domain.Update{Err: err})
			return
		}

		c.mu.Lock()
		provider := c.provider
		c.mu.Unlock()

		u := domain.Update{ChainID: p.ChainID}
		if provider != nil {
			u.Library = domain.NewLibrary(provider.Client(), p.ChainID, provider)
		}
		fn(u)
	})
	accountsID := c.hub.On(domain.EventAccountsChanged, func(p domain.EventPayload) {
		if len(p.Accounts) == 0 {
			fn(domain.Update{Deactivated: true})
			return
		}
		account := p.Accounts[0]
		fn(domain.Update{Account: &account})
	})

	return func() {
		c.hub.RemoveListener(domain.EventChainChanged, chainID)
		c.hub.RemoveListener(domain.EventAccountsChanged, accountsID)
	}
}

// Close stops the event source and closes the transport.
func (c *Connector) Close() error {
	c.mu.Lock()
	source := c.source
	provider := c.provider
	c.source = nil
	c.provider = nil
	c.mu.Unlock()

	if source != nil {
		_ = source.Close()
	}
	if provider != nil {
		provider.Close()
	}
	return nil
}

func (c *Connector) checkChain(chainID uint64) error {
	if len(c.config.SupportedChainIDs) == 0 || slices.Contains(c.config.SupportedChainIDs, chainID) {
		return nil
	}
	return apperror.New(apperror.CodeUnsupportedChainID,
		apperror.WithContext(fmt.Sprintf("chain %d, supported %v", chainID, c.config.SupportedChainIDs)))
}

func (c *Connector) ensureProvider(ctx context.Context) (*Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.provider != nil {
		return c.provider, nil
	}

	provider, err := c.dial(ctx, c.config.URL)
	if err != nil {
		return nil, err
	}
	c.provider = provider
	return provider, nil
}
