// Package network provides the read-only connector backing the network context.
package network

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/web3-connect/business/connection/app"
	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/circuitbreaker"
	"github.com/fd1az/web3-connect/internal/logger"
)

const (
	tracerName = "github.com/fd1az/web3-connect/business/connection/infra/network"

	// ConnectorName identifies the network connector.
	ConnectorName = "network"
)

// Config holds network connector settings.
type Config struct {
	URL string

	// ChainID the node must report. Zero accepts any chain.
	ChainID uint64
}

// Connector activates a read-only library against a node.
type Connector struct {
	config Config
	logger logger.LoggerInterface
	tracer trace.Tracer
	dial   func(ctx context.Context, url string) (domain.Backend, func(), error)

	mu     sync.Mutex
	closer func()
}

var _ app.Connector = (*Connector)(nil)

// NewConnector creates a network connector.
func NewConnector(cfg Config, log logger.LoggerInterface) *Connector {
	return &Connector{
		config: cfg,
		logger: log,
		tracer: otel.Tracer(tracerName),
		dial:   dialEthclient,
	}
}

func dialEthclient(ctx context.Context, url string) (domain.Backend, func(), error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

// Name implements app.Connector.
func (c *Connector) Name() string {
	return ConnectorName
}

// Activate dials the node and verifies its chain. The returned library has no
// signer and no account.
func (c *Connector) Activate(ctx context.Context) (*domain.Activation, error) {
	ctx, span := c.tracer.Start(ctx, "network.activate",
		trace.WithAttributes(attribute.String("url", c.config.URL)),
	)
	defer span.End()

	backend, closer, err := c.dial(ctx, c.config.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "dial failed")
		return nil, apperror.External(apperror.CodeEthereumConnectionError, "dial "+c.config.URL, err)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		closer()
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain id failed")
		return nil, apperror.External(apperror.CodeEthereumRPCError, "eth_chainId", err)
	}
	if c.config.ChainID != 0 && chainID.Uint64() != c.config.ChainID {
		closer()
		err := apperror.New(apperror.CodeUnsupportedChainID,
			apperror.WithContext(fmt.Sprintf("node reports chain %d, expected %d", chainID.Uint64(), c.config.ChainID)))
		span.RecordError(err)
		span.SetStatus(codes.Error, "chain mismatch")
		return nil, err
	}

	c.mu.Lock()
	prev := c.closer
	c.closer = closer
	c.mu.Unlock()
	if prev != nil {
		prev()
	}

	span.SetAttributes(attribute.Int64("chain_id", chainID.Int64()))
	span.SetStatus(codes.Ok, "activated")
	c.logger.Info(ctx, "network node connected", "url", c.config.URL, "chain_id", chainID.Uint64())

	return &domain.Activation{
		Library: domain.NewLibrary(newGuardedBackend(backend, c.logger), chainID.Uint64(), nil),
		ChainID: chainID.Uint64(),
	}, nil
}

// Deactivate closes the node connection.
func (c *Connector) Deactivate() {
	c.mu.Lock()
	closer := c.closer
	c.closer = nil
	c.mu.Unlock()

	if closer != nil {
		closer()
	}
}

// guardedBackend routes contract calls through a circuit breaker.
type guardedBackend struct {
	domain.Backend
	cb *circuitbreaker.CircuitBreaker[[]byte]
}

func newGuardedBackend(b domain.Backend, log logger.LoggerInterface) *guardedBackend {
	cfg := circuitbreaker.DefaultConfig("network-call")
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "circuit breaker state changed",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	return &guardedBackend{
		Backend: b,
		cb:      circuitbreaker.New[[]byte](cfg),
	}
}

// CallContract implements bind.ContractCaller.
func (g *guardedBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return g.cb.Execute(func() ([]byte, error) {
		return g.Backend.CallContract(ctx, call, blockNumber)
	})
}
