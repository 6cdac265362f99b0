// Package app contains the contract resolvers.
package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	connApp "github.com/fd1az/web3-connect/business/connection/app"
	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/business/contract/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

const meterName = "github.com/fd1az/web3-connect/business/contract/app"

// DefaultMemoSize bounds each resolver's memo. A handle stays identical for
// unchanged inputs while its key is among the DefaultMemoSize most recently
// used keys; once evicted, the same inputs build a fresh handle.
const DefaultMemoSize = 256

// Option configures a resolver.
type Option func(*options)

type options struct {
	memoSize int
}

// WithMemoSize sets how many (address, interface, library, signer) keys the
// resolver remembers. Values <= 0 use DefaultMemoSize.
func WithMemoSize(n int) Option {
	return func(o *options) {
		o.memoSize = n
	}
}

func applyOptions(opts []Option) options {
	o := options{memoSize: DefaultMemoSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// memoKey is everything a handle depends on. A change in any field yields a
// new handle; equal keys yield the identical one.
type memoKey struct {
	address      string
	iface        *domain.Interface
	library      *connDomain.Library
	preferSigned bool
	account      common.Address
}

type resolverMetrics struct {
	hits     metric.Int64Counter
	misses   metric.Int64Counter
	failures metric.Int64Counter
}

// memo builds handles and remembers them, failures included, per key.
type memo[H comparable] struct {
	name    string
	cache   *lru.Cache[memoKey, H]
	wrap    func(*domain.Contract) H
	metrics *resolverMetrics
}

func newMemo[H comparable](name string, size int, wrap func(*domain.Contract) H) (*memo[H], error) {
	if size <= 0 {
		size = DefaultMemoSize
	}
	cache, err := lru.New[memoKey, H](size)
	if err != nil {
		return nil, err
	}

	m := &memo[H]{name: name, cache: cache, wrap: wrap}
	if err := m.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}
	return m, nil
}

func (m *memo[H]) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	m.metrics = &resolverMetrics{}

	m.metrics.hits, err = meter.Int64Counter(
		"contract_resolver_hits_total",
		metric.WithDescription("Contract handles served from the memo"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	m.metrics.misses, err = meter.Int64Counter(
		"contract_resolver_misses_total",
		metric.WithDescription("Contract handles built"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	m.metrics.failures, err = meter.Int64Counter(
		"contract_resolver_failures_total",
		metric.WithDescription("Contract handle construction failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// resolve returns the handle for address/iface on state's library, signed by
// state's account when preferSigned and an account is present. onError sees
// construction failures once per key.
func (m *memo[H]) resolve(state connDomain.State, address string, iface *domain.Interface, preferSigned bool, onError func(error)) H {
	key := memoKey{
		address:      address,
		iface:        iface,
		library:      state.Library,
		preferSigned: preferSigned,
		account:      state.Account,
	}

	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("resolver", m.name))

	if c, ok := m.cache.Get(key); ok {
		m.metrics.hits.Add(ctx, 1, attrs)
		return c
	}
	m.metrics.misses.Add(ctx, 1, attrs)

	var signer *common.Address
	if preferSigned && state.HasAccount() {
		account := state.Account
		signer = &account
	}

	var h H
	c, err := domain.NewContract(address, iface, state.Library, signer)
	if err != nil {
		m.metrics.failures.Add(ctx, 1, attrs)
		if onError != nil {
			onError(err)
		}
	} else {
		h = m.wrap(c)
	}

	m.cache.Add(key, h)
	return h
}

// Resolver builds contract handles on whichever context is active.
type Resolver struct {
	primary connApp.ContextReader
	network connApp.ContextReader
	logger  logger.LoggerInterface
	memo    *memo[*domain.Contract]
}

// NewResolver creates a resolver over the two contexts.
func NewResolver(primary, network connApp.ContextReader, log logger.LoggerInterface, opts ...Option) (*Resolver, error) {
	o := applyOptions(opts)
	m, err := newMemo("contract", o.memoSize, func(c *domain.Contract) *domain.Contract { return c })
	if err != nil {
		return nil, err
	}
	return &Resolver{
		primary: primary,
		network: network,
		logger:  log,
		memo:    m,
	}, nil
}

// Resolve returns a handle for address bound to the active context, or nil
// when address or iface is missing, no provider is available, or construction
// fails. Failures are logged.
func (r *Resolver) Resolve(address string, iface *domain.Interface, preferSigned bool) *domain.Contract {
	state := connApp.SelectActive(r.primary, r.network).Snapshot()
	if address == "" || iface == nil || state.Library == nil {
		return nil
	}

	return r.memo.resolve(state, address, iface, preferSigned, func(err error) {
		r.logger.Warn(context.Background(), "failed to get contract",
			"address", address, "interface", iface.Name(), "error", err)
	})
}
