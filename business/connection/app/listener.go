package app

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

type listenerDeps struct {
	active   bool
	hasError bool
	suppress bool
}

// InactiveListener reconnects the primary context when the wallet reports a
// chain or account change while nothing is connected. It holds a
// subscription only while the primary context is inactive, has no error and
// listening is not suppressed.
type InactiveListener struct {
	primary  *Context
	injected Connector
	wallet   EventEmitter
	logger   logger.LoggerInterface

	suppress   atomic.Bool
	subscribed atomic.Bool
	effect     *effect[listenerDeps]
	events     metric.Int64Counter

	mu        sync.Mutex
	ctx       context.Context
	stopWatch func()
}

// NewInactiveListener creates a listener. wallet may be nil when no wallet
// object is injected; the listener then never subscribes.
func NewInactiveListener(primary *Context, injected Connector, wallet EventEmitter, log logger.LoggerInterface) *InactiveListener {
	l := &InactiveListener{
		primary:  primary,
		injected: injected,
		wallet:   wallet,
		logger:   log,
		ctx:      context.Background(),
	}
	l.effect = newEffect(l.subscribe)

	events, err := otel.Meter(meterName).Int64Counter(
		"wallet_events_total",
		metric.WithDescription("Wallet events that triggered a reconnect"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		log.Warn(context.Background(), "wallet event counter unavailable", "error", err)
		events = noop.Int64Counter{}
	}
	l.events = events

	return l
}

// Start evaluates the guard now and after every primary context change.
// Activations triggered by events run with ctx.
func (l *InactiveListener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.stopWatch != nil {
		l.mu.Unlock()
		return
	}
	l.ctx = ctx
	l.stopWatch = l.primary.Watch(func(domain.State) { l.evaluate() })
	l.mu.Unlock()

	l.evaluate()
}

// SetSuppress disables (true) or enables (false) event handling.
func (l *InactiveListener) SetSuppress(suppress bool) {
	l.suppress.Store(suppress)
	l.evaluate()
}

// Subscribed reports whether wallet event handlers are currently registered.
func (l *InactiveListener) Subscribed() bool {
	return l.subscribed.Load()
}

// Close removes any registered handlers and stops watching the context.
func (l *InactiveListener) Close() {
	l.mu.Lock()
	stop := l.stopWatch
	l.stopWatch = nil
	l.mu.Unlock()

	if stop != nil {
		stop()
	}
	l.effect.close()
}

func (l *InactiveListener) evaluate() {
	l.effect.refresh(func() listenerDeps {
		s := l.primary.Snapshot()
		return listenerDeps{
			active:   s.Active,
			hasError: s.HasError(),
			suppress: l.suppress.Load(),
		}
	})
}

func (l *InactiveListener) subscribe(d listenerDeps) func() {
	if l.wallet == nil || d.active || d.hasError || d.suppress {
		return nil
	}

	l.mu.Lock()
	ctx := l.ctx
	l.mu.Unlock()

	chainID := l.wallet.On(domain.EventChainChanged, func(p domain.EventPayload) {
		l.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", string(domain.EventChainChanged))))
		l.logger.Info(ctx, "wallet chain changed, reconnecting", "chain_id", p.ChainID)
		go l.primary.Activate(ctx, l.injected)
	})
	accountsID := l.wallet.On(domain.EventAccountsChanged, func(p domain.EventPayload) {
		if len(p.Accounts) == 0 {
			return
		}
		l.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event", string(domain.EventAccountsChanged))))
		l.logger.Info(ctx, "wallet accounts changed, reconnecting", "account", p.Accounts[0].Hex())
		go l.primary.Activate(ctx, l.injected)
	})
	l.subscribed.Store(true)
	l.logger.Debug(ctx, "wallet event listener subscribed")

	return func() {
		l.subscribed.Store(false)
		remover, ok := l.wallet.(ListenerRemover)
		if !ok {
			return
		}
		remover.RemoveListener(domain.EventChainChanged, chainID)
		remover.RemoveListener(domain.EventAccountsChanged, accountsID)
		l.logger.Debug(ctx, "wallet event listener removed")
	}
}
