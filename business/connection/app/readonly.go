package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

type readOnlyDeps struct {
	tried           bool
	networkActive   bool
	networkHasError bool
	primaryActive   bool
}

// ReadOnlyConnector activates the network context once the eager connect
// attempt has resolved and neither context is active. It never deactivates.
type ReadOnlyConnector struct {
	primary   *Context
	network   *Context
	connector Connector
	eager     TriedSignal
	logger    logger.LoggerInterface

	activating atomic.Bool
	effect     *effect[readOnlyDeps]

	mu    sync.Mutex
	ctx   context.Context
	stops []func()
	quit  chan struct{}
}

// NewReadOnlyConnector creates the fallback activator for network.
func NewReadOnlyConnector(primary, network *Context, connector Connector, eager TriedSignal, log logger.LoggerInterface) *ReadOnlyConnector {
	r := &ReadOnlyConnector{
		primary:   primary,
		network:   network,
		connector: connector,
		eager:     eager,
		logger:    log,
		ctx:       context.Background(),
	}
	r.effect = newEffect(r.activate)
	return r
}

// Start evaluates the guard now, when the eager attempt resolves, and after
// every change to either context.
func (r *ReadOnlyConnector) Start(ctx context.Context) {
	r.mu.Lock()
	if r.quit != nil {
		r.mu.Unlock()
		return
	}
	r.ctx = ctx
	r.quit = make(chan struct{})
	quit := r.quit
	r.stops = []func(){
		r.primary.Watch(func(domain.State) { r.evaluate() }),
		r.network.Watch(func(domain.State) { r.evaluate() }),
	}
	r.mu.Unlock()

	go func() {
		select {
		case <-r.eager.Done():
			r.evaluate()
		case <-quit:
		case <-ctx.Done():
		}
	}()

	r.evaluate()
}

// Close stops watching. An activation already in flight still completes.
func (r *ReadOnlyConnector) Close() {
	r.mu.Lock()
	stops := r.stops
	r.stops = nil
	if r.quit != nil {
		select {
		case <-r.quit:
		default:
			close(r.quit)
		}
	}
	r.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	r.effect.close()
}

func (r *ReadOnlyConnector) evaluate() {
	r.effect.refresh(func() readOnlyDeps {
		n := r.network.Snapshot()
		return readOnlyDeps{
			tried:           r.eager.Tried(),
			networkActive:   n.Active,
			networkHasError: n.HasError(),
			primaryActive:   r.primary.Active(),
		}
	})
}

func (r *ReadOnlyConnector) activate(d readOnlyDeps) func() {
	if !d.tried || d.networkActive || d.networkHasError || d.primaryActive {
		return nil
	}
	if !r.activating.CompareAndSwap(false, true) {
		return nil
	}

	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()

	r.logger.Info(ctx, "activating read-only network connection", "connector", r.connector.Name())
	go func() {
		defer r.activating.Store(false)
		_ = r.network.Activate(ctx, r.connector)
	}()
	return nil
}
