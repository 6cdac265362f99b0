package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/logger"
)

const (
	tracerName = "github.com/fd1az/web3-connect/business/connection/app"
	meterName  = "github.com/fd1az/web3-connect/business/connection/app"
)

// ActivateOption configures a single Activate call.
type ActivateOption func(*activateOptions)

type activateOptions struct {
	onError      func(error)
	returnErrors bool
}

// WithErrorHandler hands activation errors to fn instead of recording them.
func WithErrorHandler(fn func(error)) ActivateOption {
	return func(o *activateOptions) {
		o.onError = fn
	}
}

// ReturnErrors returns activation errors to the caller instead of recording them.
func ReturnErrors() ActivateOption {
	return func(o *activateOptions) {
		o.returnErrors = true
	}
}

type contextMetrics struct {
	activations metric.Int64Counter
	failures    metric.Int64Counter
	active      metric.Int64Gauge
}

// Context is a process-wide connection context. Only its own methods mutate it.
type Context struct {
	name   string
	logger logger.LoggerInterface

	mu           sync.RWMutex
	state        domain.State
	connector    Connector
	cancelUpdate func()

	// held keeps the connector's last account, chain and library while an
	// error is recorded, so a later update can restore the context.
	held domain.State

	watchMu  sync.Mutex
	watchers map[uint64]func(domain.State)
	nextID   uint64

	tracer  trace.Tracer
	metrics *contextMetrics
}

var _ ContextReader = (*Context)(nil)

// NewContext creates an inactive context.
func NewContext(name string, log logger.LoggerInterface) (*Context, error) {
	c := &Context{
		name:     name,
		logger:   log,
		watchers: make(map[uint64]func(domain.State)),
		tracer:   otel.Tracer(tracerName),
	}

	if err := c.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return c, nil
}

func (c *Context) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &contextMetrics{}

	c.metrics.activations, err = meter.Int64Counter(
		"connection_activations_total",
		metric.WithDescription("Total connector activation attempts"),
		metric.WithUnit("{activation}"),
	)
	if err != nil {
		return err
	}

	c.metrics.failures, err = meter.Int64Counter(
		"connection_activation_failures_total",
		metric.WithDescription("Failed connector activations"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return err
	}

	c.metrics.active, err = meter.Int64Gauge(
		"connection_active",
		metric.WithDescription("Whether the context is active (0/1)"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Name returns the context name.
func (c *Context) Name() string {
	return c.name
}

// Snapshot returns the current state.
func (c *Context) Snapshot() domain.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Active reports whether the context is active.
func (c *Context) Active() bool {
	return c.Snapshot().Active
}

// Activate runs connector and, on success, makes it the context's connector.
// On failure the error goes to the WithErrorHandler callback if set, is
// returned if ReturnErrors is set, and is recorded on the context otherwise.
func (c *Context) Activate(ctx context.Context, connector Connector, opts ...ActivateOption) error {
	var o activateOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := c.tracer.Start(ctx, "connection.activate",
		trace.WithAttributes(
			attribute.String("context", c.name),
			attribute.String("connector", connector.Name()),
		),
	)
	defer span.End()

	attrs := metric.WithAttributes(
		attribute.String("context", c.name),
		attribute.String("connector", connector.Name()),
	)
	c.metrics.activations.Add(ctx, 1, attrs)

	act, err := connector.Activate(ctx)
	if err == nil && (act == nil || act.Library == nil) {
		err = apperror.New(apperror.CodeWalletActivationFailed,
			apperror.WithContext(connector.Name()+" returned no library"))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activation failed")
		c.metrics.failures.Add(ctx, 1, attrs)

		switch {
		case o.onError != nil:
			o.onError(err)
			return nil
		case o.returnErrors:
			return err
		default:
			c.logger.Warn(ctx, "connector activation failed",
				"context", c.name, "connector", connector.Name(), "error", err)
			c.setActivationError(connector, err)
			return nil
		}
	}

	c.mu.Lock()
	prev := c.connector
	prevCancel := c.cancelUpdate
	c.connector = connector
	c.cancelUpdate = nil
	c.held = domain.State{}
	c.state = domain.State{
		Active:        true,
		Account:       act.Account,
		ChainID:       act.ChainID,
		Library:       act.Library,
		ConnectorName: connector.Name(),
	}
	state := c.state
	c.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
	}
	if prev != nil && prev != connector {
		prev.Deactivate()
	}

	if src, ok := connector.(UpdateSource); ok {
		cancel := src.OnUpdate(func(u domain.Update) { c.applyUpdate(connector, u) })
		c.mu.Lock()
		if c.connector == connector {
			c.cancelUpdate = cancel
			cancel = nil
		}
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
	}

	span.SetAttributes(
		attribute.String("account", act.Account.Hex()),
		attribute.Int64("chain_id", int64(act.ChainID)),
	)
	span.SetStatus(codes.Ok, "activated")
	c.metrics.active.Record(ctx, 1, metric.WithAttributes(attribute.String("context", c.name)))
	c.logger.Info(ctx, "connection activated",
		"context", c.name, "connector", connector.Name(),
		"account", act.Account.Hex(), "chain_id", act.ChainID)

	c.notify(state)
	return nil
}

// SetError records err. A context with an error is not active and exposes
// no account or library.
func (c *Context) SetError(err error) {
	c.mu.Lock()
	c.suspendLocked(err)
	state := c.state
	c.mu.Unlock()

	c.metrics.active.Record(context.Background(), 0, metric.WithAttributes(attribute.String("context", c.name)))
	c.notify(state)
}

// Deactivate releases the current connector and resets the context.
func (c *Context) Deactivate() {
	c.mu.Lock()
	connector := c.connector
	cancel := c.cancelUpdate
	c.connector = nil
	c.cancelUpdate = nil
	c.held = domain.State{}
	c.state = domain.State{}
	state := c.state
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if connector != nil {
		connector.Deactivate()
	}

	c.metrics.active.Record(context.Background(), 0, metric.WithAttributes(attribute.String("context", c.name)))
	c.logger.Info(context.Background(), "connection deactivated", "context", c.name)
	c.notify(state)
}

// Watch registers fn to be called after every state change. The returned
// function unregisters it.
func (c *Context) Watch(fn func(domain.State)) (cancel func()) {
	c.watchMu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.watchMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.watchMu.Lock()
			delete(c.watchers, id)
			c.watchMu.Unlock()
		})
	}
}

func (c *Context) setActivationError(connector Connector, err error) {
	c.mu.Lock()
	c.connector = connector
	c.held = domain.State{}
	c.state = domain.State{
		Error:         err,
		ConnectorName: connector.Name(),
	}
	state := c.state
	c.mu.Unlock()

	c.notify(state)
}

func (c *Context) applyUpdate(connector Connector, u domain.Update) {
	if u.Deactivated {
		c.mu.RLock()
		current := c.connector == connector
		c.mu.RUnlock()
		if current {
			c.Deactivate()
		}
		return
	}

	c.mu.Lock()
	if c.connector != connector {
		c.mu.Unlock()
		return
	}

	if u.Err != nil {
		c.suspendLocked(u.Err)
		state := c.state
		c.mu.Unlock()

		c.metrics.active.Record(context.Background(), 0, metric.WithAttributes(attribute.String("context", c.name)))
		c.logger.Warn(context.Background(), "connection update failed",
			"context", c.name, "error", u.Err)
		c.notify(state)
		return
	}

	recovered := false
	if c.state.Error != nil {
		// Only a fresh library means the connector is usable again.
		applyFields(&c.held, u)
		if u.Library != nil && c.held.Account != (common.Address{}) {
			c.state = domain.State{
				Active:        true,
				Account:       c.held.Account,
				ChainID:       c.held.ChainID,
				Library:       c.held.Library,
				ConnectorName: c.state.ConnectorName,
			}
			c.held = domain.State{}
			recovered = true
		}
	} else {
		applyFields(&c.state, u)
	}
	state := c.state
	c.mu.Unlock()

	if recovered {
		c.metrics.active.Record(context.Background(), 1, metric.WithAttributes(attribute.String("context", c.name)))
		c.logger.Info(context.Background(), "connection recovered",
			"context", c.name, "account", state.Account.Hex(), "chain_id", state.ChainID)
	} else {
		c.logger.Debug(context.Background(), "connection updated",
			"context", c.name, "account", state.Account.Hex(), "chain_id", state.ChainID)
	}
	c.notify(state)
}

// suspendLocked records err and moves the provider fields into held.
// The caller holds c.mu.
func (c *Context) suspendLocked(err error) {
	if c.state.Library != nil {
		c.held = domain.State{
			Account: c.state.Account,
			ChainID: c.state.ChainID,
			Library: c.state.Library,
		}
	}
	c.state = domain.State{
		Error:         err,
		ConnectorName: c.state.ConnectorName,
	}
}

func applyFields(s *domain.State, u domain.Update) {
	if u.Account != nil {
		s.Account = *u.Account
	}
	if u.ChainID != 0 {
		s.ChainID = u.ChainID
	}
	if u.Library != nil {
		s.Library = u.Library
	}
}

func (c *Context) notify(state domain.State) {
	c.watchMu.Lock()
	fns := make([]func(domain.State), 0, len(c.watchers))
	for _, fn := range c.watchers {
		fns = append(fns, fn)
	}
	c.watchMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
