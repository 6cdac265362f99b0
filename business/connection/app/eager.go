package app

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

// TriedSignal exposes the eager connection outcome.
type TriedSignal interface {
	Tried() bool
	Done() <-chan struct{}
}

// EagerConnector silently reconnects to a wallet that already authorized
// this application. It reaches the tried state exactly once: when the
// wallet is not authorized, when activation fails, or when the primary
// context becomes active.
type EagerConnector struct {
	primary  *Context
	injected Connector
	logger   logger.LoggerInterface
	tracer   trace.Tracer

	mu        sync.Mutex
	tried     bool
	done      chan struct{}
	stopWatch func()
	started   bool
}

var _ TriedSignal = (*EagerConnector)(nil)

// NewEagerConnector creates an eager connector. injected may be nil when no
// wallet is configured, in which case Start marks it tried immediately.
func NewEagerConnector(primary *Context, injected Connector, log logger.LoggerInterface) *EagerConnector {
	return &EagerConnector{
		primary:  primary,
		injected: injected,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		done:     make(chan struct{}),
	}
}

// Start begins the reconnect attempt. It returns immediately; use Done to
// wait for the outcome. Calling Start more than once has no effect.
func (e *EagerConnector) Start(ctx context.Context) {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return
	}
	e.started = true
	e.mu.Unlock()

	stop := e.primary.Watch(func(s domain.State) {
		if s.Active {
			e.markTried(ctx, "primary active")
		}
	})
	e.mu.Lock()
	e.stopWatch = stop
	e.mu.Unlock()

	if e.primary.Active() {
		e.markTried(ctx, "primary active")
	}

	go e.attempt(ctx)
}

func (e *EagerConnector) attempt(ctx context.Context) {
	ctx, span := e.tracer.Start(ctx, "connection.eager_connect")
	defer span.End()

	checker, ok := e.injected.(AuthorizationChecker)
	if e.injected == nil || !ok {
		span.AddEvent("no_injected_wallet")
		e.markTried(ctx, "no injected wallet")
		return
	}

	authorized, err := checker.IsAuthorized(ctx)
	if err != nil {
		span.RecordError(err)
		e.logger.Warn(ctx, "wallet authorization check failed, treating as not authorized",
			"connector", e.injected.Name(), "error", err)
		e.markTried(ctx, "authorization check failed")
		return
	}

	span.SetAttributes(attribute.Bool("authorized", authorized))
	if !authorized {
		e.markTried(ctx, "not authorized")
		return
	}

	if err := e.primary.Activate(ctx, e.injected, ReturnErrors()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "silent activation failed")
		e.logger.Warn(ctx, "silent wallet activation failed", "connector", e.injected.Name(), "error", err)
		e.primary.SetError(err)
		e.markTried(ctx, "activation failed")
		return
	}

	span.SetStatus(codes.Ok, "activated")
}

// Tried reports whether the reconnect attempt has resolved.
func (e *EagerConnector) Tried() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tried
}

// Done is closed once Tried becomes true.
func (e *EagerConnector) Done() <-chan struct{} {
	return e.done
}

// Close stops watching the primary context.
func (e *EagerConnector) Close() {
	e.mu.Lock()
	stop := e.stopWatch
	e.stopWatch = nil
	e.mu.Unlock()

	if stop != nil {
		stop()
	}
}

func (e *EagerConnector) markTried(ctx context.Context, reason string) {
	e.mu.Lock()
	if e.tried {
		e.mu.Unlock()
		return
	}
	e.tried = true
	close(e.done)
	e.mu.Unlock()

	e.logger.Debug(ctx, "eager connect tried", "reason", reason)
}
