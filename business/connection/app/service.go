package app

import (
	"context"

	"github.com/fd1az/web3-connect/internal/apperror"
	"github.com/fd1az/web3-connect/internal/logger"
)

// ConnectionService drives the connection lifecycle: eager reconnect, the
// inactive listener and the read-only fallback, plus user-initiated
// connect and disconnect.
type ConnectionService struct {
	primary  *Context
	network  *Context
	injected Connector
	logger   logger.LoggerInterface

	eager    *EagerConnector
	listener *InactiveListener
	readOnly *ReadOnlyConnector
}

// NewConnectionService wires the lifecycle components. injected and wallet
// may be nil when no wallet is configured.
func NewConnectionService(
	primary, network *Context,
	injected, networkConnector Connector,
	wallet EventEmitter,
	log logger.LoggerInterface,
) *ConnectionService {
	eager := NewEagerConnector(primary, injected, log)

	return &ConnectionService{
		primary:  primary,
		network:  network,
		injected: injected,
		logger:   log,
		eager:    eager,
		listener: NewInactiveListener(primary, injected, wallet, log),
		readOnly: NewReadOnlyConnector(primary, network, networkConnector, eager, log),
	}
}

// Start kicks off the lifecycle. It does not block.
func (s *ConnectionService) Start(ctx context.Context) {
	s.eager.Start(ctx)
	s.listener.Start(ctx)
	s.readOnly.Start(ctx)
}

// Connect activates the wallet on user request. Failures are recorded on the
// primary context and returned.
func (s *ConnectionService) Connect(ctx context.Context) error {
	if s.injected == nil {
		err := apperror.New(apperror.CodeWalletUnavailable)
		s.primary.SetError(err)
		return err
	}

	if err := s.primary.Activate(ctx, s.injected, ReturnErrors()); err != nil {
		s.primary.SetError(err)
		return err
	}
	return nil
}

// Disconnect deactivates the wallet connection.
func (s *ConnectionService) Disconnect() {
	s.primary.Deactivate()
}

// Active returns the authoritative context.
func (s *ConnectionService) Active() ContextReader {
	return SelectActive(s.primary, s.network)
}

// Primary returns the wallet context.
func (s *ConnectionService) Primary() *Context {
	return s.primary
}

// Network returns the read-only context.
func (s *ConnectionService) Network() *Context {
	return s.network
}

// EagerTried reports whether the eager reconnect attempt has resolved.
func (s *ConnectionService) EagerTried() bool {
	return s.eager.Tried()
}

// EagerDone is closed once the eager reconnect attempt resolves.
func (s *ConnectionService) EagerDone() <-chan struct{} {
	return s.eager.Done()
}

// SetSuppressEvents toggles wallet event handling.
func (s *ConnectionService) SetSuppressEvents(suppress bool) {
	s.listener.SetSuppress(suppress)
}

// Close stops the lifecycle components and deactivates both contexts.
func (s *ConnectionService) Close() {
	s.readOnly.Close()
	s.listener.Close()
	s.eager.Close()
	s.primary.Deactivate()
	s.network.Deactivate()
}
