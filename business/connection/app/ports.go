// Package app contains application services and port definitions for the connection context.
package app

import (
	"context"

	"github.com/fd1az/web3-connect/business/connection/domain"
)

// Connector produces a provider library for a connection context.
type Connector interface {
	// Name identifies the connector in logs and snapshots.
	Name() string

	// Activate connects and returns the library, account and chain.
	Activate(ctx context.Context) (*domain.Activation, error)

	// Deactivate releases whatever Activate acquired.
	Deactivate()
}

// AuthorizationChecker reports whether a wallet previously authorized this application.
type AuthorizationChecker interface {
	IsAuthorized(ctx context.Context) (bool, error)
}

// UpdateSource is implemented by connectors that report wallet changes after activation.
type UpdateSource interface {
	OnUpdate(fn func(domain.Update)) (cancel func())
}

// EventEmitter is the injected wallet object's event surface.
type EventEmitter interface {
	On(event domain.Event, handler domain.EventHandler) domain.ListenerID
}

// ListenerRemover is implemented by wallet objects that support unsubscribing.
type ListenerRemover interface {
	RemoveListener(event domain.Event, id domain.ListenerID)
}

// ContextReader exposes a connection context's current state.
type ContextReader interface {
	Name() string
	Snapshot() domain.State
}
