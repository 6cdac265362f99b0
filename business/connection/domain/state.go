// Package domain contains the core domain types for the connection context.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Context names for the two process-wide connection contexts.
const (
	PrimaryContextName = "primary"
	NetworkContextName = "network"
)

// State is an immutable snapshot of a connection context.
type State struct {
	Active        bool
	Account       common.Address
	ChainID       uint64
	Library       *Library
	Error         error
	ConnectorName string
}

// HasAccount reports whether an account is connected.
func (s State) HasAccount() bool {
	return s.Account != (common.Address{})
}

// HasError reports whether an error is recorded.
func (s State) HasError() bool {
	return s.Error != nil
}

// Activation is what a connector returns on successful activation.
type Activation struct {
	Library *Library
	Account common.Address
	ChainID uint64
}

// Update is pushed by an active connector when the wallet changes underneath it.
// Zero fields are left unchanged. A non-nil Err records an error and
// Deactivated resets the context.
type Update struct {
	Account     *common.Address
	ChainID     uint64
	Library     *Library
	Err         error
	Deactivated bool
}
