// Package di contains dependency injection tokens for the connection context.
package di

import (
	"github.com/fd1az/web3-connect/business/connection/app"
	"github.com/fd1az/web3-connect/business/connection/infra/injected"
	"github.com/fd1az/web3-connect/business/connection/infra/network"
	"github.com/fd1az/web3-connect/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ConnectionService = di.NewToken[*app.ConnectionService]("connection.ConnectionService")
	PrimaryContext    = di.NewToken[*app.Context]("connection.PrimaryContext")
	NetworkContext    = di.NewToken[*app.Context]("connection.NetworkContext")
)

// Private dependency tokens - internal to connection module
var (
	InjectedConnector = di.NewToken[*injected.Connector]("connection:injectedConnector")
	NetworkConnector  = di.NewToken[*network.Connector]("connection:networkConnector")
)

// Helper functions for type-safe access
func GetConnectionService(c di.ServiceRegistry) *app.ConnectionService {
	return di.GetToken(c, ConnectionService)
}

func GetPrimaryContext(c di.ServiceRegistry) *app.Context {
	return di.GetToken(c, PrimaryContext)
}

func GetNetworkContext(c di.ServiceRegistry) *app.Context {
	return di.GetToken(c, NetworkContext)
}

// GetInjectedConnector returns nil when no wallet is configured.
func GetInjectedConnector(c di.ServiceRegistry) *injected.Connector {
	return di.GetToken(c, InjectedConnector)
}

func GetNetworkConnector(c di.ServiceRegistry) *network.Connector {
	return di.GetToken(c, NetworkConnector)
}
