// Package di contains dependency injection tokens for the dashboard context.
package di

import (
	"github.com/fd1az/web3-connect/business/dashboard/app"
	"github.com/fd1az/web3-connect/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Monitor = di.NewToken[*app.Monitor]("dashboard.Monitor")
)

// Private tokens - internal to dashboard module
var (
	HeadSource = di.NewToken[app.HeadSource]("dashboard.HeadSource")
	Reporter   = di.NewToken[app.Reporter]("dashboard.Reporter")
)

// Helper functions for type-safe access
func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}

func GetHeadSource(c di.ServiceRegistry) app.HeadSource {
	return di.GetToken(c, HeadSource)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
