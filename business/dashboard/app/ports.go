// Package app contains application services and port definitions for the dashboard context.
package app

import (
	"context"
	"time"

	contractDomain "github.com/fd1az/web3-connect/business/contract/domain"
	"github.com/fd1az/web3-connect/business/dashboard/domain"
	gasDomain "github.com/fd1az/web3-connect/business/gas/domain"
)

// Reporter displays snapshots.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report shows a refreshed snapshot.
	Report(s *domain.Snapshot)

	// UpdateConnectionStatus shows a change in how a source is connected.
	UpdateConnectionStatus(name string, connected bool, latency time.Duration)

	// Stop gracefully shuts down the reporter.
	Stop() error
}

// HeadSource delivers new chain heads.
type HeadSource interface {
	Subscribe(ctx context.Context) (<-chan *domain.Block, error)
	Mode() domain.HeadMode
	Close() error
}

// ContractResolver builds handles on the active context.
type ContractResolver interface {
	Resolve(address string, iface *contractDomain.Interface, preferSigned bool) *contractDomain.Contract
}

// TokenResolver builds ERC20 handles on the wallet context.
type TokenResolver interface {
	Resolve(address string, preferSigned bool) *contractDomain.Token
}

// ExchangeResolver builds exchange handles on the wallet context.
type ExchangeResolver interface {
	Resolve(address string, preferSigned bool) *contractDomain.Exchange
}

// GasQuoter quotes every tier and knows the selected one.
type GasQuoter interface {
	Tier() gasDomain.Tier
	FetchAll(ctx context.Context) (map[gasDomain.Tier]*gasDomain.GasPrice, error)
}
