package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	gasDomain "github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/asset"
)

// Connection describes the context serving reads.
type Connection struct {
	Context   string
	Connector string
	Active    bool
	Account   common.Address
	ChainID   uint64
	Error     error

	// WalletError is the primary context's error while the network context serves reads.
	WalletError error
}

// CanSign reports whether the serving context has an account.
func (c Connection) CanSign() bool {
	return c.Account != (common.Address{})
}

// ExchangeInfo is what the dashboard reads from the exchange contract.
type ExchangeInfo struct {
	Address common.Address
	Coins   []common.Address

	// FeePercent is the swap fee as a percentage.
	FeePercent decimal.Decimal

	// Quote is the output for one unit of coin 0 swapped to coin 1, in coin 1 units.
	Quote decimal.Decimal
}

// Snapshot is everything the dashboard shows for one block.
type Snapshot struct {
	Block      *Block
	Connection Connection
	Ether      *asset.Amount
	Balances   []asset.Amount
	Exchange   *ExchangeInfo
	GasPrices  map[gasDomain.Tier]*gasDomain.GasPrice
	GasTier    gasDomain.Tier
	Errors     []error
	Duration   time.Duration
	Taken      time.Time
}

// SelectedGasPrice returns the quote for the selected tier, if fetched.
func (s *Snapshot) SelectedGasPrice() (*gasDomain.GasPrice, bool) {
	p, ok := s.GasPrices[s.GasTier]
	return p, ok
}
