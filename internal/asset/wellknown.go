package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs the wallet accepts by default.
const (
	ChainIDMainnet = 1
	ChainIDRopsten = 3
	ChainIDRinkeby = 4
	ChainIDGoerli  = 5
	ChainIDKovan   = 42
)

// Mainnet stablecoins traded by the 3pool.
var (
	AddrDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	AddrUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
)

var (
	ETH  = NewNative(ChainIDMainnet, "ETH", "Ether", 18)
	DAI  = NewToken(ChainIDMainnet, AddrDAI, "DAI", "Dai Stablecoin", 18)
	USDC = NewToken(ChainIDMainnet, AddrUSDC, "USDC", "USD Coin", 6)
	USDT = NewToken(ChainIDMainnet, AddrUSDT, "USDT", "Tether USD", 6)
)

// DefaultRegistry returns a registry with the testnet natives and mainnet
// stablecoins. Other tokens are added as their metadata is read on-chain.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Ensure(ETH)
	r.Ensure(DAI)
	r.Ensure(USDC)
	r.Ensure(USDT)

	for _, chainID := range []uint64{ChainIDRopsten, ChainIDRinkeby, ChainIDGoerli, ChainIDKovan} {
		r.Ensure(NewNative(chainID, "ETH", "Ether", 18))
	}

	return r
}
