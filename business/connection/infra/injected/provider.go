// Package injected connects to a wallet exposed at a JSON-RPC endpoint, the
// way a browser wallet injects a provider into the page.
package injected

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
)

// Provider is the wallet's JSON-RPC surface.
type Provider struct {
	url string
	rpc *rpc.Client
	eth *ethclient.Client
}

var _ domain.TxSigner = (*Provider)(nil)

// Dial connects to the wallet endpoint. http(s) and ws(s) URLs are supported.
func Dial(ctx context.Context, url string) (*Provider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, apperror.External(apperror.CodeEthereumConnectionError, "dial wallet "+url, err)
	}

	return &Provider{
		url: url,
		rpc: client,
		eth: ethclient.NewClient(client),
	}, nil
}

// URL returns the endpoint the provider was dialed with.
func (p *Provider) URL() string {
	return p.url
}

// Client returns the chain client sharing the wallet's transport.
func (p *Provider) Client() *ethclient.Client {
	return p.eth
}

// Accounts returns the accounts the wallet already exposes, without prompting.
func (p *Provider) Accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.rpc.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, apperror.External(apperror.CodeEthereumRPCError, "eth_accounts", err)
	}
	return accounts, nil
}

// RequestAccounts asks the wallet to expose its accounts, prompting if needed.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.rpc.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, apperror.New(apperror.CodeWalletNotAuthorized,
			apperror.WithContext("eth_requestAccounts"),
			apperror.WithCause(err))
	}
	return accounts, nil
}

// ChainID returns the wallet's current chain.
func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := p.rpc.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, apperror.External(apperror.CodeEthereumRPCError, "eth_chainId", err)
	}
	return uint64(id), nil
}

type signTxArgs struct {
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to,omitempty"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice,omitempty"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas,omitempty"`
	Value                *hexutil.Big    `json:"value"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Data                 hexutil.Bytes   `json:"data"`
	ChainID              *hexutil.Big    `json:"chainId,omitempty"`
}

type signTxResult struct {
	Raw hexutil.Bytes `json:"raw"`
}

// SignTx asks the wallet to sign tx for from via eth_signTransaction.
func (p *Provider) SignTx(ctx context.Context, from common.Address, tx *types.Transaction) (*types.Transaction, error) {
	args := signTxArgs{
		From:  from,
		To:    tx.To(),
		Gas:   hexutil.Uint64(tx.Gas()),
		Value: (*hexutil.Big)(orZero(tx.Value())),
		Nonce: hexutil.Uint64(tx.Nonce()),
		Data:  tx.Data(),
	}
	if tx.ChainId() != nil && tx.ChainId().Sign() > 0 {
		args.ChainID = (*hexutil.Big)(tx.ChainId())
	}
	if tx.Type() == types.DynamicFeeTxType {
		args.MaxFeePerGas = (*hexutil.Big)(tx.GasFeeCap())
		args.MaxPriorityFeePerGas = (*hexutil.Big)(tx.GasTipCap())
	} else {
		args.GasPrice = (*hexutil.Big)(tx.GasPrice())
	}

	var res signTxResult
	if err := p.rpc.CallContext(ctx, &res, "eth_signTransaction", args); err != nil {
		return nil, apperror.External(apperror.CodeEthereumRPCError, "eth_signTransaction", err)
	}

	signed := new(types.Transaction)
	if err := signed.UnmarshalBinary(res.Raw); err != nil {
		return nil, apperror.Internal(apperror.CodeEthereumRPCError, "decode signed transaction", err)
	}
	return signed, nil
}

// Close closes the transport.
func (p *Provider) Close() {
	p.rpc.Close()
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
