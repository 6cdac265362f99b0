package domain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrSignerMismatch is returned when a signer is asked to sign for another account.
var ErrSignerMismatch = errors.New("not authorized to sign for this account")

// Backend is the chain access a library offers. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error)
}

// TxSigner signs transactions on behalf of an account.
type TxSigner interface {
	SignTx(ctx context.Context, from common.Address, tx *types.Transaction) (*types.Transaction, error)
}

// Library is the provider handle a connector hands to its context. Contract
// handles are bound to a library, and its pointer is the provider identity.
type Library struct {
	backend Backend
	chainID *big.Int
	signer  TxSigner
}

// NewLibrary wraps backend. signer may be nil for read-only providers.
func NewLibrary(backend Backend, chainID uint64, signer TxSigner) *Library {
	return &Library{
		backend: backend,
		chainID: new(big.Int).SetUint64(chainID),
		signer:  signer,
	}
}

// Backend returns the chain backend.
func (l *Library) Backend() Backend {
	return l.backend
}

// ChainID returns the chain the library is connected to.
func (l *Library) ChainID() *big.Int {
	return new(big.Int).Set(l.chainID)
}

// CanSign reports whether the library can produce signed transactions.
func (l *Library) CanSign() bool {
	return l.signer != nil
}

// SignerFn returns a bind.SignerFn for from, or nil if the library is read-only.
func (l *Library) SignerFn(ctx context.Context, from common.Address) bind.SignerFn {
	if l.signer == nil {
		return nil
	}
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		if addr != from {
			return nil, ErrSignerMismatch
		}
		return l.signer.SignTx(ctx, addr, tx)
	}
}
