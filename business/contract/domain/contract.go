package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/apperror"
)

// Contract is an immutable handle bound to an address, an interface and a
// provider library, optionally signing as an account.
type Contract struct {
	address common.Address
	iface   *Interface
	library *connDomain.Library
	signer  *common.Address
	bound   *bind.BoundContract
}

// NewContract builds a handle. signer nil means read-only. The address must be
// a non-zero hex address and the interface must parse.
func NewContract(address string, iface *Interface, library *connDomain.Library, signer *common.Address) (*Contract, error) {
	if library == nil {
		return nil, constructionError(apperror.New(apperror.CodeNoActiveConnection))
	}
	if !common.IsHexAddress(address) {
		return nil, constructionError(apperror.Validation(apperror.CodeInvalidAddress, address))
	}
	addr := common.HexToAddress(address)
	if addr == (common.Address{}) {
		return nil, constructionError(apperror.Validation(apperror.CodeInvalidAddress, "zero address"))
	}
	if iface == nil {
		return nil, constructionError(apperror.Validation(apperror.CodeInvalidABI, "nil interface"))
	}

	parsed, err := iface.ABI()
	if err != nil {
		return nil, constructionError(err)
	}

	backend := library.Backend()
	c := &Contract{
		address: addr,
		iface:   iface,
		library: library,
		bound:   bind.NewBoundContract(addr, parsed, backend, backend, backend),
	}
	if signer != nil {
		account := *signer
		c.signer = &account
	}
	return c, nil
}

func constructionError(cause error) error {
	return apperror.New(apperror.CodeContractConstructionFailed, apperror.WithCause(cause))
}

// Address returns the contract address.
func (c *Contract) Address() common.Address {
	return c.address
}

// Interface returns the interface the handle was built from.
func (c *Contract) Interface() *Interface {
	return c.iface
}

// Library returns the provider library the handle is bound to.
func (c *Contract) Library() *connDomain.Library {
	return c.library
}

// Signer returns the signing account, if any.
func (c *Contract) Signer() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return *c.signer, true
}

// Call invokes a constant method and returns its unpacked outputs.
func (c *Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	opts := &bind.CallOpts{Context: ctx}
	if c.signer != nil {
		opts.From = *c.signer
	}

	var out []any
	if err := c.bound.Call(opts, &out, method, args...); err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(c.iface.Name()+"."+method),
			apperror.WithCause(err))
	}
	return out, nil
}

// TxParams overrides transaction fields that are otherwise estimated.
type TxParams struct {
	GasPrice *big.Int
	GasLimit uint64
	Value    *big.Int
}

// TxOption sets a TxParams field.
type TxOption func(*TxParams)

// WithGasPrice sets a legacy gas price.
func WithGasPrice(price *big.Int) TxOption {
	return func(p *TxParams) { p.GasPrice = price }
}

// WithGasLimit skips gas estimation.
func WithGasLimit(limit uint64) TxOption {
	return func(p *TxParams) { p.GasLimit = limit }
}

// WithValue attaches ether to the call.
func WithValue(wei *big.Int) TxOption {
	return func(p *TxParams) { p.Value = wei }
}

// Transact sends a state-changing call signed by the handle's account.
func (c *Contract) Transact(ctx context.Context, method string, args ...any) (*types.Transaction, error) {
	return c.TransactWith(ctx, nil, method, args...)
}

// TransactWith is Transact with explicit transaction options. Read-only
// handles fail with CONTRACT_READ_ONLY.
func (c *Contract) TransactWith(ctx context.Context, opts []TxOption, method string, args ...any) (*types.Transaction, error) {
	if c.signer == nil || !c.library.CanSign() {
		return nil, apperror.New(apperror.CodeContractReadOnly,
			apperror.WithContext(c.iface.Name()+"."+method))
	}

	var params TxParams
	for _, opt := range opts {
		opt(&params)
	}

	txOpts := &bind.TransactOpts{
		From:     *c.signer,
		Signer:   c.library.SignerFn(ctx, *c.signer),
		Context:  ctx,
		GasPrice: params.GasPrice,
		GasLimit: params.GasLimit,
		Value:    params.Value,
	}

	tx, err := c.bound.Transact(txOpts, method, args...)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractTransactFailed,
			apperror.WithContext(c.iface.Name()+"."+method),
			apperror.WithCause(err))
	}
	return tx, nil
}
