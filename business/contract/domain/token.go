package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Token is an ERC-20 contract handle.
type Token struct {
	*Contract
}

// NewToken wraps c.
func NewToken(c *Contract) *Token {
	return &Token{Contract: c}
}

// Name returns the token name.
func (t *Token) Name(ctx context.Context) (string, error) {
	out, err := t.Call(ctx, "name")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Symbol returns the token symbol.
func (t *Token) Symbol(ctx context.Context) (string, error) {
	out, err := t.Call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

// Decimals returns the token's decimal places.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.Call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// TotalSupply returns the raw total supply.
func (t *Token) TotalSupply(ctx context.Context) (*big.Int, error) {
	return t.callBig(ctx, "totalSupply")
}

// BalanceOf returns owner's raw balance.
func (t *Token) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	return t.callBig(ctx, "balanceOf", owner)
}

// Allowance returns how much spender may move on owner's behalf.
func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return t.callBig(ctx, "allowance", owner, spender)
}

// Approve lets spender move amount of the signer's tokens.
func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int, opts ...TxOption) (*types.Transaction, error) {
	return t.TransactWith(ctx, opts, "approve", spender, amount)
}

// Transfer sends amount to to.
func (t *Token) Transfer(ctx context.Context, to common.Address, amount *big.Int, opts ...TxOption) (*types.Transaction, error) {
	return t.TransactWith(ctx, opts, "transfer", to, amount)
}

func (t *Token) callBig(ctx context.Context, method string, args ...any) (*big.Int, error) {
	out, err := t.Call(ctx, method, args...)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}
