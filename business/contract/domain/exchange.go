package domain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FeeDenominator scales Exchange.Fee: a fee of 4000000 is 0.04%.
var FeeDenominator = big.NewInt(10_000_000_000)

// Exchange is a stable-swap pool handle. Coins are addressed by index.
type Exchange struct {
	*Contract
}

// NewExchange wraps c.
func NewExchange(c *Contract) *Exchange {
	return &Exchange{Contract: c}
}

// Coins returns the token address at index i.
func (e *Exchange) Coins(ctx context.Context, i int64) (common.Address, error) {
	out, err := e.Call(ctx, "coins", big.NewInt(i))
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// Fee returns the swap fee in FeeDenominator units.
func (e *Exchange) Fee(ctx context.Context) (*big.Int, error) {
	out, err := e.Call(ctx, "fee")
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// GetOutputAmount quotes how much of coin j is received for dx of coin i.
func (e *Exchange) GetOutputAmount(ctx context.Context, i, j int64, dx *big.Int) (*big.Int, error) {
	out, err := e.Call(ctx, "get_dy", big.NewInt(i), big.NewInt(j), dx)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// Swap trades dx of coin i for at least minDy of coin j.
func (e *Exchange) Swap(ctx context.Context, i, j int64, dx, minDy *big.Int, opts ...TxOption) (*types.Transaction, error) {
	return e.TransactWith(ctx, opts, "exchange", big.NewInt(i), big.NewInt(j), dx, minDy)
}
