package domain

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

var weiPerGwei = decimal.New(1, 9)

// GasPrice is a quote for one tier.
type GasPrice struct {
	Tier      Tier
	Wei       *big.Int
	Gwei      decimal.Decimal
	Source    string
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(tier Tier, wei *big.Int, source string) *GasPrice {
	return &GasPrice{
		Tier:      tier,
		Wei:       new(big.Int).Set(wei),
		Gwei:      decimal.NewFromBigInt(wei, 0).Div(weiPerGwei),
		Source:    source,
		Timestamp: time.Now(),
	}
}

// NewGasPriceFromGwei creates a GasPrice from a gwei amount. Sub-wei
// fractions are truncated.
func NewGasPriceFromGwei(tier Tier, gwei decimal.Decimal, source string) *GasPrice {
	return NewGasPrice(tier, gwei.Mul(weiPerGwei).Truncate(0).BigInt(), source)
}

// GweiFloat returns the price in gwei for metrics.
func (p *GasPrice) GweiFloat() float64 {
	f, _ := p.Gwei.Float64()
	return f
}

// Capped returns p limited to max wei. A nil max leaves p unchanged.
func (p *GasPrice) Capped(max *big.Int) (*GasPrice, bool) {
	if max == nil || p.Wei.Cmp(max) <= 0 {
		return p, false
	}
	capped := NewGasPrice(p.Tier, max, p.Source)
	capped.Timestamp = p.Timestamp
	return capped, true
}
