package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/web3-connect/internal/apperror"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"safeLow", TierSafeLow, false},
		{"average", TierAverage, false},
		{"fast", TierFast, false},
		{"fastest", TierFastest, false},
		{"FAST", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				if !apperror.HasCode(err, apperror.CodeUnknownGasTier) {
					t.Errorf("error = %v, want %s", err, apperror.CodeUnknownGasTier)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseTier(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
}

func TestTier_Next(t *testing.T) {
	if TierFast.Next() != TierFastest {
		t.Errorf("fast.Next() = %s", TierFast.Next())
	}
	if TierFastest.Next() != TierSafeLow {
		t.Errorf("fastest.Next() = %s", TierFastest.Next())
	}
	if Tier("bogus").Next() != DefaultTier {
		t.Error("unknown tier should reset to the default")
	}
}

func TestNewGasPrice(t *testing.T) {
	p := NewGasPrice(TierFast, big.NewInt(42_500_000_000), "node")
	if !p.Gwei.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("Gwei = %s, want 42.5", p.Gwei)
	}
	if p.GweiFloat() != 42.5 {
		t.Errorf("GweiFloat() = %v", p.GweiFloat())
	}

	q := NewGasPriceFromGwei(TierAverage, decimal.RequireFromString("30.1"), "station")
	if q.Wei.Cmp(big.NewInt(30_100_000_000)) != 0 {
		t.Errorf("Wei = %s, want 30100000000", q.Wei)
	}
}

func TestGasPrice_Capped(t *testing.T) {
	p := NewGasPrice(TierFastest, big.NewInt(900), "node")

	if same, capped := p.Capped(nil); capped || same != p {
		t.Error("nil max should not cap")
	}
	if same, capped := p.Capped(big.NewInt(1000)); capped || same != p {
		t.Error("price under max should not cap")
	}
	c, capped := p.Capped(big.NewInt(500))
	if !capped || c.Wei.Int64() != 500 || c.Tier != TierFastest {
		t.Errorf("Capped() = %v, %v", c.Wei, capped)
	}
}
