// Package domain contains the core domain types for the gas context.
package domain

import (
	"github.com/fd1az/web3-connect/internal/apperror"
)

// Tier is a gas price urgency level.
type Tier string

// Known tiers, slowest first.
const (
	TierSafeLow Tier = "safeLow"
	TierAverage Tier = "average"
	TierFast    Tier = "fast"
	TierFastest Tier = "fastest"
)

// DefaultTier is selected until the user picks another.
const DefaultTier = TierFast

// Tiers lists every tier, slowest first.
var Tiers = []Tier{TierSafeLow, TierAverage, TierFast, TierFastest}

// ParseTier validates s as a tier name.
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if string(t) == s {
			return t, nil
		}
	}
	return "", apperror.Validation(apperror.CodeUnknownGasTier, s)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, err := ParseTier(string(t))
	return err == nil
}

// Next returns the following tier, wrapping to the slowest.
func (t Tier) Next() Tier {
	for i, tier := range Tiers {
		if tier == t {
			return Tiers[(i+1)%len(Tiers)]
		}
	}
	return DefaultTier
}

func (t Tier) String() string {
	return string(t)
}
