package app

import (
	connApp "github.com/fd1az/web3-connect/business/connection/app"
	"github.com/fd1az/web3-connect/business/contract/domain"
)

// TokenResolver builds ERC-20 handles on the primary context. Unlike
// Resolver it never falls back to the network context, and construction
// failures yield nil without a diagnostic.
type TokenResolver struct {
	primary connApp.ContextReader
	iface   *domain.Interface
	memo    *memo[*domain.Token]
}

// NewTokenResolver creates a token resolver using iface as the ERC-20 interface.
func NewTokenResolver(primary connApp.ContextReader, iface *domain.Interface, opts ...Option) (*TokenResolver, error) {
	o := applyOptions(opts)
	m, err := newMemo("token", o.memoSize, domain.NewToken)
	if err != nil {
		return nil, err
	}
	return &TokenResolver{primary: primary, iface: iface, memo: m}, nil
}

// Resolve returns the token at address, or nil.
func (r *TokenResolver) Resolve(address string, preferSigned bool) *domain.Token {
	return r.memo.resolve(r.primary.Snapshot(), address, r.iface, preferSigned, nil)
}

// ExchangeResolver builds exchange handles on the primary context, with the
// same rules as TokenResolver.
type ExchangeResolver struct {
	primary connApp.ContextReader
	iface   *domain.Interface
	memo    *memo[*domain.Exchange]
}

// NewExchangeResolver creates an exchange resolver using iface as the pool interface.
func NewExchangeResolver(primary connApp.ContextReader, iface *domain.Interface, opts ...Option) (*ExchangeResolver, error) {
	o := applyOptions(opts)
	m, err := newMemo("exchange", o.memoSize, domain.NewExchange)
	if err != nil {
		return nil, err
	}
	return &ExchangeResolver{primary: primary, iface: iface, memo: m}, nil
}

// Resolve returns the exchange at address, or nil.
func (r *ExchangeResolver) Resolve(address string, preferSigned bool) *domain.Exchange {
	return r.memo.resolve(r.primary.Snapshot(), address, r.iface, preferSigned, nil)
}
