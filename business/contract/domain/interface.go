// Package domain contains contract handles and the interface descriptions they are built from.
package domain

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/fd1az/web3-connect/internal/apperror"
)

// Interface is a named ABI description. It is parsed on first use and its
// pointer is its identity for memoization.
type Interface struct {
	name string
	json string

	once   sync.Once
	parsed abi.ABI
	err    error
}

// NewInterface wraps an ABI JSON document.
func NewInterface(name, json string) *Interface {
	return &Interface{name: name, json: json}
}

// Name returns the interface name.
func (i *Interface) Name() string {
	return i.name
}

// ABI returns the parsed ABI.
func (i *Interface) ABI() (abi.ABI, error) {
	i.once.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(i.json))
		if err != nil {
			i.err = apperror.New(apperror.CodeInvalidABI,
				apperror.WithContext(i.name),
				apperror.WithCause(err))
			return
		}
		i.parsed = parsed
	})
	return i.parsed, i.err
}
