// Package domain contains the core domain types for the dashboard context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Block is a chain head.
type Block struct {
	Number    uint64
	Hash      common.Hash
	Timestamp time.Time
	BaseFee   *big.Int
}

// BlockFromHeader converts a go-ethereum header.
func BlockFromHeader(h *types.Header) *Block {
	return &Block{
		Number:    h.Number.Uint64(),
		Hash:      h.Hash(),
		Timestamp: time.Unix(int64(h.Time), 0),
		BaseFee:   h.BaseFee,
	}
}

// HeadMode is how the head watcher learns about new blocks.
type HeadMode string

const (
	HeadModeStopped      HeadMode = "stopped"
	HeadModeSubscribed   HeadMode = "subscribed"
	HeadModePolling      HeadMode = "polling"
	HeadModeReconnecting HeadMode = "reconnecting"
)
