package domain

import "github.com/ethereum/go-ethereum/common"

// Event is a wallet provider event name.
type Event string

// Wallet provider events.
const (
	EventChainChanged    Event = "chainChanged"
	EventAccountsChanged Event = "accountsChanged"
)

// ListenerID identifies a registered event handler.
type ListenerID uint64

// EventPayload carries the event data. ChainID is set for chainChanged and
// Accounts for accountsChanged.
type EventPayload struct {
	ChainID  uint64
	Accounts []common.Address
}

// EventHandler handles a wallet provider event.
type EventHandler func(EventPayload)
