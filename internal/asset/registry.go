package asset

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry is a thread-safe set of known assets.
type Registry struct {
	mu   sync.RWMutex
	byID map[AssetID]*Asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[AssetID]*Asset)}
}

// Ensure registers a unless an asset with the same ID exists, and returns
// the registered one.
func (r *Registry) Ensure(a *Asset) *Asset {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[a.ID()]; ok {
		return existing
	}
	r.byID[a.ID()] = a
	return a
}

// Get retrieves an asset by ID.
func (r *Registry) Get(id AssetID) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Native returns the native coin for chainID, falling back to an 18-decimal
// "ETH" for chains the registry does not know.
func (r *Registry) Native(chainID uint64) *Asset {
	if a, ok := r.Get(NewNativeAssetID(chainID)); ok {
		return a
	}
	return r.Ensure(NewNative(chainID, "ETH", "Ether", 18))
}

// Token retrieves a token by chain and address.
func (r *Registry) Token(chainID uint64, address common.Address) (*Asset, bool) {
	return r.Get(NewTokenAssetID(chainID, address))
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
