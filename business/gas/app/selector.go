package app

import (
	"context"
	"sync"

	"github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

// PriceFetcher fetches quotes for the tier it was created with.
type PriceFetcher struct {
	tier   domain.Tier
	oracle PriceOracle
}

// Tier returns the captured tier.
func (f *PriceFetcher) Tier() domain.Tier {
	return f.tier
}

// Fetch asks the oracle for a quote at the captured tier.
func (f *PriceFetcher) Fetch(ctx context.Context) (*domain.GasPrice, error) {
	return f.oracle.FetchPrice(ctx, f.tier)
}

// Selector holds the selected tier and the fetcher bound to it. The fetcher
// is replaced only when the tier changes, so callers can compare pointers to
// detect a new tier.
type Selector struct {
	oracle PriceOracle
	logger logger.LoggerInterface

	mu       sync.RWMutex
	fetcher  *PriceFetcher
	watchers map[int]func(*PriceFetcher)
	nextID   int
}

// NewSelector starts at tier. An invalid tier falls back to the default.
func NewSelector(oracle PriceOracle, tier domain.Tier, log logger.LoggerInterface) *Selector {
	if !tier.Valid() {
		tier = domain.DefaultTier
	}
	return &Selector{
		oracle:   oracle,
		logger:   log,
		fetcher:  &PriceFetcher{tier: tier, oracle: oracle},
		watchers: make(map[int]func(*PriceFetcher)),
	}
}

// Tier returns the selected tier.
func (s *Selector) Tier() domain.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetcher.tier
}

// Fetcher returns the fetcher for the selected tier.
func (s *Selector) Fetcher() *PriceFetcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetcher
}

// SetTier selects tier. Setting the current tier is a no-op.
func (s *Selector) SetTier(tier domain.Tier) error {
	if _, err := domain.ParseTier(string(tier)); err != nil {
		return err
	}

	s.mu.Lock()
	if s.fetcher.tier == tier {
		s.mu.Unlock()
		return nil
	}
	previous := s.fetcher.tier
	fetcher := &PriceFetcher{tier: tier, oracle: s.oracle}
	s.fetcher = fetcher
	watchers := make([]func(*PriceFetcher), 0, len(s.watchers))
	for _, fn := range s.watchers {
		watchers = append(watchers, fn)
	}
	s.mu.Unlock()

	s.logger.Info(context.Background(), "gas tier changed", "from", previous, "to", tier)

	for _, fn := range watchers {
		fn(fetcher)
	}
	return nil
}

// Watch calls fn with each new fetcher.
func (s *Selector) Watch(fn func(*PriceFetcher)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// FetchAll quotes every tier. Tiers that fail are left out and the first
// error is returned alongside whatever succeeded.
func (s *Selector) FetchAll(ctx context.Context) (map[domain.Tier]*domain.GasPrice, error) {
	prices := make(map[domain.Tier]*domain.GasPrice, len(domain.Tiers))
	var firstErr error
	for _, tier := range domain.Tiers {
		price, err := s.oracle.FetchPrice(ctx, tier)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		prices[tier] = price
	}
	return prices, firstErr
}
