package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/fd1az/web3-connect/business/gas/domain"
)

// mockLogger discards everything.
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

// recordingOracle records requested tiers.
type recordingOracle struct {
	mu    sync.Mutex
	tiers []domain.Tier
	fail  map[domain.Tier]bool
}

func (o *recordingOracle) Name() string { return "recording" }

func (o *recordingOracle) FetchPrice(ctx context.Context, tier domain.Tier) (*domain.GasPrice, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tiers = append(o.tiers, tier)
	if o.fail[tier] {
		return nil, errors.New("unavailable")
	}
	return domain.NewGasPrice(tier, big.NewInt(1_000_000_000), o.Name()), nil
}

func TestSelector_DefaultTier(t *testing.T) {
	s := NewSelector(&recordingOracle{}, "", &mockLogger{})
	if s.Tier() != domain.TierFast {
		t.Errorf("Tier() = %s, want fast", s.Tier())
	}
}

func TestSelector_FetcherIdentity(t *testing.T) {
	oracle := &recordingOracle{}
	s := NewSelector(oracle, domain.TierFast, &mockLogger{})

	first := s.Fetcher()
	if s.Fetcher() != first {
		t.Fatal("fetcher changed without a tier change")
	}

	if err := s.SetTier(domain.TierFast); err != nil {
		t.Fatal(err)
	}
	if s.Fetcher() != first {
		t.Error("setting the current tier should keep the fetcher")
	}

	if err := s.SetTier(domain.TierSafeLow); err != nil {
		t.Fatal(err)
	}
	second := s.Fetcher()
	if second == first {
		t.Fatal("tier change should replace the fetcher")
	}

	// A captured fetcher keeps quoting its own tier.
	if _, err := first.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := second.Fetch(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(oracle.tiers) != 2 || oracle.tiers[0] != domain.TierFast || oracle.tiers[1] != domain.TierSafeLow {
		t.Errorf("requested tiers = %v", oracle.tiers)
	}
}

func TestSelector_SetTierRejectsUnknown(t *testing.T) {
	s := NewSelector(&recordingOracle{}, domain.TierFast, &mockLogger{})
	before := s.Fetcher()

	if err := s.SetTier("ludicrous"); err == nil {
		t.Fatal("expected an error")
	}
	if s.Fetcher() != before || s.Tier() != domain.TierFast {
		t.Error("rejected tier changed the selection")
	}
}

func TestSelector_Watch(t *testing.T) {
	s := NewSelector(&recordingOracle{}, domain.TierFast, &mockLogger{})

	var seen []domain.Tier
	cancel := s.Watch(func(f *PriceFetcher) { seen = append(seen, f.Tier()) })

	_ = s.SetTier(domain.TierAverage)
	_ = s.SetTier(domain.TierAverage)
	cancel()
	_ = s.SetTier(domain.TierFastest)

	if len(seen) != 1 || seen[0] != domain.TierAverage {
		t.Errorf("watched tiers = %v", seen)
	}
}

func TestSelector_FetchAll(t *testing.T) {
	oracle := &recordingOracle{fail: map[domain.Tier]bool{domain.TierSafeLow: true}}
	s := NewSelector(oracle, domain.TierFast, &mockLogger{})

	prices, err := s.FetchAll(context.Background())
	if err == nil {
		t.Error("expected the safeLow failure")
	}
	if len(prices) != 3 {
		t.Errorf("prices = %d, want 3", len(prices))
	}
	if _, ok := prices[domain.TierSafeLow]; ok {
		t.Error("failed tier should be absent")
	}
}
