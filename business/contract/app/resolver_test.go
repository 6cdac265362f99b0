package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	connApp "github.com/fd1az/web3-connect/business/connection/app"
	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/business/contract/domain"
)

// mockLogger counts warnings.
type mockLogger struct {
	mu    sync.Mutex
	warns int
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	m.warns++
	m.mu.Unlock()
}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func (m *mockLogger) warnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warns
}

// stubContext is a ContextReader with a settable state.
type stubContext struct {
	name  string
	mu    sync.Mutex
	state connDomain.State
}

func (s *stubContext) Name() string { return s.name }

func (s *stubContext) Snapshot() connDomain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stubContext) set(state connDomain.State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

const (
	exchangeAddr = "0xbEbc44782C7dB0a1A60Cb6fe97d0b483032FF1C7"
	tokenAddr    = "0x6B175474E89094C44Da98b954EedeAC495271d0F"
	minimalABI   = `[{"inputs":[],"name":"fee","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"}]`
)

var account = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func activeState(lib *connDomain.Library, acct common.Address) connDomain.State {
	return connDomain.State{Active: true, Library: lib, Account: acct, ChainID: 1}
}

func newTestResolver(t *testing.T) (*Resolver, *stubContext, *stubContext, *mockLogger) {
	t.Helper()
	primary := &stubContext{name: connDomain.PrimaryContextName}
	network := &stubContext{name: connDomain.NetworkContextName}
	log := &mockLogger{}
	r, err := NewResolver(primary, network, log)
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r, primary, network, log
}

func TestResolver_NilGuards(t *testing.T) {
	r, primary, _, log := newTestResolver(t)
	iface := domain.NewInterface("exchange", minimalABI)

	if c := r.Resolve(exchangeAddr, iface, true); c != nil {
		t.Error("no provider should resolve to nil")
	}

	primary.set(activeState(connDomain.NewLibrary(nil, 1, nil), account))

	if c := r.Resolve("", iface, true); c != nil {
		t.Error("empty address should resolve to nil")
	}
	if c := r.Resolve(exchangeAddr, nil, true); c != nil {
		t.Error("nil interface should resolve to nil")
	}
	if log.warnCount() != 0 {
		t.Errorf("guards logged %d warnings", log.warnCount())
	}
}

func TestResolver_MemoizesByTuple(t *testing.T) {
	r, primary, _, _ := newTestResolver(t)
	iface := domain.NewInterface("exchange", minimalABI)
	lib := connDomain.NewLibrary(nil, 1, nil)
	primary.set(activeState(lib, account))

	first := r.Resolve(exchangeAddr, iface, true)
	if first == nil {
		t.Fatal("expected a contract")
	}
	if again := r.Resolve(exchangeAddr, iface, true); again != first {
		t.Error("same tuple should return the identical handle")
	}

	if other := r.Resolve(exchangeAddr, iface, false); other == first {
		t.Error("preferSigned change should build a new handle")
	}
	if other := r.Resolve(exchangeAddr, domain.NewInterface("exchange", minimalABI), true); other == first {
		t.Error("interface identity change should build a new handle")
	}

	primary.set(activeState(connDomain.NewLibrary(nil, 1, nil), account))
	if other := r.Resolve(exchangeAddr, iface, true); other == first {
		t.Error("library change should build a new handle")
	}

	primary.set(activeState(lib, common.HexToAddress("0x00000000000000000000000000000000000000bb")))
	if other := r.Resolve(exchangeAddr, iface, true); other == first {
		t.Error("account change should build a new handle")
	}

	primary.set(activeState(lib, account))
	if back := r.Resolve(exchangeAddr, iface, true); back != first {
		t.Error("returning to the original tuple should return the original handle")
	}
}

func TestResolver_Signer(t *testing.T) {
	r, primary, network, _ := newTestResolver(t)
	iface := domain.NewInterface("exchange", minimalABI)

	tests := []struct {
		name         string
		primary      connDomain.State
		network      connDomain.State
		preferSigned bool
		wantSigner   bool
	}{
		{
			name:         "signed when preferred and account present",
			primary:      activeState(connDomain.NewLibrary(nil, 1, nil), account),
			preferSigned: true,
			wantSigner:   true,
		},
		{
			name:         "read-only when not preferred",
			primary:      activeState(connDomain.NewLibrary(nil, 1, nil), account),
			preferSigned: false,
		},
		{
			name:         "read-only on network context without account",
			network:      activeState(connDomain.NewLibrary(nil, 1, nil), common.Address{}),
			preferSigned: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary.set(tt.primary)
			network.set(tt.network)

			c := r.Resolve(exchangeAddr, iface, tt.preferSigned)
			if c == nil {
				t.Fatal("expected a contract")
			}
			signer, ok := c.Signer()
			if ok != tt.wantSigner {
				t.Fatalf("has signer = %v, want %v", ok, tt.wantSigner)
			}
			if ok && signer != account {
				t.Errorf("signer = %s", signer.Hex())
			}
		})
	}
}

func TestResolver_UsesNetworkWhenPrimaryInactive(t *testing.T) {
	r, primary, network, _ := newTestResolver(t)
	iface := domain.NewInterface("exchange", minimalABI)

	netLib := connDomain.NewLibrary(nil, 1, nil)
	network.set(activeState(netLib, common.Address{}))
	primary.set(connDomain.State{Library: connDomain.NewLibrary(nil, 1, nil)})

	c := r.Resolve(exchangeAddr, iface, true)
	if c == nil || c.Library() != netLib {
		t.Error("inactive primary should defer to the network library")
	}
}

func TestResolver_ConstructionFailureLoggedOnce(t *testing.T) {
	r, primary, _, log := newTestResolver(t)
	primary.set(activeState(connDomain.NewLibrary(nil, 1, nil), account))
	broken := domain.NewInterface("broken", `not json`)

	if c := r.Resolve(exchangeAddr, broken, true); c != nil {
		t.Error("malformed interface should resolve to nil")
	}
	if c := r.Resolve(exchangeAddr, broken, true); c != nil {
		t.Error("malformed interface should resolve to nil")
	}
	if c := r.Resolve("not-an-address", domain.NewInterface("ok", minimalABI), true); c != nil {
		t.Error("malformed address should resolve to nil")
	}

	if log.warnCount() != 2 {
		t.Errorf("warnings = %d, want 2", log.warnCount())
	}
}

func TestTokenResolver_PrimaryOnly(t *testing.T) {
	primary := &stubContext{name: connDomain.PrimaryContextName}
	r, err := NewTokenResolver(primary, domain.NewInterface("erc20", minimalABI))
	if err != nil {
		t.Fatal(err)
	}

	if tok := r.Resolve(tokenAddr, true); tok != nil {
		t.Error("no primary library should resolve to nil")
	}

	lib := connDomain.NewLibrary(nil, 1, nil)
	primary.set(connDomain.State{Library: lib, Account: account})

	tok := r.Resolve(tokenAddr, true)
	if tok == nil {
		t.Fatal("expected a token")
	}
	if tok.Library() != lib {
		t.Error("token should bind to the primary library")
	}
	if again := r.Resolve(tokenAddr, true); again != tok {
		t.Error("same tuple should return the identical token")
	}
	if bad := r.Resolve("0x1234", true); bad != nil {
		t.Error("malformed address should resolve to nil")
	}
}

func TestExchangeResolver(t *testing.T) {
	primary := &stubContext{name: connDomain.PrimaryContextName}
	r, err := NewExchangeResolver(primary, domain.NewInterface("exchange", minimalABI))
	if err != nil {
		t.Fatal(err)
	}

	primary.set(activeState(connDomain.NewLibrary(nil, 1, nil), account))

	ex := r.Resolve(exchangeAddr, false)
	if ex == nil {
		t.Fatal("expected an exchange")
	}
	if _, ok := ex.Signer(); ok {
		t.Error("preferSigned=false should be read-only")
	}
	if ex.Address() != common.HexToAddress(exchangeAddr) {
		t.Errorf("Address() = %s", ex.Address().Hex())
	}
}

// walletConnector activates with a signing-capable library and forwards
// pushed updates to the context.
type walletConnector struct {
	mu       sync.Mutex
	updateFn func(connDomain.Update)
}

func (w *walletConnector) Name() string { return "injected" }

func (w *walletConnector) Activate(context.Context) (*connDomain.Activation, error) {
	return &connDomain.Activation{
		Library: connDomain.NewLibrary(nil, 1, nil),
		Account: account,
		ChainID: 1,
	}, nil
}

func (w *walletConnector) Deactivate() {}

func (w *walletConnector) OnUpdate(fn func(connDomain.Update)) func() {
	w.mu.Lock()
	w.updateFn = fn
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		w.updateFn = nil
		w.mu.Unlock()
	}
}

func (w *walletConnector) push(u connDomain.Update) {
	w.mu.Lock()
	fn := w.updateFn
	w.mu.Unlock()
	if fn != nil {
		fn(u)
	}
}

func TestSpecializedResolvers_ErroredPrimary(t *testing.T) {
	primary, err := connApp.NewContext(connDomain.PrimaryContextName, &mockLogger{})
	if err != nil {
		t.Fatal(err)
	}
	tokens, err := NewTokenResolver(primary, domain.NewInterface("erc20", minimalABI))
	if err != nil {
		t.Fatal(err)
	}
	exchanges, err := NewExchangeResolver(primary, domain.NewInterface("exchange", minimalABI))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		fail func(c *connApp.Context, w *walletConnector)
	}{
		{
			name: "connector update error",
			fail: func(c *connApp.Context, w *walletConnector) {
				w.push(connDomain.Update{Err: errors.New("unsupported chain 42")})
			},
		},
		{
			name: "recorded error",
			fail: func(c *connApp.Context, w *walletConnector) {
				c.SetError(errors.New("wallet locked"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wallet := &walletConnector{}
			if err := primary.Activate(context.Background(), wallet); err != nil {
				t.Fatal(err)
			}
			if tokens.Resolve(tokenAddr, true) == nil {
				t.Fatal("active primary should resolve a token")
			}

			tt.fail(primary, wallet)

			if tok := tokens.Resolve(tokenAddr, true); tok != nil {
				t.Error("errored primary should not resolve a token")
			}
			if ex := exchanges.Resolve(exchangeAddr, true); ex != nil {
				t.Error("errored primary should not resolve an exchange")
			}

			primary.Deactivate()
		})
	}
}

func TestResolver_MemoSize(t *testing.T) {
	primary := &stubContext{name: connDomain.PrimaryContextName}
	network := &stubContext{name: connDomain.NetworkContextName}
	primary.set(activeState(connDomain.NewLibrary(nil, 1, nil), account))
	iface := domain.NewInterface("exchange", minimalABI)

	addresses := make([]string, 8)
	for i := range addresses {
		addresses[i] = common.BigToAddress(big.NewInt(int64(i + 1))).Hex()
	}

	tests := []struct {
		name     string
		size     int
		wantSame bool
	}{
		{name: "keys within the bound stay identical", size: len(addresses), wantSame: true},
		{name: "evicted key builds a new handle", size: 2, wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(primary, network, &mockLogger{}, WithMemoSize(tt.size))
			if err != nil {
				t.Fatal(err)
			}

			first := r.Resolve(addresses[0], iface, true)
			if first == nil {
				t.Fatal("expected a contract")
			}
			for _, addr := range addresses[1:] {
				if r.Resolve(addr, iface, true) == nil {
					t.Fatalf("expected a contract for %s", addr)
				}
			}

			if same := r.Resolve(addresses[0], iface, true) == first; same != tt.wantSame {
				t.Errorf("identical handle = %v, want %v", same, tt.wantSame)
			}
		})
	}
}
