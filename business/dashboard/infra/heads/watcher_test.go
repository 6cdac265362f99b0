package heads

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/core/types"

	connDomain "github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/business/dashboard/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

type stubContext struct {
	name  string
	state connDomain.State
}

func (s *stubContext) Name() string                { return s.name }
func (s *stubContext) Snapshot() connDomain.State { return s.state }

// headBackend answers HeaderByNumber with an increasing block number.
type headBackend struct {
	connDomain.Backend
	next  atomic.Uint64
	calls atomic.Int64
}

func (b *headBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	b.calls.Add(1)
	n := b.next.Add(1)
	return &types.Header{Number: new(big.Int).SetUint64(n), Time: uint64(time.Now().Unix())}, nil
}

type fakeSub struct {
	errc chan error
	once sync.Once
}

func (s *fakeSub) Unsubscribe()      { s.once.Do(func() { close(s.errc) }) }
func (s *fakeSub) Err() <-chan error { return s.errc }

// fakeClient feeds headers into the subscription channel on demand.
type fakeClient struct {
	mu      sync.Mutex
	ch      chan<- *types.Header
	sub     *fakeSub
	ready   chan struct{}
	closed  atomic.Bool
	failSub error
}

func newFakeClient() *fakeClient {
	return &fakeClient{ready: make(chan struct{})}
}

func (c *fakeClient) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (ethereum.Subscription, error) {
	if c.failSub != nil {
		return nil, c.failSub
	}
	c.mu.Lock()
	c.ch = ch
	c.sub = &fakeSub{errc: make(chan error, 1)}
	c.mu.Unlock()
	close(c.ready)
	return c.sub, nil
}

func (c *fakeClient) Close() { c.closed.Store(true) }

func (c *fakeClient) send(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ch <- &types.Header{Number: new(big.Int).SetUint64(n), Time: uint64(time.Now().Unix())}
}

func receive(t *testing.T, blocks <-chan *domain.Block) *domain.Block {
	t.Helper()
	select {
	case b := <-blocks:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a block")
		return nil
	}
}

func waitMode(t *testing.T, w *Watcher, want domain.HeadMode) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for w.Mode() != want {
		if time.Now().After(deadline) {
			t.Fatalf("Mode() = %s, want %s", w.Mode(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func newTestWatcher(t *testing.T, cfg Config, primary, network *stubContext) *Watcher {
	t.Helper()
	w, err := NewWatcher(cfg, primary, network, logger.NewNop())
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	return w
}

func TestWatcher_Subscribed(t *testing.T) {
	client := newFakeClient()
	w := newTestWatcher(t, Config{WSURL: "ws://node", PollInterval: time.Hour, ReconnectDelay: time.Hour, BufferSize: 8},
		&stubContext{name: connDomain.PrimaryContextName}, &stubContext{name: connDomain.NetworkContextName})
	w.dial = func(ctx context.Context, url string) (headClient, error) { return client, nil }

	blocks, err := w.Subscribe(context.Background())
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	<-client.ready
	waitMode(t, w, domain.HeadModeSubscribed)

	client.send(10)
	client.send(10)
	client.send(9)
	client.send(11)

	if b := receive(t, blocks); b.Number != 10 {
		t.Errorf("first block = %d, want 10", b.Number)
	}
	if b := receive(t, blocks); b.Number != 11 {
		t.Errorf("second block = %d, want 11 (duplicates and older heads dropped)", b.Number)
	}

	if _, err := w.Subscribe(context.Background()); err == nil {
		t.Error("second Subscribe() should fail")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, ok := <-blocks; ok {
		t.Error("block channel should be closed")
	}
	if !client.closed.Load() {
		t.Error("ws client should be closed")
	}
	if w.Mode() != domain.HeadModeStopped {
		t.Errorf("Mode() after Close = %s", w.Mode())
	}
}

func TestWatcher_PollsActiveContext(t *testing.T) {
	backend := &headBackend{}
	backend.next.Store(99)
	network := &stubContext{
		name:  connDomain.NetworkContextName,
		state: connDomain.State{Active: true, Library: connDomain.NewLibrary(backend, 1, nil), ChainID: 1},
	}
	w := newTestWatcher(t, Config{PollInterval: 10 * time.Millisecond, BufferSize: 8},
		&stubContext{name: connDomain.PrimaryContextName}, network)
	defer w.Close()

	blocks, err := w.Subscribe(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	first := receive(t, blocks)
	second := receive(t, blocks)
	if first.Number != 100 || second.Number != 101 {
		t.Errorf("blocks = %d, %d, want 100, 101", first.Number, second.Number)
	}
	if w.Mode() != domain.HeadModePolling {
		t.Errorf("Mode() = %s, want polling", w.Mode())
	}
	if w.LastBlock() < 101 {
		t.Errorf("LastBlock() = %d", w.LastBlock())
	}
}

func TestWatcher_FallsBackToPolling(t *testing.T) {
	tests := []struct {
		name string
		dial func(ctx context.Context, url string) (headClient, error)
	}{
		{
			name: "dial fails",
			dial: func(ctx context.Context, url string) (headClient, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "subscribe fails",
			dial: func(ctx context.Context, url string) (headClient, error) {
				c := newFakeClient()
				c.failSub = errors.New("notifications not supported")
				return c, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &headBackend{}
			primary := &stubContext{
				name:  connDomain.PrimaryContextName,
				state: connDomain.State{Active: true, Library: connDomain.NewLibrary(backend, 1, nil), ChainID: 1},
			}
			w := newTestWatcher(t, Config{WSURL: "ws://node", PollInterval: 10 * time.Millisecond, ReconnectDelay: time.Hour, BufferSize: 8},
				primary, &stubContext{name: connDomain.NetworkContextName})
			w.dial = tt.dial
			defer w.Close()

			blocks, err := w.Subscribe(context.Background())
			if err != nil {
				t.Fatal(err)
			}

			if b := receive(t, blocks); b.Number != 1 {
				t.Errorf("block = %d, want 1", b.Number)
			}
			waitMode(t, w, domain.HeadModePolling)
		})
	}
}

func TestWatcher_NoLibraryEmitsNothing(t *testing.T) {
	w := newTestWatcher(t, Config{PollInterval: 5 * time.Millisecond, BufferSize: 1},
		&stubContext{name: connDomain.PrimaryContextName}, &stubContext{name: connDomain.NetworkContextName})

	blocks, err := w.Subscribe(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	select {
	case b := <-blocks:
		t.Fatalf("unexpected block %v", b)
	case <-time.After(30 * time.Millisecond):
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Subscribe(context.Background()); err == nil {
		t.Error("Subscribe() after Close should fail")
	}
}
