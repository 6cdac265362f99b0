package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/web3-connect/business/connection/domain"
	"github.com/fd1az/web3-connect/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct {
	mu    sync.Mutex
	warns []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warns = append(m.warns, msg)
}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func (m *mockLogger) warnCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.warns)
}

var _ logger.LoggerInterface = (*mockLogger)(nil)

var testAccount = common.HexToAddress("0x00000000000000000000000000000000000000aa")

// fakeConnector is a scripted Connector.
type fakeConnector struct {
	name string

	mu          sync.Mutex
	err         error
	account     common.Address
	chainID     uint64
	authorized  bool
	authErr     error
	activations int
	deactivated int
	block       chan struct{}
	updateFn    func(domain.Update)
}

func newFakeConnector(name string) *fakeConnector {
	return &fakeConnector{name: name, account: testAccount, chainID: 1}
}

func (f *fakeConnector) Name() string { return f.name }

func (f *fakeConnector) Activate(ctx context.Context) (*domain.Activation, error) {
	f.mu.Lock()
	f.activations++
	block := f.block
	err := f.err
	act := &domain.Activation{
		Library: domain.NewLibrary(nil, f.chainID, nil),
		Account: f.account,
		ChainID: f.chainID,
	}
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return act, nil
}

func (f *fakeConnector) Deactivate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deactivated++
}

func (f *fakeConnector) IsAuthorized(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authorized, f.authErr
}

func (f *fakeConnector) activationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activations
}

func (f *fakeConnector) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// updatingConnector also implements UpdateSource.
type updatingConnector struct {
	*fakeConnector
}

func (u *updatingConnector) OnUpdate(fn func(domain.Update)) func() {
	u.mu.Lock()
	u.updateFn = fn
	u.mu.Unlock()
	return func() {
		u.mu.Lock()
		u.updateFn = nil
		u.mu.Unlock()
	}
}

func (u *updatingConnector) push(up domain.Update) {
	u.mu.Lock()
	fn := u.updateFn
	u.mu.Unlock()
	if fn != nil {
		fn(up)
	}
}

// fakeEmitter records handlers and can fire events. It does not support removal.
type fakeEmitter struct {
	mu       sync.Mutex
	nextID   domain.ListenerID
	handlers map[domain.Event]map[domain.ListenerID]domain.EventHandler
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{handlers: make(map[domain.Event]map[domain.ListenerID]domain.EventHandler)}
}

func (e *fakeEmitter) On(event domain.Event, h domain.EventHandler) domain.ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	if e.handlers[event] == nil {
		e.handlers[event] = make(map[domain.ListenerID]domain.EventHandler)
	}
	e.handlers[event][e.nextID] = h
	return e.nextID
}

func (e *fakeEmitter) emit(event domain.Event, p domain.EventPayload) {
	e.mu.Lock()
	hs := make([]domain.EventHandler, 0, len(e.handlers[event]))
	for _, h := range e.handlers[event] {
		hs = append(hs, h)
	}
	e.mu.Unlock()
	for _, h := range hs {
		h(p)
	}
}

func (e *fakeEmitter) count(event domain.Event) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}

// removableEmitter supports RemoveListener.
type removableEmitter struct {
	*fakeEmitter
	removed int
}

func (e *removableEmitter) RemoveListener(event domain.Event, id domain.ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers[event], id)
	e.removed++
}

func newTestContext(t *testing.T, name string) *Context {
	t.Helper()
	c, err := NewContext(name, &mockLogger{})
	if err != nil {
		t.Fatalf("NewContext() error = %v", err)
	}
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
