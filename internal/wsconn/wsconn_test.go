package wsconn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/fd1az/web3-connect/internal/apperror"
)

// pushServer accepts connections and hands each to serve. The connection is
// closed when serve returns.
func pushServer(t *testing.T, serve func(ctx context.Context, conn *websocket.Conn)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var accepted atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		accepted.Add(1)
		serve(r.Context(), conn)
	}))
	t.Cleanup(srv.Close)
	return srv, &accepted
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func testConfig(url string) Config {
	cfg := DefaultConfig(url, "wallet-bridge")
	cfg.InitialBackoff = 10 * time.Millisecond
	cfg.MaxBackoff = 20 * time.Millisecond
	cfg.PingInterval = 0
	return cfg
}

// stateLog records transitions for assertions.
type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) record(s State, _ error) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) count(s State) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, got := range l.states {
		if got == s {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestClient_ReceivesPushedEvents(t *testing.T) {
	events := []string{
		`{"event":"chainChanged","data":"0x5"}`,
		`{"event":"accountsChanged","data":["0x00000000000000000000000000000000000000aa"]}`,
	}
	srv, _ := pushServer(t, func(ctx context.Context, conn *websocket.Conn) {
		for _, e := range events {
			if err := conn.Write(ctx, websocket.MessageText, []byte(e)); err != nil {
				return
			}
		}
		<-ctx.Done()
	})

	c, err := New(testConfig(wsURL(srv)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	got := make(chan string, len(events))
	c.OnMessage(func(ctx context.Context, msg []byte) { got <- string(msg) })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if c.State() != StateConnected {
		t.Errorf("State() = %s", c.State())
	}

	for i, want := range events {
		select {
		case msg := <-got:
			if msg != want {
				t.Errorf("message %d = %s, want %s", i, msg, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not received", i)
		}
	}
}

func TestClient_ReconnectsAfterServerDrop(t *testing.T) {
	// every connection is dropped shortly after it is accepted
	srv, accepted := pushServer(t, func(ctx context.Context, conn *websocket.Conn) {
		time.Sleep(5 * time.Millisecond)
	})

	var log stateLog
	c, err := New(testConfig(wsURL(srv)))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	c.OnStateChange(log.record)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "a reconnect", func() bool { return accepted.Load() >= 2 })
	if log.count(StateReconnecting) == 0 {
		t.Errorf("states = %v, want a reconnecting transition", log.states)
	}
}

func TestClient_ConnectFailures(t *testing.T) {
	t.Run("dial error", func(t *testing.T) {
		var log stateLog
		c, _ := New(testConfig("ws://127.0.0.1:1"))
		c.OnStateChange(log.record)

		err := c.Connect(context.Background())
		if !apperror.HasCode(err, apperror.CodeWebSocketConnectionError) {
			t.Errorf("error = %v", err)
		}
		if c.State() != StateDisconnected || log.count(StateConnecting) != 1 {
			t.Errorf("state = %s, transitions = %v", c.State(), log.states)
		}
	})

	t.Run("retry gives up", func(t *testing.T) {
		cfg := testConfig("ws://127.0.0.1:1")
		cfg.MaxReconnects = 3
		c, _ := New(cfg)

		var log stateLog
		c.OnStateChange(log.record)

		if err := c.ConnectWithRetry(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if n := log.count(StateConnecting); n != 3 {
			t.Errorf("attempts = %d, want 3", n)
		}
	})

	t.Run("retry stops with context", func(t *testing.T) {
		c, _ := New(testConfig("ws://127.0.0.1:1"))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		if err := c.ConnectWithRetry(ctx); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestClient_Close(t *testing.T) {
	srv, _ := pushServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Read(ctx)
	})

	var log stateLog
	c, _ := New(testConfig(wsURL(srv)))
	c.OnStateChange(log.record)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if c.State() != StateClosed || log.count(StateClosed) != 1 {
		t.Errorf("state = %s, transitions = %v", c.State(), log.states)
	}
	if log.count(StateReconnecting) != 0 {
		t.Error("closing must not trigger a reconnect")
	}

	err := c.Connect(context.Background())
	if !apperror.HasCode(err, apperror.CodeWebSocketClosed) {
		t.Errorf("Connect() after Close = %v", err)
	}
}

func TestClient_OversizedMessageDropsConnection(t *testing.T) {
	srv, _ := pushServer(t, func(ctx context.Context, conn *websocket.Conn) {
		conn.Write(ctx, websocket.MessageText, []byte(strings.Repeat("x", 256)))
		<-ctx.Done()
	})

	cfg := testConfig(wsURL(srv))
	cfg.MaxMessageSize = 64
	cfg.AutoReconnect = false

	var log stateLog
	c, _ := New(cfg)
	defer c.Close()
	c.OnStateChange(log.record)

	var received atomic.Int32
	c.OnMessage(func(context.Context, []byte) { received.Add(1) })

	if err := c.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "disconnect", func() bool { return c.State() == StateDisconnected })
	if received.Load() != 0 {
		t.Error("oversized message should not be delivered")
	}
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Config{Name: "wallet-bridge"})
	if !apperror.HasCode(err, apperror.CodeConfigurationError) {
		t.Errorf("error = %v", err)
	}
}
