package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

// stubTried is a TriedSignal controlled by the test.
type stubTried struct {
	done  chan struct{}
	tried bool
}

func newStubTried(tried bool) *stubTried {
	s := &stubTried{done: make(chan struct{}), tried: tried}
	if tried {
		close(s.done)
	}
	return s
}

func (s *stubTried) Tried() bool           { return s.tried }
func (s *stubTried) Done() <-chan struct{} { return s.done }

func (s *stubTried) markTried() {
	s.tried = true
	close(s.done)
}

func TestReadOnlyConnector_ActivatesAfterTried(t *testing.T) {
	primary := newTestContext(t, "primary")
	network := newTestContext(t, "network")
	netConn := newFakeConnector("network")
	eager := newStubTried(false)

	r := NewReadOnlyConnector(primary, network, netConn, eager, &mockLogger{})
	r.Start(context.Background())
	defer r.Close()

	time.Sleep(20 * time.Millisecond)
	if netConn.activationCount() != 0 {
		t.Fatal("must not activate before eager connect was tried")
	}

	eager.markTried()

	waitFor(t, "network active", func() bool { return network.Snapshot().Active })
	if n := netConn.activationCount(); n != 1 {
		t.Errorf("activations = %d, want 1", n)
	}
}

func TestReadOnlyConnector_Guard(t *testing.T) {
	tests := []struct {
		name  string
		setup func(primary, network *Context)
	}{
		{"primary active", func(p, _ *Context) {
			_ = p.Activate(context.Background(), newFakeConnector("injected"))
		}},
		{"network error", func(_, n *Context) {
			n.SetError(errors.New("bad rpc"))
		}},
		{"network already active", func(_, n *Context) {
			_ = n.Activate(context.Background(), newFakeConnector("other-network"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := newTestContext(t, "primary")
			network := newTestContext(t, "network")
			tt.setup(primary, network)

			netConn := newFakeConnector("network")
			r := NewReadOnlyConnector(primary, network, netConn, newStubTried(true), &mockLogger{})
			r.Start(context.Background())
			defer r.Close()

			time.Sleep(20 * time.Millisecond)
			if n := netConn.activationCount(); n != 0 {
				t.Errorf("activations = %d, want 0", n)
			}
		})
	}
}

func TestReadOnlyConnector_FailureIsNotRetried(t *testing.T) {
	primary := newTestContext(t, "primary")
	network := newTestContext(t, "network")
	netConn := newFakeConnector("network")
	netConn.err = errors.New("dial refused")

	r := NewReadOnlyConnector(primary, network, netConn, newStubTried(true), &mockLogger{})
	r.Start(context.Background())
	defer r.Close()

	waitFor(t, "network error", func() bool { return network.Snapshot().HasError() })

	// unrelated primary churn re-evaluates the guard but the error blocks it
	primary.SetError(errors.New("x"))
	time.Sleep(20 * time.Millisecond)

	if n := netConn.activationCount(); n != 1 {
		t.Errorf("activations = %d, want 1", n)
	}
}

func TestReadOnlyConnector_NeverDeactivates(t *testing.T) {
	primary := newTestContext(t, "primary")
	network := newTestContext(t, "network")
	netConn := newFakeConnector("network")

	r := NewReadOnlyConnector(primary, network, netConn, newStubTried(true), &mockLogger{})
	r.Start(context.Background())
	defer r.Close()

	waitFor(t, "network active", func() bool { return network.Snapshot().Active })

	_ = primary.Activate(context.Background(), newFakeConnector("injected"))

	if !network.Snapshot().Active {
		t.Error("network context must stay active when the wallet connects")
	}
	if netConn.deactivated != 0 {
		t.Error("network connector must not be deactivated")
	}
}
