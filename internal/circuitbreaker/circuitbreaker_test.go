package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/web3-connect/internal/apperror"
)

func TestCircuitBreaker_PassesThrough(t *testing.T) {
	cb := New[int](DefaultConfig("test"))

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Errorf("Execute() = %d, %v; want 7, nil", v, err)
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("rpc")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := New[int](cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if called {
		t.Error("fn ran while breaker open")
	}
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("err = %v, want CIRCUIT_OPEN", err)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestCircuitBreaker_IsSuccessful(t *testing.T) {
	reverted := errors.New("execution reverted")

	cfg := DefaultConfig("calls")
	cfg.ConsecutiveFailures = 1
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, reverted) }
	cb := New[int](cfg)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (int, error) { return 0, reverted })
	}
	if cb.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, reverts should not trip the breaker", cb.State())
	}
}
