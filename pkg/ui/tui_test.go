package ui

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/web3-connect/business/dashboard/domain"
	gasDomain "github.com/fd1az/web3-connect/business/gas/domain"
	"github.com/fd1az/web3-connect/internal/asset"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func dashboardModel(t *testing.T) Model {
	t.Helper()
	m := New()
	m.phase = PhaseDashboard
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func waitCalled(t *testing.T, ch <-chan struct{}, name string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("%s was not called", name)
	}
}

func TestModel_KeysInvokeCallbacks(t *testing.T) {
	tests := []struct {
		key string
		set func(fn func())
	}{
		{"g", func(fn func()) { OnCycleTier = fn }},
		{"c", func(fn func()) { OnConnect = fn }},
		{"d", func(fn func()) { OnDisconnect = fn }},
		{"r", func(fn func()) { OnRefresh = fn }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			called := make(chan struct{}, 1)
			tt.set(func() { called <- struct{}{} })
			defer tt.set(nil)

			update(t, dashboardModel(t), keyMsg(tt.key))
			waitCalled(t, called, "callback for "+tt.key)
		})
	}
}

func TestModel_WelcomeKeyStartsModules(t *testing.T) {
	called := make(chan struct{}, 1)
	OnStartModules = func() { called <- struct{}{} }
	defer func() { OnStartModules = nil }()

	m := update(t, New(), keyMsg("x"))
	if m.phase != PhaseStartup {
		t.Errorf("phase = %s, want startup", m.phase)
	}
	waitCalled(t, called, "OnStartModules")
}

func TestModel_Quit(t *testing.T) {
	next, cmd := dashboardModel(t).Update(keyMsg("q"))
	if !next.(Model).quitting || cmd == nil {
		t.Error("q should quit")
	}
}

func TestModel_SnapshotFillsDashboard(t *testing.T) {
	m := New()
	m.phase = PhaseStartup

	dai := asset.NewToken(asset.ChainIDMainnet, common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"), "DAI", "Dai", 18)
	ether := asset.NewAmount(asset.ETH, big.NewInt(2_500_000_000_000_000_000))
	fast := gasDomain.NewGasPrice(gasDomain.TierFast, big.NewInt(42_000_000_000), "node")

	snap := &domain.Snapshot{
		Block: &domain.Block{Number: 19_000_000},
		Connection: domain.Connection{
			Context: "primary",
			Active:  true,
			Account: common.HexToAddress("0x00000000000000000000000000000000000000aa"),
			ChainID: 1,
		},
		Ether:     &ether,
		Balances:  []asset.Amount{asset.NewAmount(dai, big.NewInt(1_000_000_000_000_000_000))},
		GasPrices: map[gasDomain.Tier]*gasDomain.GasPrice{gasDomain.TierFast: fast},
		GasTier:   gasDomain.TierFast,
		Errors:    []error{errors.New("exchange: execution reverted")},
		Duration:  15 * time.Millisecond,
	}

	m = update(t, m, SnapshotMsg{Snapshot: snap})

	if m.phase != PhaseDashboard {
		t.Errorf("phase = %s, want dashboard", m.phase)
	}
	if m.currentBlock != 19_000_000 {
		t.Errorf("currentBlock = %d", m.currentBlock)
	}
	if len(m.errors) != 1 {
		t.Errorf("errors = %d, want 1", len(m.errors))
	}
	if stats := m.stats.Stats(); stats.Refreshes != 1 || stats.BlocksSeen != 1 || stats.Errors != 1 {
		t.Errorf("stats = %+v", stats)
	}

	row, ok := m.gas.Selected()
	if !ok || row.Tier != "fast" || row.Missing || row.Gwei.String() != "42" {
		t.Errorf("selected gas row = %+v, %v", row, ok)
	}

	view := m.View()
	for _, want := range []string{"Block: #19000000", "DAI", "2.5", "Gas: 42.0 gwei (fast)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_StartupSteps(t *testing.T) {
	m := New()
	m.phase = PhaseStartup

	for _, step := range startupOrder {
		m = update(t, m, StartupMsg{Step: step, Status: "done"})
	}
	if m.phase != PhaseDashboard {
		t.Errorf("phase = %s, want dashboard after all steps", m.phase)
	}

	m = update(t, m, StartupMsg{Step: "wallet", Status: "failed", Message: "wallet unavailable"})
	if len(m.errors) != 1 {
		t.Errorf("errors = %d, want 1", len(m.errors))
	}
}

func TestAddError_KeepsLastThreeDistinct(t *testing.T) {
	var errs []ErrorEntry
	for _, msg := range []string{"a", "a", "b", "c", "d"} {
		errs = addError(errs, msg)
	}
	if len(errs) != 3 || errs[0].Message != "b" || errs[2].Message != "d" {
		t.Errorf("errors = %+v", errs)
	}
}

func TestLogWriter_ForwardsLines(t *testing.T) {
	var got []LogMsg
	w := &LogWriter{send: func(msg tea.Msg) { got = append(got, msg.(LogMsg)) }}

	input := `{"level":"WARN","msg":"head subscription unavailable, polling","error":"dial ws: refused"}` + "\n" +
		"plain text\n"
	if n, err := w.Write([]byte(input)); err != nil || n != len(input) {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	if len(got) != 2 {
		t.Fatalf("messages = %d, want 2", len(got))
	}
	if got[0].Level != "warn" || got[0].Message != "head subscription unavailable, polling: dial ws: refused" {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Level != "info" || got[1].Message != "plain text" {
		t.Errorf("second = %+v", got[1])
	}
}
