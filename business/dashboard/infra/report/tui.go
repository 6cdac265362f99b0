package report

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fd1az/web3-connect/business/dashboard/domain"
	"github.com/fd1az/web3-connect/pkg/ui"
)

// TUIReporter implements Reporter by sending messages to the Bubble Tea program.
type TUIReporter struct {
	send func(tea.Msg)
}

// NewTUIReporter creates a TUIReporter for the running ui program.
func NewTUIReporter() *TUIReporter {
	return newTUIReporter(ui.Send)
}

func newTUIReporter(send func(tea.Msg)) *TUIReporter {
	return &TUIReporter{send: send}
}

// Start marks the gas step ready; the program itself is owned by main.
func (r *TUIReporter) Start(ctx context.Context) error {
	r.send(ui.StartupMsg{Step: "gas", Status: "done"})
	return nil
}

// Report sends a snapshot to the TUI.
func (r *TUIReporter) Report(s *domain.Snapshot) {
	r.send(ui.SnapshotMsg{Snapshot: s})
}

// UpdateConnectionStatus sends connection status to the TUI.
func (r *TUIReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.send(ui.ConnectionStatusMsg{Name: name, Connected: connected, Latency: latency})
}

// Stop is a no-op; quitting the program is left to the user.
func (r *TUIReporter) Stop() error {
	return nil
}
