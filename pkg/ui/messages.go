// Package ui provides the Bubble Tea TUI for the wallet dashboard.
package ui

import (
	"time"

	"github.com/fd1az/web3-connect/business/dashboard/domain"
)

// Message types for TUI updates

// SnapshotMsg is sent when the dashboard snapshot is refreshed.
type SnapshotMsg struct {
	Snapshot *domain.Snapshot
}

// ConnectionStatusMsg is sent when connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // "config", "network", "wallet", "gas"
	Status  string // "connecting", "connected", "failed", "done"
	Message string
}
