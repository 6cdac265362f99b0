package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// WalletStatus describes the context serving reads.
type WalletStatus struct {
	Context   string
	Connector string
	Active    bool
	Account   string
	ChainID   uint64
	CanSign   bool
	Error     string

	// WalletError is shown while the read-only context stands in for the wallet.
	WalletError string
}

// StatusComponent renders the connection panel.
type StatusComponent struct {
	status  WalletStatus
	known   bool
	pending string
}

// NewStatusComponent creates a new status component.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{}
}

// Update replaces the wallet status and clears any pending action.
func (s *StatusComponent) Update(status WalletStatus) {
	s.status = status
	s.known = true
	s.pending = ""
}

// SetPending shows an in-flight user action such as "connecting".
func (s *StatusComponent) SetPending(action string) {
	s.pending = action
}

// View renders the status component.
func (s *StatusComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("CONNECTION"))
	sb.WriteString("\n\n")

	if !s.known {
		sb.WriteString(dimStyle.Render("  No connection yet"))
		return sb.String()
	}

	st := s.status
	state := okStyle.Render("● active")
	if !st.Active {
		state = badStyle.Render("○ inactive")
	}

	sb.WriteString(fmt.Sprintf("├─ Context:   %s %s\n", st.Context, state))
	if st.Connector != "" {
		sb.WriteString(fmt.Sprintf("├─ Connector: %s\n", st.Connector))
	}
	if st.ChainID != 0 {
		sb.WriteString(fmt.Sprintf("├─ Chain:     %d\n", st.ChainID))
	}

	account := dimStyle.Render("none (read-only)")
	if st.Account != "" {
		account = st.Account
		if st.CanSign {
			account += okStyle.Render(" ✎")
		}
	}
	sb.WriteString(fmt.Sprintf("├─ Account:   %s\n", account))

	if st.Error != "" {
		sb.WriteString(fmt.Sprintf("├─ Error:     %s\n", badStyle.Render(st.Error)))
	}
	if st.WalletError != "" {
		sb.WriteString(fmt.Sprintf("├─ Wallet:    %s\n", warnStyle.Render(st.WalletError)))
	}
	if s.pending != "" {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("└─ %s...", s.pending)))
		sb.WriteString("\n")
	}

	return sb.String()
}
