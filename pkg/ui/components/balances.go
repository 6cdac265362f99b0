// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// BalanceRow is one asset held by the account.
type BalanceRow struct {
	Symbol   string
	Amount   decimal.Decimal
	Decimals uint8
}

// BalancesComponent renders the account's balances.
type BalancesComponent struct {
	ether    *BalanceRow
	rows     []BalanceRow
	readOnly bool
}

// NewBalancesComponent creates a new balances component.
func NewBalancesComponent() *BalancesComponent {
	return &BalancesComponent{
		rows: make([]BalanceRow, 0),
	}
}

// Update replaces the balances. ether may be nil when no account is known.
func (b *BalancesComponent) Update(ether *BalanceRow, rows []BalanceRow) {
	b.ether = ether
	b.rows = rows
}

// SetReadOnly marks that token balances are unavailable without a wallet.
func (b *BalancesComponent) SetReadOnly(readOnly bool) {
	b.readOnly = readOnly
}

// View renders the balances component.
func (b *BalancesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("BALANCES"))
	sb.WriteString("\n\n")

	if b.ether == nil && len(b.rows) == 0 {
		if b.readOnly {
			sb.WriteString(dimStyle.Render("  Connect a wallet to see balances"))
		} else {
			sb.WriteString(dimStyle.Render("  Waiting for balances..."))
		}
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  %-8s  %24s\n", "Asset", "Balance"))
	sb.WriteString(dimStyle.Render("  "+strings.Repeat("─", 34)) + "\n")

	rows := b.rows
	if b.ether != nil {
		rows = append([]BalanceRow{*b.ether}, rows...)
	}
	for _, row := range rows {
		places := int32(row.Decimals)
		if places > 6 {
			places = 6
		}
		sb.WriteString(fmt.Sprintf("  %-8s  %s\n",
			row.Symbol,
			valueStyle.Render(fmt.Sprintf("%24s", row.Amount.StringFixed(places))),
		))
	}

	return sb.String()
}
