package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// GasRow is the quote for one gas tier.
type GasRow struct {
	Tier     string
	Gwei     decimal.Decimal
	Source   string
	Selected bool
	Missing  bool
}

// GasComponent renders gas prices per tier.
type GasComponent struct {
	rows []GasRow
}

// NewGasComponent creates a new gas component.
func NewGasComponent() *GasComponent {
	return &GasComponent{
		rows: make([]GasRow, 0),
	}
}

// Update replaces the tier rows.
func (g *GasComponent) Update(rows []GasRow) {
	g.rows = rows
}

// Selected returns the selected row, if any.
func (g *GasComponent) Selected() (GasRow, bool) {
	for _, row := range g.rows {
		if row.Selected {
			return row, true
		}
	}
	return GasRow{}, false
}

// View renders the gas component.
func (g *GasComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	if len(g.rows) == 0 {
		return headerStyle.Render("GAS PRICE") + "\n\n" + dimStyle.Render("  Waiting for gas prices...")
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("GAS PRICE"))
	sb.WriteString("\n")
	sb.WriteString("┌───┬──────────┬──────────────┬──────────┐\n")
	sb.WriteString("│   │   Tier   │     Gwei     │  Source  │\n")
	sb.WriteString("├───┼──────────┼──────────────┼──────────┤\n")

	for _, row := range g.rows {
		marker := " "
		style := dimStyle
		if row.Selected {
			marker = "▶"
			style = selectedStyle
		}

		gwei := "-"
		if !row.Missing {
			gwei = row.Gwei.StringFixed(2)
		}

		sb.WriteString(fmt.Sprintf("│ %s │ %s │ %12s │ %-8s │\n",
			style.Render(marker),
			style.Render(fmt.Sprintf("%-8s", row.Tier)),
			gwei,
			row.Source,
		))
	}

	sb.WriteString("└───┴──────────┴──────────────┴──────────┘")

	return sb.String()
}
