package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds refresh statistics for display.
type Stats struct {
	Refreshes     int64
	BlocksSeen    int64
	LastRefreshMs int64
	AvgRefreshMs  float64
	Errors        int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Record adds one refresh to the statistics.
func (s *StatsComponent) Record(durationMs int64, errors int, newBlock bool) {
	total := s.stats.AvgRefreshMs * float64(s.stats.Refreshes)
	s.stats.Refreshes++
	s.stats.AvgRefreshMs = (total + float64(durationMs)) / float64(s.stats.Refreshes)
	s.stats.LastRefreshMs = durationMs
	s.stats.Errors += int64(errors)
	if newBlock {
		s.stats.BlocksSeen++
	}
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Refreshes: %s  │  Blocks: %s  │  Last: %s  │  Avg: %s  │  Read errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Refreshes)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.BlocksSeen)),
			valueStyle.Render(fmt.Sprintf("%dms", s.stats.LastRefreshMs)),
			valueStyle.Render(fmt.Sprintf("%.0fms", s.stats.AvgRefreshMs)),
			errorsDisplay,
		)
}
