// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds strategy run statistics for display.
type Stats struct {
	Ticks          int64
	OrdersPlaced   int64
	OrdersAmended  int64
	HedgesPlaced   int64
	RateLimitStops int64
	Errors         int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	rateLimitDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.RateLimitStops))
	if s.stats.RateLimitStops > 0 {
		rateLimitDisplay = warnStyle.Render(fmt.Sprintf("%d", s.stats.RateLimitStops))
	}
	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Ticks: %s  │  Orders placed: %s  │  Amended: %s  │  Hedges: %s  │  Rate-limit stops: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Ticks)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.OrdersPlaced)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.OrdersAmended)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.HedgesPlaced)),
			rateLimitDisplay,
			errorsDisplay,
		)
}
