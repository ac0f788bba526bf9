// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// ActivityRow is a single dispatched operation: a new order, an amend, a
// hedge, or a rate-limit transition.
type ActivityRow struct {
	Timestamp string
	Kind      string // "order", "amend", "hedge", "rate_limit", "fill"
	Detail    string
	Good      bool
}

// ActivityComponent renders a scrollable log of dispatched operations.
type ActivityComponent struct {
	rows       []ActivityRow
	maxRows    int
	offset     int
	visibleMax int
}

// NewActivityComponent creates a new activity component.
func NewActivityComponent(maxRows int) *ActivityComponent {
	return &ActivityComponent{
		rows:       make([]ActivityRow, 0),
		maxRows:    maxRows,
		visibleMax: 8,
	}
}

// Add prepends a new activity row, trimming to maxRows and resetting scroll.
func (a *ActivityComponent) Add(row ActivityRow) {
	a.rows = append([]ActivityRow{row}, a.rows...)
	if len(a.rows) > a.maxRows {
		a.rows = a.rows[:a.maxRows]
	}
	a.offset = 0
}

// Clear clears all activity rows.
func (a *ActivityComponent) Clear() {
	a.rows = make([]ActivityRow, 0)
	a.offset = 0
}

// ScrollUp scrolls the list up.
func (a *ActivityComponent) ScrollUp() {
	if a.offset > 0 {
		a.offset--
	}
}

// ScrollDown scrolls the list down.
func (a *ActivityComponent) ScrollDown() {
	maxOffset := len(a.rows) - a.visibleMax
	if maxOffset < 0 {
		maxOffset = 0
	}
	if a.offset < maxOffset {
		a.offset++
	}
}

// Count returns the total number of activity rows.
func (a *ActivityComponent) Count() int {
	return len(a.rows)
}

// View renders the activity component.
func (a *ActivityComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	goodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	scrollHint := lipgloss.NewStyle().Foreground(lipgloss.Color("#60A5FA"))

	var result string
	result = headerStyle.Render("ACTIVITY")
	if len(a.rows) > 0 {
		result += mutedStyle.Render(fmt.Sprintf(" (%d total, ↑↓ scroll)", len(a.rows)))
	}
	result += "\n\n"

	if len(a.rows) == 0 {
		result += mutedStyle.Render("  No activity yet.\n")
		return result
	}

	if a.offset > 0 {
		result += scrollHint.Render(fmt.Sprintf("  ▲ %d above\n", a.offset))
	}

	end := a.offset + a.visibleMax
	if end > len(a.rows) {
		end = len(a.rows)
	}

	for i := a.offset; i < end; i++ {
		row := a.rows[i]
		icon := "●"
		style := goodStyle
		if !row.Good {
			icon = "○"
			style = badStyle
		}
		result += fmt.Sprintf("  %s [%s] %-10s %s\n",
			style.Render(icon), row.Timestamp, row.Kind, mutedStyle.Render(row.Detail))
	}

	if end < len(a.rows) {
		result += scrollHint.Render(fmt.Sprintf("\n  ▼ %d more below\n", len(a.rows)-end))
	}

	return result
}
