// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// BBORow is a best-bid/best-ask snapshot for one venue.
type BBORow struct {
	Venue string
	Bid   decimal.Decimal
	Ask   decimal.Decimal
}

// QuoteRow is the strategy's own resting order for one side.
type QuoteRow struct {
	Side  string
	State string
	Price decimal.Decimal
	Size  int64
}

// QuotesComponent renders both venues' BBO alongside the strategy's own
// resting bid/ask.
type QuotesComponent struct {
	symbol string
	bbos   []BBORow
	quotes []QuoteRow
}

// NewQuotesComponent creates a new quotes component.
func NewQuotesComponent() *QuotesComponent {
	return &QuotesComponent{
		bbos:   make([]BBORow, 0, 2),
		quotes: make([]QuoteRow, 0, 2),
	}
}

// SetSymbol sets the quoted symbol name.
func (q *QuotesComponent) SetSymbol(symbol string) {
	q.symbol = symbol
}

// UpdateBBO replaces the BBO row for venue.
func (q *QuotesComponent) UpdateBBO(row BBORow) {
	for i, existing := range q.bbos {
		if existing.Venue == row.Venue {
			q.bbos[i] = row
			return
		}
	}
	q.bbos = append(q.bbos, row)
}

// UpdateQuotes replaces the strategy's own bid/ask rows.
func (q *QuotesComponent) UpdateQuotes(rows []QuoteRow) {
	q.quotes = rows
}

// Quotes returns the currently tracked bid/ask rows.
func (q *QuotesComponent) Quotes() []QuoteRow {
	return q.quotes
}

// View renders the quotes component.
func (q *QuotesComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	liveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	inFlightStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("MARKET (%s)", q.symbol)))
	b.WriteString("\n\n")

	if len(q.bbos) == 0 {
		b.WriteString(dimStyle.Render("  Waiting for book data...\n"))
	} else {
		b.WriteString(fmt.Sprintf("  %-8s  %14s  %14s\n", "Venue", "Bid", "Ask"))
		b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 40)) + "\n")
		for _, row := range q.bbos {
			b.WriteString(fmt.Sprintf("  %-8s  %14s  %14s\n",
				row.Venue, row.Bid.StringFixed(2), row.Ask.StringFixed(2)))
		}
	}

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("OUR QUOTES"))
	b.WriteString("\n\n")

	if len(q.quotes) == 0 {
		b.WriteString(dimStyle.Render("  No resting orders.\n"))
		return b.String()
	}

	for _, row := range q.quotes {
		style := dimStyle
		switch row.State {
		case "Live":
			style = liveStyle
		case "InFlightNew", "InFlightAmend":
			style = inFlightStyle
		}
		b.WriteString(fmt.Sprintf("  %-4s  %s  %14s  qty %d\n",
			row.Side, style.Render(fmt.Sprintf("%-14s", row.State)), row.Price.StringFixed(2), row.Size))
	}

	return b.String()
}
