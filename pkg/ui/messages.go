// Package ui provides the Bubble Tea TUI for the market-making engine.
package ui

import (
	"time"

	"github.com/shopspring/decimal"
)

// Message types for TUI updates.

// BBOMsg is sent when a venue's best bid/ask changes.
type BBOMsg struct {
	Venue string
	Bid   decimal.Decimal
	Ask   decimal.Decimal
}

// QuoteMsg is sent when the strategy's own resting bid or ask changes
// state or price.
type QuoteMsg struct {
	Side  string
	State string
	Price decimal.Decimal
	Size  int64
}

// PositionMsg is sent when a venue's tracked position changes.
type PositionMsg struct {
	Venue    string
	Size     int64
	Unhedged int64
}

// HedgeMsg is sent when a hedge order is dispatched to venue B.
type HedgeMsg struct {
	Side      string
	Contracts int64
}

// RateLimitMsg is sent on a rate-limit transition for a venue.
type RateLimitMsg struct {
	Venue   string
	Limited bool
	ResetAt time.Time
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

// WelcomeCompleteMsg signals the welcome screen is done (timeout or keypress).
type WelcomeCompleteMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}

// StatsMsg carries the strategy's run counters for display.
type StatsMsg struct {
	Ticks          int64
	OrdersPlaced   int64
	OrdersAmended  int64
	HedgesPlaced   int64
	RateLimitStops int64
	Errors         int64
}
