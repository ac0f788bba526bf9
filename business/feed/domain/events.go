package domain

import "github.com/shopspring/decimal"

// Venue tags which exchange an event originated from.
type Venue string

const (
	VenueA Venue = "A"
	VenueB Venue = "B"
)

// OrderStatus mirrors the venue-reported lifecycle status of a resting
// order (spec.md §3 LocalOrder).
type OrderStatus string

const (
	StatusCreated         OrderStatus = "Created"
	StatusNew             OrderStatus = "New"
	StatusPartiallyFilled OrderStatus = "PartiallyFilled"
	StatusPendingCancel   OrderStatus = "PendingCancel"
	StatusFilled          OrderStatus = "Filled"
	StatusCancelled       OrderStatus = "Cancelled"
	StatusRejected        OrderStatus = "Rejected"
)

// IsTerminal reports whether status removes the order from active_orders.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusFilled, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// ExecType mirrors the venue's execution-report type.
type ExecType string

const (
	ExecTypeTrade ExecType = "Trade"
)

// Event is the uniform strategy-facing event the Feed layer emits,
// demultiplexed from either venue's wire protocol (spec.md §4.3).
type Event interface {
	isEvent()
}

// BBOChangeEvent fires when the top-of-book tuple differs from the last
// emitted tuple for that venue (spec.md §3 BBO, §4.3).
type BBOChangeEvent struct {
	Venue Venue
	BBO   BBO
}

func (BBOChangeEvent) isEvent() {}

// OrderUpdateEvent carries a venue order-channel status push.
type OrderUpdateEvent struct {
	ClientID string
	Side     Side
	Price    decimal.Decimal
	Status   OrderStatus
}

func (OrderUpdateEvent) isEvent() {}

// ExecutionEvent carries a fill/partial-fill execution report.
type ExecutionEvent struct {
	ClientID  string
	Side      Side
	ExecType  ExecType
	ExecQty   int64
	LeavesQty int64
}

func (ExecutionEvent) isEvent() {}

// PositionUpdateEvent carries an incremental position push (venue B
// ACCOUNT_UPDATE).
type PositionUpdateEvent struct {
	Venue Venue
	Size  int64 // signed
}

func (PositionUpdateEvent) isEvent() {}

// OrderSnapshotEntry is one resting order in a venue-A open-orders
// snapshot.
type OrderSnapshotEntry struct {
	ClientID string
	Side     Side
	Price    decimal.Decimal
	Size     int64
	Status   OrderStatus
}

// OrderSnapshotEvent rebuilds active_orders from scratch (spec.md §4.5.5).
type OrderSnapshotEvent struct {
	Entries []OrderSnapshotEntry
}

func (OrderSnapshotEvent) isEvent() {}

// PositionSnapshotEvent sets a venue's position from an authoritative
// REST snapshot (spec.md §4.5.5).
type PositionSnapshotEvent struct {
	Venue Venue
	Size  int64 // signed, sign already resolved by the venue client
}

func (PositionSnapshotEvent) isEvent() {}

// BookResetEvent signals the book for Venue was cleared (disconnect, or an
// explicit control message) and a fresh snapshot is being re-requested
// (spec.md §4.2 "Book reset", §4.3 venue-B "book-reset").
type BookResetEvent struct {
	Venue Venue
}

func (BookResetEvent) isEvent() {}
