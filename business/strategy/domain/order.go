package domain

import (
	"github.com/shopspring/decimal"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
)

// OrderStatus mirrors the feed context's venue-A order status, carried here
// so slot transitions can be driven directly off feed events.
type OrderStatus = feedDomain.OrderStatus

// SlotState is the per-slot (bid or ask) lifecycle state.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotInFlightNew
	SlotLive
	SlotInFlightAmend
)

// String renders the slot state for logging.
func (s SlotState) String() string {
	switch s {
	case SlotEmpty:
		return "empty"
	case SlotInFlightNew:
		return "in_flight_new"
	case SlotLive:
		return "live"
	case SlotInFlightAmend:
		return "in_flight_amend"
	default:
		return "unknown"
	}
}

// Slot tracks one quote side's order lifecycle: at most one live order at a
// time, an in-flight guard against overlapping dispatches, and the amend
// debounce counter.
type Slot struct {
	Side     Side
	State    SlotState
	ClientID string
	Price    decimal.Decimal
	Size     int64

	// PreviousPrice holds the price NeedsAmend moved off of, so a failed
	// amend dispatch can be rolled back via RejectAmend without the caller
	// having to remember it across the async REST round-trip.
	PreviousPrice decimal.Decimal
	UpdateCounter int
}

// IsOccupied reports whether the slot holds a live or in-flight order.
func (s *Slot) IsOccupied() bool {
	return s.State != SlotEmpty
}

// ArmNew transitions Empty -> InFlightNew: the strategy has decided to post
// a new order at price/size under clientID. clientID is recorded
// immediately so an order-update that races the REST response can still be
// matched to this slot while it is in flight.
func (s *Slot) ArmNew(clientID string, price decimal.Decimal, size int64) bool {
	if s.State != SlotEmpty {
		return false
	}
	s.State = SlotInFlightNew
	s.ClientID = clientID
	s.Price = price
	s.Size = size
	return true
}

// ConfirmNew transitions InFlightNew -> Live on a matching order-update
// (New, Created, or PartiallyFilled).
func (s *Slot) ConfirmNew() {
	if s.State == SlotInFlightNew {
		s.State = SlotLive
	}
}

// RejectNew transitions InFlightNew -> Empty on a non-success REST
// response: the order was never accepted, so the slot re-arms next tick.
func (s *Slot) RejectNew() {
	if s.State == SlotInFlightNew {
		s.reset()
	}
}

// NeedsAmend reports whether the live price has drifted from target. Below
// updateInterval ticks of drift it just increments the debounce counter and
// returns false; once the counter reaches updateInterval it arms the amend
// (Live -> InFlightAmend) and resets the counter.
func (s *Slot) NeedsAmend(target decimal.Decimal, updateInterval int) bool {
	if s.State != SlotLive || s.Price.Equal(target) {
		return false
	}
	s.UpdateCounter++
	if s.UpdateCounter < updateInterval {
		return false
	}
	s.PreviousPrice = s.Price
	s.State = SlotInFlightAmend
	s.Price = target
	s.UpdateCounter = 0
	return true
}

// ConfirmAmend transitions InFlightAmend -> Live on an order-update
// reflecting the new price.
func (s *Slot) ConfirmAmend() {
	if s.State == SlotInFlightAmend {
		s.State = SlotLive
	}
}

// RejectAmend drops the in-flight guard without losing the live order when
// an amend REST call fails outright: the slot stays Live at its old price
// and will be retried on a later tick.
func (s *Slot) RejectAmend(previousPrice decimal.Decimal) {
	if s.State == SlotInFlightAmend {
		s.State = SlotLive
		s.Price = previousPrice
	}
}

// Cancel transitions Live/InFlightAmend -> Empty on a Cancelled or Rejected
// order-update.
func (s *Slot) Cancel() {
	if s.State == SlotLive || s.State == SlotInFlightAmend {
		s.reset()
	}
}

// FillToZero transitions Live/InFlightAmend -> Empty when an execution
// leaves zero quantity remaining on the order.
func (s *Slot) FillToZero() {
	if s.State == SlotLive || s.State == SlotInFlightAmend {
		s.reset()
	}
}

func (s *Slot) reset() {
	s.State = SlotEmpty
	s.ClientID = ""
	s.Price = decimal.Zero
	s.PreviousPrice = decimal.Zero
	s.Size = 0
	s.UpdateCounter = 0
}

// OrderSize implements the order-sizing rule: if the current venue-A
// position sits on the side opposite to side, return its magnitude so the
// order closes the position exactly. Otherwise return quoteSize plus
// whatever residual is needed to round the resulting position to a
// multiple of quoteSize, clamped so the post-fill position never exceeds
// ±inventoryLimit. A clamp that forces the size to zero or below means the
// slot should not be armed this tick.
func OrderSize(side Side, posA, quoteSize, inventoryLimit int64) int64 {
	if side == SideBuy && posA < 0 {
		return -posA
	}
	if side == SideSell && posA > 0 {
		return posA
	}

	magnitude := posA
	if side == SideSell {
		magnitude = -posA
	}
	residual := (quoteSize - magnitude%quoteSize) % quoteSize
	size := quoteSize + residual

	switch side {
	case SideBuy:
		if postFill := posA + size; postFill > inventoryLimit {
			size = inventoryLimit - posA
		}
	case SideSell:
		if postFill := posA - size; postFill < -inventoryLimit {
			size = posA + inventoryLimit
		}
	}
	if size < 0 {
		return 0
	}
	return size
}
