package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/business/strategy/domain"
)

// Feed is the strategy's view of the feed layer: a single demultiplexed
// event stream carrying both venues' BBO, order, execution, position, and
// book-reset events (spec.md §4.3).
type Feed interface {
	Events() <-chan feedDomain.Event
}

// Gateway is the strategy's view of order dispatch. All four calls are
// fire-and-forget from Strategy's perspective: the outcome arrives later
// as a GatewayEvent on Events(), never through a shared return value or
// variable (SPEC_FULL.md §5).
type Gateway interface {
	PlaceOrder(ctx context.Context, side domain.Side, price decimal.Decimal, size int64, clientID string)
	AmendOrder(ctx context.Context, side domain.Side, clientID string, newPrice decimal.Decimal)
	CancelOrder(ctx context.Context, side domain.Side, clientID string)
	PlaceHedgeOrder(ctx context.Context, side domain.Side, size int64)
	Events() <-chan GatewayEvent
}

// GatewayEvent is the event family the Gateway writes back to Strategy in
// place of shared in-flight/rate-limit variables (spec.md §4.4, §5).
type GatewayEvent interface{ isGatewayEvent() }

// OrderAckEvent reports the REST outcome of a new-order dispatch.
type OrderAckEvent struct {
	ClientID string
	Success  bool
}

func (OrderAckEvent) isGatewayEvent() {}

// AmendAckEvent reports the REST outcome of an amend dispatch.
type AmendAckEvent struct {
	ClientID string
	Success  bool
}

func (AmendAckEvent) isGatewayEvent() {}

// CancelAckEvent reports the REST outcome of a cancel dispatch.
type CancelAckEvent struct {
	ClientID string
	Success  bool
}

func (CancelAckEvent) isGatewayEvent() {}

// RateLimitEnteredEvent signals the Gateway has entered a rate-limited
// backoff window for venue.
type RateLimitEnteredEvent struct {
	Venue   feedDomain.Venue
	ResetAt time.Time
}

func (RateLimitEnteredEvent) isGatewayEvent() {}

// RateLimitClearedEvent signals reset_at has elapsed for venue and
// dispatch may resume. The quote re-arm supplement (SPEC_FULL.md §4.5)
// re-evaluates the tick immediately on this transition.
type RateLimitClearedEvent struct {
	Venue feedDomain.Venue
}

func (RateLimitClearedEvent) isGatewayEvent() {}
