package app

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
	strategyApp "github.com/fd1az/xvenue-mm/business/strategy/app"
	strategyDomain "github.com/fd1az/xvenue-mm/business/strategy/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
)

const (
	tracerName = "gateway.app"
	meterName  = "gateway.app"
)

type gatewayMetrics struct {
	ordersDispatched  metric.Int64Counter
	amendsDispatched  metric.Int64Counter
	cancelsDispatched metric.Int64Counter
	hedgesDispatched  metric.Int64Counter
	rateLimitEvents   metric.Int64Counter
	suppressedOps     metric.Int64Counter
}

// Gateway implements business/strategy/app.Gateway: asynchronous, signed
// REST dispatch with per-operation in-flight guards and rate-limit
// backoff (spec.md §4.4). Every call is fire-and-forget; the outcome is
// reconciled back into Strategy's single goroutine as a GatewayEvent,
// never through a shared variable (SPEC_FULL.md §5).
type Gateway struct {
	venueA VenueARESTClient
	venueB VenueBRESTClient
	logger logger.LoggerInterface

	events chan strategyApp.GatewayEvent

	mu               sync.Mutex
	rateLimitedA     bool
	rateLimitedB     bool
	newOrderInFlight bool
	bidAmendInFlight bool
	askAmendInFlight bool
	cancelInFlight   bool

	tracer  trace.Tracer
	metrics *gatewayMetrics
}

// NewGateway constructs a Gateway atop the two venues' signed REST
// clients.
func NewGateway(venueA VenueARESTClient, venueB VenueBRESTClient, log logger.LoggerInterface) *Gateway {
	return &Gateway{
		venueA: venueA,
		venueB: venueB,
		logger: log,
		events: make(chan strategyApp.GatewayEvent, 64),
		tracer: otel.Tracer(tracerName),
	}
}

func (g *Gateway) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	m := &gatewayMetrics{}
	if m.ordersDispatched, err = meter.Int64Counter("gateway_orders_dispatched_total"); err != nil {
		return err
	}
	if m.amendsDispatched, err = meter.Int64Counter("gateway_amends_dispatched_total"); err != nil {
		return err
	}
	if m.cancelsDispatched, err = meter.Int64Counter("gateway_cancels_dispatched_total"); err != nil {
		return err
	}
	if m.hedgesDispatched, err = meter.Int64Counter("gateway_hedges_dispatched_total"); err != nil {
		return err
	}
	if m.rateLimitEvents, err = meter.Int64Counter("gateway_rate_limit_events_total"); err != nil {
		return err
	}
	if m.suppressedOps, err = meter.Int64Counter("gateway_suppressed_ops_total"); err != nil {
		return err
	}
	g.metrics = m
	return nil
}

// Start initializes metrics. The Gateway itself has no run loop: each
// dispatch spawns its own short-lived goroutine, since REST round-trips
// must not block the caller (Strategy's single goroutine).
func (g *Gateway) Start(context.Context) error {
	return g.initMetrics()
}

// Events implements strategyApp.Gateway.
func (g *Gateway) Events() <-chan strategyApp.GatewayEvent {
	return g.events
}

func (g *Gateway) emit(ev strategyApp.GatewayEvent) {
	select {
	case g.events <- ev:
	default:
		g.logger.Warn(context.Background(), "gateway event channel full, dropping event")
	}
}

// PlaceOrder implements strategyApp.Gateway. It is refused outright (an
// immediate failure ack) if venue A is rate-limited or a new-order
// dispatch is already outstanding — spec.md §4.4's single
// `order_op_in_flight` guard, shared across both slots.
func (g *Gateway) PlaceOrder(ctx context.Context, side strategyDomain.Side, price decimal.Decimal, size int64, clientID string) {
	g.mu.Lock()
	if g.rateLimitedA || g.newOrderInFlight {
		g.mu.Unlock()
		if g.metrics != nil {
			g.metrics.suppressedOps.Add(ctx, 1)
		}
		g.emit(strategyApp.OrderAckEvent{ClientID: clientID, Success: false})
		return
	}
	g.newOrderInFlight = true
	g.mu.Unlock()

	go g.dispatchPlaceOrder(ctx, side, price, size, clientID)
}

func (g *Gateway) dispatchPlaceOrder(ctx context.Context, side strategyDomain.Side, price decimal.Decimal, size int64, clientID string) {
	defer func() {
		g.mu.Lock()
		g.newOrderInFlight = false
		g.mu.Unlock()
	}()

	ctx, span := g.tracer.Start(ctx, "gateway.place_order")
	defer span.End()

	resp, err := g.venueA.PlaceOrder(ctx, VenueAOrderRequest{ClientID: clientID, Side: side, Price: price, Size: size})
	if err != nil {
		span.RecordError(err)
		g.logger.Error(ctx, "venue-a place order failed", "error", err, "client_id", clientID)
		g.emit(strategyApp.OrderAckEvent{ClientID: clientID, Success: false})
		return
	}
	if g.metrics != nil {
		g.metrics.ordersDispatched.Add(ctx, 1)
	}
	if resp.RateLimited {
		g.enterRateLimit(ctx, feedDomain.VenueA, resp.ResetAt)
	}
	g.emit(strategyApp.OrderAckEvent{ClientID: clientID, Success: resp.Success})
}

// AmendOrder implements strategyApp.Gateway. Refused outright if venue A
// is rate-limited or an amend for this slot is already outstanding
// (spec.md §4.4's per-slot amend-in-flight suppression).
func (g *Gateway) AmendOrder(ctx context.Context, side strategyDomain.Side, clientID string, newPrice decimal.Decimal) {
	g.mu.Lock()
	if g.rateLimitedA || g.amendInFlight(side) {
		g.mu.Unlock()
		if g.metrics != nil {
			g.metrics.suppressedOps.Add(ctx, 1)
		}
		g.emit(strategyApp.AmendAckEvent{ClientID: clientID, Success: false})
		return
	}
	g.setAmendInFlight(side, true)
	g.mu.Unlock()

	go g.dispatchAmendOrder(ctx, side, clientID, newPrice)
}

func (g *Gateway) dispatchAmendOrder(ctx context.Context, side strategyDomain.Side, clientID string, newPrice decimal.Decimal) {
	defer func() {
		g.mu.Lock()
		g.setAmendInFlight(side, false)
		g.mu.Unlock()
	}()

	ctx, span := g.tracer.Start(ctx, "gateway.amend_order")
	defer span.End()

	resp, err := g.venueA.AmendOrder(ctx, VenueAAmendRequest{ClientID: clientID, Price: newPrice})
	if err != nil {
		span.RecordError(err)
		g.logger.Error(ctx, "venue-a amend order failed", "error", err, "client_id", clientID)
		g.emit(strategyApp.AmendAckEvent{ClientID: clientID, Success: false})
		return
	}
	if g.metrics != nil {
		g.metrics.amendsDispatched.Add(ctx, 1)
	}
	if resp.RateLimited {
		g.enterRateLimit(ctx, feedDomain.VenueA, resp.ResetAt)
	}
	g.emit(strategyApp.AmendAckEvent{ClientID: clientID, Success: resp.Success})
}

// CancelOrder implements strategyApp.Gateway. Refused outright if venue A
// is rate-limited or a cancel is already outstanding — cancelAll affects
// both slots at once, so it gets its own single in-flight guard rather
// than the per-slot amend split.
func (g *Gateway) CancelOrder(ctx context.Context, side strategyDomain.Side, clientID string) {
	g.mu.Lock()
	if g.rateLimitedA || g.cancelInFlight {
		g.mu.Unlock()
		if g.metrics != nil {
			g.metrics.suppressedOps.Add(ctx, 1)
		}
		g.emit(strategyApp.CancelAckEvent{ClientID: clientID, Success: false})
		return
	}
	g.cancelInFlight = true
	g.mu.Unlock()

	go g.dispatchCancelOrder(ctx, side, clientID)
}

func (g *Gateway) dispatchCancelOrder(ctx context.Context, side strategyDomain.Side, clientID string) {
	defer func() {
		g.mu.Lock()
		g.cancelInFlight = false
		g.mu.Unlock()
	}()

	ctx, span := g.tracer.Start(ctx, "gateway.cancel_order")
	defer span.End()

	resp, err := g.venueA.CancelOrder(ctx, VenueACancelRequest{ClientID: clientID})
	if err != nil {
		span.RecordError(err)
		g.logger.Error(ctx, "venue-a cancel order failed", "error", err, "client_id", clientID, "side", side)
		g.emit(strategyApp.CancelAckEvent{ClientID: clientID, Success: false})
		return
	}
	if g.metrics != nil {
		g.metrics.cancelsDispatched.Add(ctx, 1)
	}
	if resp.RateLimited {
		g.enterRateLimit(ctx, feedDomain.VenueA, resp.ResetAt)
	}
	g.emit(strategyApp.CancelAckEvent{ClientID: clientID, Success: resp.Success})
}

// PlaceHedgeOrder implements strategyApp.Gateway. Hedge orders are market
// orders on venue B; there is no ack event back to Strategy since the
// hedge accumulator already folded the fill in before dispatch
// (spec.md §4.5.4) — only the rate-limit state is reconciled back.
func (g *Gateway) PlaceHedgeOrder(ctx context.Context, side strategyDomain.Side, size int64) {
	g.mu.Lock()
	if g.rateLimitedB {
		g.mu.Unlock()
		if g.metrics != nil {
			g.metrics.suppressedOps.Add(ctx, 1)
		}
		g.logger.Warn(ctx, "hedge order suppressed by venue-b rate limit", "size", size)
		return
	}
	g.mu.Unlock()

	go g.dispatchHedgeOrder(ctx, side, size)
}

func (g *Gateway) dispatchHedgeOrder(ctx context.Context, side strategyDomain.Side, size int64) {
	ctx, span := g.tracer.Start(ctx, "gateway.place_hedge_order")
	defer span.End()

	resp, err := g.venueB.PlaceMarketOrder(ctx, VenueBMarketOrderRequest{Side: side, Size: size})
	if err != nil {
		span.RecordError(err)
		g.logger.Error(ctx, "venue-b hedge order failed", "error", err, "size", size)
		return
	}
	if g.metrics != nil {
		g.metrics.hedgesDispatched.Add(ctx, 1)
	}
	if resp.RateLimited {
		g.enterRateLimit(ctx, feedDomain.VenueB, resp.ResetAt)
	}
	if !resp.Success {
		g.logger.Warn(ctx, "venue-b hedge order rejected", "side", side, "size", size)
	}
}

// enterRateLimit flips the rate-limited flag for venue, emits the
// transition event, and schedules the matching clear once resetAt
// elapses.
func (g *Gateway) enterRateLimit(ctx context.Context, venue feedDomain.Venue, resetAt time.Time) {
	g.mu.Lock()
	switch venue {
	case feedDomain.VenueA:
		if g.rateLimitedA {
			g.mu.Unlock()
			return
		}
		g.rateLimitedA = true
	case feedDomain.VenueB:
		if g.rateLimitedB {
			g.mu.Unlock()
			return
		}
		g.rateLimitedB = true
	}
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.rateLimitEvents.Add(ctx, 1)
	}
	g.emit(strategyApp.RateLimitEnteredEvent{Venue: venue, ResetAt: resetAt})

	wait := time.Until(resetAt)
	if wait < 0 {
		wait = 0
	}
	go func() {
		time.Sleep(wait)
		g.clearRateLimit(venue)
	}()
}

func (g *Gateway) clearRateLimit(venue feedDomain.Venue) {
	g.mu.Lock()
	switch venue {
	case feedDomain.VenueA:
		g.rateLimitedA = false
	case feedDomain.VenueB:
		g.rateLimitedB = false
	}
	g.mu.Unlock()

	g.emit(strategyApp.RateLimitClearedEvent{Venue: venue})
}

func (g *Gateway) amendInFlight(side strategyDomain.Side) bool {
	if side == strategyDomain.SideBuy {
		return g.bidAmendInFlight
	}
	return g.askAmendInFlight
}

func (g *Gateway) setAmendInFlight(side strategyDomain.Side, v bool) {
	if side == strategyDomain.SideBuy {
		g.bidAmendInFlight = v
		return
	}
	g.askAmendInFlight = v
}
