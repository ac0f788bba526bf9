package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
	strategyApp "github.com/fd1az/xvenue-mm/business/strategy/app"
	strategyDomain "github.com/fd1az/xvenue-mm/business/strategy/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
)

type fakeVenueA struct {
	mu          sync.Mutex
	placeCalls  int
	amendCalls  int
	cancelCalls int
	placeResp   VenueAResponse
	placeErr    error
	amendResp   VenueAResponse
	amendErr    error
	cancelResp  VenueAResponse
	cancelErr   error
	placeDelay  time.Duration
	cancelDelay time.Duration
}

func (f *fakeVenueA) PlaceOrder(ctx context.Context, req VenueAOrderRequest) (VenueAResponse, error) {
	f.mu.Lock()
	f.placeCalls++
	f.mu.Unlock()
	if f.placeDelay > 0 {
		time.Sleep(f.placeDelay)
	}
	return f.placeResp, f.placeErr
}

func (f *fakeVenueA) AmendOrder(ctx context.Context, req VenueAAmendRequest) (VenueAResponse, error) {
	f.mu.Lock()
	f.amendCalls++
	f.mu.Unlock()
	return f.amendResp, f.amendErr
}

func (f *fakeVenueA) CancelOrder(ctx context.Context, req VenueACancelRequest) (VenueAResponse, error) {
	f.mu.Lock()
	f.cancelCalls++
	f.mu.Unlock()
	if f.cancelDelay > 0 {
		time.Sleep(f.cancelDelay)
	}
	return f.cancelResp, f.cancelErr
}

func (f *fakeVenueA) calls() (place, amend int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placeCalls, f.amendCalls
}

func (f *fakeVenueA) cancels() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelCalls
}

type fakeVenueB struct {
	mu    sync.Mutex
	calls int
	resp  VenueBResponse
	err   error
}

func (f *fakeVenueB) PlaceMarketOrder(ctx context.Context, req VenueBMarketOrderRequest) (VenueBResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.resp, f.err
}

func newTestGateway(venueA VenueARESTClient, venueB VenueBRESTClient) *Gateway {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	return NewGateway(venueA, venueB, log)
}

func drainEvent(t *testing.T, g *Gateway) strategyApp.GatewayEvent {
	t.Helper()
	select {
	case ev := <-g.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for gateway event")
		return nil
	}
}

func TestGateway_PlaceOrder_SuccessEmitsAck(t *testing.T) {
	venueA := &fakeVenueA{placeResp: VenueAResponse{Success: true}}
	g := newTestGateway(venueA, &fakeVenueB{})

	g.PlaceOrder(context.Background(), strategyDomain.SideBuy, decimal.NewFromInt(100), 10, "client-1")

	ev := drainEvent(t, g)
	ack, ok := ev.(strategyApp.OrderAckEvent)
	if !ok {
		t.Fatalf("expected OrderAckEvent, got %T", ev)
	}
	if !ack.Success || ack.ClientID != "client-1" {
		t.Errorf("unexpected ack: %+v", ack)
	}
}

func TestGateway_PlaceOrder_SuppressedWhileInFlight(t *testing.T) {
	venueA := &fakeVenueA{placeResp: VenueAResponse{Success: true}, placeDelay: 100 * time.Millisecond}
	g := newTestGateway(venueA, &fakeVenueB{})

	g.PlaceOrder(context.Background(), strategyDomain.SideBuy, decimal.NewFromInt(100), 10, "first")
	// Second call races in before the first dispatch's deferred clear runs.
	time.Sleep(10 * time.Millisecond)
	g.PlaceOrder(context.Background(), strategyDomain.SideSell, decimal.NewFromInt(101), 10, "second")

	first := drainEvent(t, g)
	second := drainEvent(t, g)

	acks := map[string]bool{}
	for _, ev := range []strategyApp.GatewayEvent{first, second} {
		ack := ev.(strategyApp.OrderAckEvent)
		acks[ack.ClientID] = ack.Success
	}

	if acks["second"] {
		t.Errorf("expected second concurrent PlaceOrder to be suppressed, got success")
	}

	place, _ := venueA.calls()
	if place != 1 {
		t.Errorf("expected exactly one dispatched PlaceOrder call, got %d", place)
	}
}

func TestGateway_AmendOrder_PerSlotGuardsAreIndependent(t *testing.T) {
	venueA := &fakeVenueA{amendResp: VenueAResponse{Success: true}, placeDelay: 0}
	g := newTestGateway(venueA, &fakeVenueB{})

	// Hold the bid-side amend in flight via rate limit flag trick: instead,
	// directly exercise that a bid amend and an ask amend do not contend.
	g.AmendOrder(context.Background(), strategyDomain.SideBuy, "bid-1", decimal.NewFromInt(100))
	g.AmendOrder(context.Background(), strategyDomain.SideSell, "ask-1", decimal.NewFromInt(101))

	first := drainEvent(t, g)
	second := drainEvent(t, g)

	for _, ev := range []strategyApp.GatewayEvent{first, second} {
		ack := ev.(strategyApp.AmendAckEvent)
		if !ack.Success {
			t.Errorf("expected independent slot amends to both succeed, got %+v", ack)
		}
	}
}

func TestGateway_CancelOrder_SuccessEmitsAck(t *testing.T) {
	venueA := &fakeVenueA{cancelResp: VenueAResponse{Success: true}}
	g := newTestGateway(venueA, &fakeVenueB{})

	g.CancelOrder(context.Background(), strategyDomain.SideBuy, "client-1")

	ev := drainEvent(t, g)
	ack, ok := ev.(strategyApp.CancelAckEvent)
	if !ok {
		t.Fatalf("expected CancelAckEvent, got %T", ev)
	}
	if !ack.Success || ack.ClientID != "client-1" {
		t.Errorf("unexpected ack: %+v", ack)
	}
}

func TestGateway_CancelOrder_SuppressedWhileInFlight(t *testing.T) {
	venueA := &fakeVenueA{cancelResp: VenueAResponse{Success: true}, cancelDelay: 100 * time.Millisecond}
	g := newTestGateway(venueA, &fakeVenueB{})

	g.CancelOrder(context.Background(), strategyDomain.SideBuy, "first")
	time.Sleep(10 * time.Millisecond)
	g.CancelOrder(context.Background(), strategyDomain.SideSell, "second")

	first := drainEvent(t, g).(strategyApp.CancelAckEvent)
	second := drainEvent(t, g).(strategyApp.CancelAckEvent)

	acks := map[string]bool{first.ClientID: first.Success, second.ClientID: second.Success}
	if acks["second"] {
		t.Errorf("expected second concurrent CancelOrder to be suppressed, got success")
	}
	if venueA.cancels() != 1 {
		t.Errorf("expected exactly one dispatched cancel call, got %d", venueA.cancels())
	}
}

func TestGateway_PlaceOrder_TransportErrorEmitsFailureAck(t *testing.T) {
	venueA := &fakeVenueA{placeErr: errors.New("dial tcp: timeout")}
	g := newTestGateway(venueA, &fakeVenueB{})

	g.PlaceOrder(context.Background(), strategyDomain.SideBuy, decimal.NewFromInt(100), 10, "client-1")

	ev := drainEvent(t, g)
	ack := ev.(strategyApp.OrderAckEvent)
	if ack.Success {
		t.Errorf("expected failure ack on transport error, got success")
	}
}

func TestGateway_RateLimit_SuppressesSubsequentCallsThenClears(t *testing.T) {
	resetAt := time.Now().Add(50 * time.Millisecond)
	venueA := &fakeVenueA{placeResp: VenueAResponse{Success: true, RateLimited: true, ResetAt: resetAt}}
	g := newTestGateway(venueA, &fakeVenueB{})

	g.PlaceOrder(context.Background(), strategyDomain.SideBuy, decimal.NewFromInt(100), 10, "first")

	// The rate-limit transition is emitted before the ack it came with.
	entered := drainEvent(t, g).(strategyApp.RateLimitEnteredEvent)
	if entered.Venue != feedDomain.VenueA {
		t.Errorf("expected VenueA rate limit, got %v", entered.Venue)
	}
	ack := drainEvent(t, g).(strategyApp.OrderAckEvent)
	if !ack.Success {
		t.Fatalf("expected first ack to succeed")
	}

	// A second order while rate-limited must be refused immediately.
	venueA.placeResp = VenueAResponse{Success: true}
	g.PlaceOrder(context.Background(), strategyDomain.SideBuy, decimal.NewFromInt(100), 10, "second")
	refused := drainEvent(t, g).(strategyApp.OrderAckEvent)
	if refused.Success {
		t.Errorf("expected second order to be refused while rate-limited")
	}

	cleared := drainEvent(t, g).(strategyApp.RateLimitClearedEvent)
	if cleared.Venue != feedDomain.VenueA {
		t.Errorf("expected VenueA clear event, got %v", cleared.Venue)
	}

	place, _ := venueA.calls()
	if place != 1 {
		t.Errorf("expected only one dispatched call while rate-limited, got %d", place)
	}
}

func TestGateway_PlaceHedgeOrder_SuppressedByVenueBRateLimit(t *testing.T) {
	venueB := &fakeVenueB{resp: VenueBResponse{Success: true, RateLimited: true, ResetAt: time.Now().Add(20 * time.Millisecond)}}
	g := newTestGateway(&fakeVenueA{}, venueB)

	g.PlaceHedgeOrder(context.Background(), strategyDomain.SideBuy, 100)

	entered := drainEvent(t, g).(strategyApp.RateLimitEnteredEvent)
	if entered.Venue != feedDomain.VenueB {
		t.Fatalf("expected VenueB rate limit entry, got %v", entered.Venue)
	}

	g.PlaceHedgeOrder(context.Background(), strategyDomain.SideBuy, 50)
	time.Sleep(10 * time.Millisecond)

	venueB.mu.Lock()
	calls := venueB.calls
	venueB.mu.Unlock()
	if calls != 1 {
		t.Errorf("expected hedge order while rate-limited to be suppressed, got %d calls", calls)
	}

	cleared := drainEvent(t, g).(strategyApp.RateLimitClearedEvent)
	if cleared.Venue != feedDomain.VenueB {
		t.Errorf("expected VenueB clear event, got %v", cleared.Venue)
	}
}
