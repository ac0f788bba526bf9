package app

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/business/strategy/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
)

type fakeFeed struct {
	events chan feedDomain.Event
}

func (f *fakeFeed) Events() <-chan feedDomain.Event { return f.events }

type placeCall struct {
	side     domain.Side
	price    decimal.Decimal
	size     int64
	clientID string
}

type amendCall struct {
	side     domain.Side
	clientID string
	price    decimal.Decimal
}

type cancelCall struct {
	side     domain.Side
	clientID string
}

type fakeGateway struct {
	mu       sync.Mutex
	placed   []placeCall
	amended  []amendCall
	canceled []cancelCall
	hedges   []int64
	events   chan GatewayEvent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(chan GatewayEvent, 16)}
}

func (g *fakeGateway) PlaceOrder(ctx context.Context, side domain.Side, price decimal.Decimal, size int64, clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.placed = append(g.placed, placeCall{side: side, price: price, size: size, clientID: clientID})
}

func (g *fakeGateway) AmendOrder(ctx context.Context, side domain.Side, clientID string, newPrice decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.amended = append(g.amended, amendCall{side: side, clientID: clientID, price: newPrice})
}

func (g *fakeGateway) CancelOrder(ctx context.Context, side domain.Side, clientID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.canceled = append(g.canceled, cancelCall{side: side, clientID: clientID})
}

func (g *fakeGateway) PlaceHedgeOrder(ctx context.Context, side domain.Side, size int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hedges = append(g.hedges, size)
}

func (g *fakeGateway) Events() <-chan GatewayEvent { return g.events }

func (g *fakeGateway) placedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.placed)
}

func newTestStrategy(gateway *fakeGateway) *Strategy {
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	cfg := Config{
		Tick: decimal.NewFromFloat(0.5),
		Margins: domain.QuoteMargins{
			Fee:    decimal.NewFromFloat(0.00015),
			Profit: decimal.NewFromFloat(0.00005),
			Risk:   decimal.NewFromFloat(0.00025),
		},
		QuoteSize:      100,
		InventoryLimit: 2000,
		HedgeRatio:     100,
		UpdateInterval: 3,
	}
	feed := &fakeFeed{events: make(chan feedDomain.Event, 16)}
	return NewStrategy("XBTUSD", feed, gateway, cfg, log)
}

func bbo(bid, ask float64) domain.BBO {
	return domain.BBO{BestBidPrice: decimal.NewFromFloat(bid), BestAskPrice: decimal.NewFromFloat(ask)}
}

// makeReady feeds both venues' BBO and both position snapshots directly
// through dispatch, bringing the strategy to ready() == true. The BBO
// event that completes readiness ticks, so on return both slots are armed
// (InFlightNew) with one PlaceOrder each.
func makeReady(t *testing.T, s *Strategy) {
	t.Helper()
	ctx := context.Background()
	s.dispatch(ctx, feedDomain.PositionSnapshotEvent{Venue: feedDomain.VenueA, Size: 0})
	s.dispatch(ctx, feedDomain.PositionSnapshotEvent{Venue: feedDomain.VenueB, Size: 0})
	s.dispatch(ctx, feedDomain.BBOChangeEvent{Venue: feedDomain.VenueA, BBO: bbo(100, 100.5)})
	s.dispatch(ctx, feedDomain.BBOChangeEvent{Venue: feedDomain.VenueB, BBO: bbo(100, 100.5)})
	if !s.ready() {
		t.Fatal("expected strategy to be ready after both BBOs and both position snapshots")
	}
}

func TestStrategy_NotReadyUntilBothVenuesAndPositionsSeen(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)
	ctx := context.Background()

	s.dispatch(ctx, feedDomain.BBOChangeEvent{Venue: feedDomain.VenueA, BBO: bbo(100, 100.5)})
	if s.ready() {
		t.Fatal("expected not ready with only one venue's BBO")
	}
	if gateway.placedCount() != 0 {
		t.Errorf("expected no orders placed before ready, got %d", gateway.placedCount())
	}
}

func TestStrategy_Tick_PlacesBothSlotsOnceReady(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)

	makeReady(t, s)

	if gateway.placedCount() == 0 {
		t.Fatal("expected at least one order placed once ready")
	}

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	sides := map[domain.Side]bool{}
	for _, p := range gateway.placed {
		sides[p.side] = true
	}
	if !sides[domain.SideBuy] || !sides[domain.SideSell] {
		t.Errorf("expected both bid and ask slots to place an order, got sides: %+v", sides)
	}
}

func TestStrategy_Tick_SuppressedWhileVenueARateLimited(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)

	makeReady(t, s)
	before := gateway.placedCount()

	ctx := context.Background()
	s.dispatch(ctx, RateLimitEnteredEvent{Venue: feedDomain.VenueA})

	// A BBO change would normally re-tick and place/amend; while
	// rate-limited it must be a no-op.
	s.dispatch(ctx, feedDomain.BBOChangeEvent{Venue: feedDomain.VenueA, BBO: bbo(105, 105.5)})

	if got := gateway.placedCount(); got != before {
		t.Errorf("expected no new dispatch while venue A is rate-limited, went from %d to %d", before, got)
	}
}

func TestStrategy_HandleExecution_PlacesHedgeOrderOnAccumulatorThreshold(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)
	makeReady(t, s)

	ctx := context.Background()
	s.dispatch(ctx, feedDomain.ExecutionEvent{
		ClientID:  "nonexistent",
		Side:      domain.SideBuy,
		ExecType:  feedDomain.ExecTypeTrade,
		ExecQty:   100,
		LeavesQty: 0,
	})

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	if len(gateway.hedges) == 0 {
		t.Fatal("expected a hedge order once the accumulator crosses the hedge ratio")
	}
}

func TestStrategy_HandleOrderAck_FailureRejectsSlot(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)
	makeReady(t, s)

	if s.bidSlot.ClientID == "" {
		t.Fatal("expected bid slot to be armed after tick")
	}
	clientID := s.bidSlot.ClientID

	s.dispatch(context.Background(), OrderAckEvent{ClientID: clientID, Success: false})

	if s.bidSlot.IsOccupied() {
		t.Errorf("expected bid slot to be freed after a rejected new-order ack")
	}
}

func TestStrategy_HandleAmendAck_FailureRollsBackToPreviousPrice(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)
	makeReady(t, s)

	clientID := "bid-1"
	s.bidSlot = domain.Slot{Side: domain.SideBuy}
	s.bidSlot.ArmNew(clientID, decimal.NewFromInt(100), 100)
	s.bidSlot.ConfirmNew()
	if !s.bidSlot.NeedsAmend(decimal.NewFromInt(101), 0) {
		t.Fatal("expected NeedsAmend to arm the amend immediately with updateInterval 0")
	}
	if !s.bidSlot.Price.Equal(decimal.NewFromInt(101)) {
		t.Fatalf("expected speculative price 101, got %s", s.bidSlot.Price)
	}

	s.dispatch(context.Background(), AmendAckEvent{ClientID: clientID, Success: false})

	if s.bidSlot.State != domain.SlotLive {
		t.Fatalf("expected slot to roll back to Live, got %v", s.bidSlot.State)
	}
	if !s.bidSlot.Price.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected price rolled back to 100, got %s", s.bidSlot.Price)
	}
}

func TestStrategy_HandleCancelAck_SuccessClearsSlot(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)
	makeReady(t, s)

	clientID := s.bidSlot.ClientID
	if clientID == "" {
		t.Fatal("expected bid slot to be armed after tick")
	}

	s.dispatch(context.Background(), CancelAckEvent{ClientID: clientID, Success: true})

	if s.bidSlot.IsOccupied() {
		t.Errorf("expected bid slot to be freed after a successful cancel ack")
	}
}

func TestStrategy_CancelRestingOrders_IssuesCancelForOccupiedSlots(t *testing.T) {
	gateway := newFakeGateway()
	s := newTestStrategy(gateway)
	makeReady(t, s)

	s.cancelRestingOrders()

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	if len(gateway.canceled) != 2 {
		t.Fatalf("expected both slots canceled at shutdown, got %d", len(gateway.canceled))
	}
	sides := map[domain.Side]bool{}
	for _, c := range gateway.canceled {
		sides[c.side] = true
	}
	if !sides[domain.SideBuy] || !sides[domain.SideSell] {
		t.Errorf("expected both bid and ask slots canceled, got sides: %+v", sides)
	}
}
