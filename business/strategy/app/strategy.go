package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/business/strategy/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
)

const (
	tracerName = "strategy.app"
	meterName  = "strategy.app"
)

// Config holds the strategy's tunable parameters (internal/config's
// StrategyConfig, resolved to domain types at the module boundary).
type Config struct {
	Tick           decimal.Decimal
	Margins        domain.QuoteMargins
	QuoteSize      int64
	InventoryLimit int64
	HedgeRatio     int64
	UpdateInterval int
}

type strategyMetrics struct {
	ticks          metric.Int64Counter
	ordersPlaced   metric.Int64Counter
	ordersAmended  metric.Int64Counter
	hedgesPlaced   metric.Int64Counter
	positionDrift  metric.Int64Counter
	rateLimitStops metric.Int64Counter
}

// Strategy is the single goroutine that owns all mutable strategy state:
// both venues' BBO, both positions, the hedge accumulator, and the two
// quote slots. It is fed by one buffered channel relaying events from the
// Feed and the Gateway, so no strategy field is ever touched from another
// goroutine (spec.md §5, SPEC_FULL.md §5).
type Strategy struct {
	symbol  string
	feed    Feed
	gateway Gateway
	cfg     Config
	logger  logger.LoggerInterface

	events chan any

	bboA, bboB         domain.BBO
	haveBBOA, haveBBOB bool
	havePosA, havePosB bool

	position domain.Position
	bidSlot  domain.Slot
	askSlot  domain.Slot

	rateLimited map[feedDomain.Venue]bool

	tracer  trace.Tracer
	metrics *strategyMetrics

	wg sync.WaitGroup
}

// NewStrategy constructs a Strategy. The event channel is owned by the
// Strategy itself; two forwarding goroutines (started by Start) relay the
// Feed's and the Gateway's own channels into it, so the select loop below
// only ever reads from one channel as spec.md §5/§9 describes.
func NewStrategy(symbol string, feed Feed, gateway Gateway, cfg Config, log logger.LoggerInterface) *Strategy {
	s := &Strategy{
		symbol:      symbol,
		feed:        feed,
		gateway:     gateway,
		cfg:         cfg,
		logger:      log,
		events:      make(chan any, 256),
		rateLimited: make(map[feedDomain.Venue]bool, 2),
		tracer:      otel.Tracer(tracerName),
	}
	s.bidSlot.Side = domain.SideBuy
	s.askSlot.Side = domain.SideSell
	return s
}

func (s *Strategy) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	m := &strategyMetrics{}
	if m.ticks, err = meter.Int64Counter("strategy_ticks_total"); err != nil {
		return err
	}
	if m.ordersPlaced, err = meter.Int64Counter("strategy_orders_placed_total"); err != nil {
		return err
	}
	if m.ordersAmended, err = meter.Int64Counter("strategy_orders_amended_total"); err != nil {
		return err
	}
	if m.hedgesPlaced, err = meter.Int64Counter("strategy_hedges_placed_total"); err != nil {
		return err
	}
	if m.positionDrift, err = meter.Int64Counter("strategy_position_drift_total"); err != nil {
		return err
	}
	if m.rateLimitStops, err = meter.Int64Counter("strategy_rate_limit_stops_total"); err != nil {
		return err
	}
	s.metrics = m
	return nil
}

// Start launches the forwarding goroutines and the Strategy's own run
// loop.
func (s *Strategy) Start(ctx context.Context) error {
	if err := s.initMetrics(); err != nil {
		return err
	}

	s.wg.Add(3)
	go s.forward(ctx, s.feed.Events())
	go s.forwardGateway(ctx, s.gateway.Events())
	go s.run(ctx)
	return nil
}

// Stop waits for the forwarding goroutines and the run loop to drain. The
// run loop cancels any resting order before it returns, so Stop does not
// return until that dispatch has been issued.
func (s *Strategy) Stop() error {
	s.wg.Wait()
	return nil
}

func (s *Strategy) forward(ctx context.Context, in <-chan feedDomain.Event) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Strategy) forwardGateway(ctx context.Context, in <-chan GatewayEvent) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-in:
			if !ok {
				return
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Strategy) run(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			s.cancelRestingOrders()
			return
		case ev := <-s.events:
			s.dispatch(ctx, ev)
		}
	}
}

// cancelRestingOrders issues a cancel for any slot still occupied at
// shutdown, so the venue does not keep quoting into a market this process
// has stopped watching (spec.md §4.4). Runs on the same goroutine that
// owns bidSlot/askSlot, so no locking is needed. ctx is already Done by
// the time this runs, so the cancel dispatch uses a fresh context.
func (s *Strategy) cancelRestingOrders() {
	ctx := context.Background()
	for _, slot := range [...]*domain.Slot{&s.bidSlot, &s.askSlot} {
		if slot.IsOccupied() {
			s.gateway.CancelOrder(ctx, slot.Side, slot.ClientID)
		}
	}
}

func (s *Strategy) dispatch(ctx context.Context, ev any) {
	switch e := ev.(type) {
	case feedDomain.BBOChangeEvent:
		s.handleBBOChange(ctx, e)
	case feedDomain.OrderUpdateEvent:
		s.handleOrderUpdate(ctx, e)
	case feedDomain.ExecutionEvent:
		s.handleExecution(ctx, e)
	case feedDomain.PositionUpdateEvent:
		s.handlePositionUpdate(ctx, e)
	case feedDomain.OrderSnapshotEvent:
		s.handleOrderSnapshot(e)
	case feedDomain.PositionSnapshotEvent:
		s.handlePositionSnapshot(ctx, e)
	case feedDomain.BookResetEvent:
		s.handleBookReset(e)
	case OrderAckEvent:
		s.handleOrderAck(e)
	case AmendAckEvent:
		s.handleAmendAck(e)
	case CancelAckEvent:
		s.handleCancelAck(ctx, e)
	case RateLimitEnteredEvent:
		s.rateLimited[e.Venue] = true
		if s.metrics != nil {
			s.metrics.rateLimitStops.Add(ctx, 1)
		}
	case RateLimitClearedEvent:
		s.rateLimited[e.Venue] = false
		s.tick(ctx)
	}
}

func (s *Strategy) handleBBOChange(ctx context.Context, e feedDomain.BBOChangeEvent) {
	switch e.Venue {
	case feedDomain.VenueA:
		s.bboA = e.BBO
		s.haveBBOA = true
	case feedDomain.VenueB:
		s.bboB = e.BBO
		s.haveBBOB = true
	}
	s.tick(ctx)
}

func (s *Strategy) handleBookReset(e feedDomain.BookResetEvent) {
	switch e.Venue {
	case feedDomain.VenueA:
		s.haveBBOA = false
	case feedDomain.VenueB:
		s.haveBBOB = false
	}
}

func (s *Strategy) slotFor(side domain.Side) *domain.Slot {
	switch side {
	case domain.SideBuy:
		return &s.bidSlot
	case domain.SideSell:
		return &s.askSlot
	default:
		return nil
	}
}

func (s *Strategy) slotByClientID(clientID string) *domain.Slot {
	if s.bidSlot.ClientID == clientID {
		return &s.bidSlot
	}
	if s.askSlot.ClientID == clientID {
		return &s.askSlot
	}
	return nil
}

func (s *Strategy) handleOrderUpdate(ctx context.Context, e feedDomain.OrderUpdateEvent) {
	slot := s.slotByClientID(e.ClientID)
	if slot == nil {
		return
	}

	switch {
	case e.Status.IsTerminal():
		slot.Cancel()
	case slot.State == domain.SlotInFlightNew:
		slot.ConfirmNew()
	case slot.State == domain.SlotInFlightAmend:
		slot.ConfirmAmend()
	}

	s.tick(ctx)
}

func (s *Strategy) handleExecution(ctx context.Context, e feedDomain.ExecutionEvent) {
	if slot := s.slotByClientID(e.ClientID); slot != nil && e.LeavesQty == 0 {
		slot.FillToZero()
	}

	if e.ExecType != feedDomain.ExecTypeTrade {
		return
	}

	result := s.position.ApplyExecution(e.Side, e.ExecQty, s.cfg.HedgeRatio)
	if result.Contracts == 0 {
		s.tick(ctx)
		return
	}

	size := result.Contracts
	if size < 0 {
		size = -size
	}
	if s.rateLimited[feedDomain.VenueB] {
		s.logger.Warn(ctx, "hedge order suppressed by venue-B rate limit",
			"contracts", result.Contracts)
	} else {
		s.gateway.PlaceHedgeOrder(ctx, result.Side, size)
		if s.metrics != nil {
			s.metrics.hedgesPlaced.Add(ctx, 1)
		}
	}
	s.tick(ctx)
}

func (s *Strategy) handlePositionUpdate(ctx context.Context, e feedDomain.PositionUpdateEvent) {
	switch e.Venue {
	case feedDomain.VenueA:
		s.position.PosA = e.Size
	case feedDomain.VenueB:
		s.position.PosB = e.Size
	}
	s.position.Recompute(s.cfg.HedgeRatio)
	s.tick(ctx)
}

func (s *Strategy) handlePositionSnapshot(ctx context.Context, e feedDomain.PositionSnapshotEvent) {
	switch e.Venue {
	case feedDomain.VenueA:
		s.logDrift(ctx, "A", s.position.PosA, e.Size)
		s.position.PosA = e.Size
		s.havePosA = true
	case feedDomain.VenueB:
		s.logDrift(ctx, "B", s.position.PosB, e.Size)
		s.position.PosB = e.Size
		s.havePosB = true
	}
	s.position.Recompute(s.cfg.HedgeRatio)
	s.tick(ctx)
}

// logDrift warns when a position snapshot disagrees with the locally
// tracked accumulator by more than one lot (SPEC_FULL.md §4.5 supplement).
func (s *Strategy) logDrift(ctx context.Context, venue string, local, snapshot int64) {
	diff := snapshot - local
	if diff < 0 {
		diff = -diff
	}
	if diff <= 1 {
		return
	}
	if s.metrics != nil {
		s.metrics.positionDrift.Add(ctx, 1)
	}
	s.logger.Warn(ctx, "position snapshot disagrees with local accumulator",
		"venue", venue, "local", local, "snapshot", snapshot, "diff", diff)
}

func (s *Strategy) handleOrderSnapshot(e feedDomain.OrderSnapshotEvent) {
	s.bidSlot = domain.Slot{Side: domain.SideBuy}
	s.askSlot = domain.Slot{Side: domain.SideSell}

	for _, entry := range e.Entries {
		if entry.Status.IsTerminal() {
			continue
		}
		slot := s.slotFor(entry.Side)
		if slot == nil || slot.IsOccupied() {
			continue
		}
		slot.ArmNew(entry.ClientID, entry.Price, entry.Size)
		slot.ConfirmNew()
	}
}

func (s *Strategy) handleOrderAck(e OrderAckEvent) {
	if e.Success {
		return
	}
	if slot := s.slotByClientID(e.ClientID); slot != nil {
		slot.RejectNew()
	}
}

func (s *Strategy) handleAmendAck(e AmendAckEvent) {
	if e.Success {
		return
	}
	// A confirmed amend is driven by the order-update channel, which
	// remains authoritative for the live price. A failed amend dispatch
	// never reached the venue, so the slot rolls back to the price it was
	// quoting before NeedsAmend moved it, rather than getting stuck on the
	// speculative target.
	if slot := s.slotByClientID(e.ClientID); slot != nil {
		slot.RejectAmend(slot.PreviousPrice)
	}
}

// handleCancelAck reconciles the outcome of a shutdown cancel dispatch. A
// successful cancelAll empties the slot whatever state it was in (shutdown
// cancels InFlightNew slots too). A failed cancelAll leaves the slot's
// state untouched; the venue is still the source of truth for what is
// resting, and the process is exiting regardless.
func (s *Strategy) handleCancelAck(ctx context.Context, e CancelAckEvent) {
	if !e.Success {
		s.logger.Warn(ctx, "venue-a cancel order failed", "client_id", e.ClientID)
		return
	}
	if slot := s.slotByClientID(e.ClientID); slot != nil {
		*slot = domain.Slot{Side: slot.Side}
	}
}

// ready reports whether both venues' BBO and both positions have been
// received at least once (spec.md §4.5.5): strategy does not act until
// then.
func (s *Strategy) ready() bool {
	return s.haveBBOA && s.haveBBOB && s.havePosA && s.havePosB
}

func (s *Strategy) tick(ctx context.Context) {
	if !s.ready() {
		return
	}
	if s.metrics != nil {
		s.metrics.ticks.Add(ctx, 1)
	}
	if s.rateLimited[feedDomain.VenueA] {
		return
	}

	skew := decimal.Zero
	if s.cfg.InventoryLimit != 0 {
		skew = decimal.NewFromInt(s.position.PosA).Div(decimal.NewFromInt(s.cfg.InventoryLimit))
	}
	targets := domain.ComputeQuoteTargets(s.bboA, s.bboB, s.cfg.Margins, s.cfg.Tick, skew)

	s.tickSlot(ctx, domain.SideBuy, &s.bidSlot, targets.Bid)
	s.tickSlot(ctx, domain.SideSell, &s.askSlot, targets.Ask)
}

func (s *Strategy) tickSlot(ctx context.Context, side domain.Side, slot *domain.Slot, target decimal.Decimal) {
	if !slot.IsOccupied() {
		size := domain.OrderSize(side, s.position.PosA, s.cfg.QuoteSize, s.cfg.InventoryLimit)
		if size <= 0 {
			return
		}
		clientID := uuid.NewString()
		if slot.ArmNew(clientID, target, size) {
			s.gateway.PlaceOrder(ctx, side, target, size, clientID)
			if s.metrics != nil {
				s.metrics.ordersPlaced.Add(ctx, 1)
			}
		}
		return
	}

	if slot.State == domain.SlotLive && slot.NeedsAmend(target, s.cfg.UpdateInterval) {
		s.gateway.AmendOrder(ctx, side, slot.ClientID, slot.Price)
		if s.metrics != nil {
			s.metrics.ordersAmended.Add(ctx, 1)
		}
	}
}
