package app

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/wsconn"
)

const (
	tracerName = "feed.app"
	meterName  = "feed.app"
)

type feedAMetrics struct {
	bboChanges   metric.Int64Counter
	bookResets   metric.Int64Counter
	inconsistent metric.Int64Counter
}

// FeedA demultiplexes venue A's wire protocol into book state and a
// uniform event stream: it owns the BookA reconstruction, applies
// snapshots/deltas as they arrive on the client's own read-loop goroutine,
// and forwards BBOChangeEvent/BookResetEvent plus the client's own
// order/execution/position events onto a single channel (spec.md §4.1,
// §4.3, §9 "one Strategy goroutine owning state via a single channel").
type FeedA struct {
	symbol string
	client VenueAClient
	book   *domain.BookA
	events chan<- domain.Event
	logger logger.LoggerInterface

	mu      sync.Mutex
	lastBBO domain.BBO
	haveBBO bool

	ctx     context.Context
	tracer  trace.Tracer
	metrics *feedAMetrics
}

// NewFeedA creates a FeedA publishing demuxed events to events.
func NewFeedA(symbol string, client VenueAClient, events chan<- domain.Event, log logger.LoggerInterface) *FeedA {
	f := &FeedA{
		symbol: symbol,
		client: client,
		book:   domain.NewBookA(),
		events: events,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
	if err := f.initMetrics(); err != nil {
		log.Error(context.Background(), "failed to init feed-a metrics", "error", err)
	}

	client.OnSnapshot(f.handleSnapshot)
	client.OnDelta(f.handleDelta)
	client.OnEvent(f.handleEvent)
	client.OnStateChange(f.handleStateChange)
	return f
}

func (f *FeedA) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	f.metrics = &feedAMetrics{}

	f.metrics.bboChanges, err = meter.Int64Counter(
		"feed_bbo_changes_total", metric.WithDescription("Total BBO change events emitted"))
	if err != nil {
		return err
	}
	f.metrics.bookResets, err = meter.Int64Counter(
		"feed_book_resets_total", metric.WithDescription("Total book reset events"))
	if err != nil {
		return err
	}
	f.metrics.inconsistent, err = meter.Int64Counter(
		"feed_book_inconsistent_total", metric.WithDescription("Total book-inconsistent recoveries"))
	return err
}

// Start connects the venue-A client.
func (f *FeedA) Start(ctx context.Context) error {
	f.ctx = ctx
	return f.client.Connect(ctx)
}

// Stop disconnects the venue-A client and resets book state.
func (f *FeedA) Stop() error {
	f.resetBook()
	return f.client.Close()
}

func (f *FeedA) handleSnapshot(levels []domain.SnapshotLevelA) {
	f.book.ApplySnapshot(levels)
	f.publishBBO()
}

func (f *FeedA) handleDelta(deltas []domain.DeltaA) {
	if err := f.book.ApplyDeltas(deltas); err != nil {
		f.metrics.inconsistent.Add(context.Background(), 1)
		f.logger.Error(context.Background(), "venue-a book inconsistent, forcing reconnect",
			"symbol", f.symbol, "error", err)
		f.resetBook()
		go f.reconnect()
		return
	}
	f.publishBBO()
}

func (f *FeedA) handleEvent(ev domain.Event) {
	f.events <- ev
}

// handleStateChange clears book state on disconnect: venue A resends a
// full snapshot on the next subscribe, so deltas arriving before it must
// not be applied against stale levels (spec.md §4.2 "Book reset").
func (f *FeedA) handleStateChange(state wsconn.State, err error) {
	if state == wsconn.StateDisconnected || state == wsconn.StateReconnecting {
		f.resetBook()
	}
}

func (f *FeedA) resetBook() {
	f.book.Reset()
	f.mu.Lock()
	f.haveBBO = false
	f.mu.Unlock()
	f.metrics.bookResets.Add(context.Background(), 1)
	f.events <- domain.BookResetEvent{Venue: domain.VenueA}
}

func (f *FeedA) reconnect() {
	ctx := f.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	_ = f.client.Close()
	if err := f.client.Connect(ctx); err != nil {
		f.logger.Error(ctx, "venue-a reconnect failed", "error", err)
	}
}

func (f *FeedA) publishBBO() {
	bbo, ok := f.book.TopOfBook()
	if !ok {
		return
	}
	f.mu.Lock()
	unchanged := f.haveBBO && f.lastBBO.Equal(bbo)
	f.lastBBO = bbo
	f.haveBBO = true
	f.mu.Unlock()
	if unchanged {
		return
	}
	f.metrics.bboChanges.Add(context.Background(), 1)
	f.events <- domain.BBOChangeEvent{Venue: domain.VenueA, BBO: bbo}
}
