package app

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
	"github.com/fd1az/xvenue-mm/internal/wsconn"
)

// depthSnapshotLimit is the REST depth-snapshot page size requested to
// seed BookB (spec.md §4.2 "Snapshot fetch").
const depthSnapshotLimit = 1000

type feedBMetrics struct {
	bboChanges metric.Int64Counter
	bookResets metric.Int64Counter
	snapshots  metric.Int64Counter
}

// FeedB demultiplexes venue B's wire protocol into book state and a
// uniform event stream. Unlike venue A, venue B's book is seeded from a
// REST snapshot fetched lazily the first time a depth delta arrives after
// connect or reset, while deltas arriving beforehand are buffered by
// BookB itself (spec.md §4.2, grounded on original_source/ws_client.py's
// on_connect lazy depth-snapshot request).
type FeedB struct {
	symbol   string
	client   VenueBClient
	snapshot SnapshotFetcher
	book     *domain.BookB
	events   chan<- domain.Event
	logger   logger.LoggerInterface

	mu            sync.Mutex
	lastBBO       domain.BBO
	haveBBO       bool
	snapshotAsked bool

	ctx     context.Context
	metrics *feedBMetrics
}

// NewFeedB creates a FeedB publishing demuxed events to events.
func NewFeedB(symbol string, client VenueBClient, snapshot SnapshotFetcher, events chan<- domain.Event, log logger.LoggerInterface) *FeedB {
	f := &FeedB{
		symbol:   symbol,
		client:   client,
		snapshot: snapshot,
		book:     domain.NewBookB(),
		events:   events,
		logger:   log,
	}
	if err := f.initMetrics(); err != nil {
		log.Error(context.Background(), "failed to init feed-b metrics", "error", err)
	}

	client.OnDepthDelta(f.handleDelta)
	client.OnEvent(f.handleEvent)
	client.OnStateChange(f.handleStateChange)
	return f
}

func (f *FeedB) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error
	f.metrics = &feedBMetrics{}

	f.metrics.bboChanges, err = meter.Int64Counter(
		"feed_b_bbo_changes_total", metric.WithDescription("Total venue-B BBO change events emitted"))
	if err != nil {
		return err
	}
	f.metrics.bookResets, err = meter.Int64Counter(
		"feed_b_book_resets_total", metric.WithDescription("Total venue-B book reset events"))
	if err != nil {
		return err
	}
	f.metrics.snapshots, err = meter.Int64Counter(
		"feed_b_snapshot_fetches_total", metric.WithDescription("Total venue-B depth snapshot fetches"))
	return err
}

// Start connects the venue-B client.
func (f *FeedB) Start(ctx context.Context) error {
	f.ctx = ctx
	return f.client.Connect(ctx)
}

// Stop disconnects the venue-B client and resets book state.
func (f *FeedB) Stop() error {
	f.resetBook()
	return f.client.Close()
}

func (f *FeedB) handleDelta(d domain.DeltaB) {
	f.maybeFetchSnapshot()

	if err := f.book.ApplyDelta(d); err != nil {
		f.logger.Error(context.Background(), "venue-b book inconsistent after delta",
			"symbol", f.symbol, "error", err)
		return
	}
	f.publishBBO()
}

func (f *FeedB) handleEvent(ev domain.Event) {
	f.events <- ev
}

// handleStateChange clears book state on disconnect and arms a fresh
// lazy snapshot fetch, since venue B requires a brand new snapshot after
// any reconnect. wsconn's automatic reconnect redials the same listen-key
// URL; no new listen key is issued on that path.
func (f *FeedB) handleStateChange(state wsconn.State, err error) {
	if state == wsconn.StateDisconnected || state == wsconn.StateReconnecting {
		f.resetBook()
	}
}

func (f *FeedB) resetBook() {
	f.book.Reset()
	f.mu.Lock()
	f.haveBBO = false
	f.snapshotAsked = false
	f.mu.Unlock()
	f.metrics.bookResets.Add(context.Background(), 1)
	f.events <- domain.BookResetEvent{Venue: domain.VenueB}
}

// maybeFetchSnapshot triggers exactly one asynchronous snapshot fetch per
// reset/connect cycle, the first time a delta is observed.
func (f *FeedB) maybeFetchSnapshot() {
	f.mu.Lock()
	if f.snapshotAsked {
		f.mu.Unlock()
		return
	}
	f.snapshotAsked = true
	f.mu.Unlock()

	go f.fetchAndApplySnapshot()
}

func (f *FeedB) fetchAndApplySnapshot() {
	ctx := f.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := f.snapshot.FetchSnapshot(ctx, f.symbol, depthSnapshotLimit)
	if err != nil {
		f.logger.Error(ctx, "venue-b depth snapshot fetch failed", "symbol", f.symbol, "error", err)
		f.mu.Lock()
		f.snapshotAsked = false
		f.mu.Unlock()
		return
	}
	f.metrics.snapshots.Add(ctx, 1)
	if err := f.book.ApplySnapshot(snap); err != nil {
		f.logger.Error(ctx, "venue-b book inconsistent after snapshot", "symbol", f.symbol, "error", err)
		return
	}
	f.publishBBO()
}

func (f *FeedB) publishBBO() {
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
	f.events <- domain.BBOChangeEvent{Venue: domain.VenueB, BBO: bbo}
}
