package app

import (
	"context"

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/internal/logger"
)

// eventBufferSize bounds the shared event channel. A full channel applies
// backpressure onto both venues' read-loop goroutines rather than
// dropping events (spec.md §9 concurrency model).
const eventBufferSize = 256

// Feed owns both venues' demux state and exposes the single event channel
// the strategy goroutine consumes (spec.md §9: "one Strategy goroutine
// owning all mutable strategy state via a single event channel").
type Feed struct {
	a *FeedA
	b *FeedB

	events chan domain.Event
}

// NewFeed wires a Feed from already-constructed venue clients.
func NewFeed(symbol string, clientA VenueAClient, clientB VenueBClient, snapshotB SnapshotFetcher, log logger.LoggerInterface) *Feed {
	events := make(chan domain.Event, eventBufferSize)
	return &Feed{
		a:      NewFeedA(symbol, clientA, events, log),
		b:      NewFeedB(symbol, clientB, snapshotB, events, log),
		events: events,
	}
}

// Events returns the channel the strategy goroutine reads from.
func (f *Feed) Events() <-chan domain.Event {
	return f.events
}

// Start connects both venue clients.
func (f *Feed) Start(ctx context.Context) error {
	if err := f.a.Start(ctx); err != nil {
		return err
	}
	if err := f.b.Start(ctx); err != nil {
		_ = f.a.Stop()
		return err
	}
	return nil
}

// Stop disconnects both venue clients.
func (f *Feed) Stop() error {
	errA := f.a.Stop()
	errB := f.b.Stop()
	if errA != nil {
		return errA
	}
	return errB
}
