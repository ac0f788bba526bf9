// Package app contains application services and port definitions for the
// feed context: demultiplexing each venue's wire protocol into book state
// and a uniform event stream (spec.md §4.3).
package app

import (
	"context"

	domain "github.com/fd1az/xvenue-mm/business/feed/domain"
	"github.com/fd1az/xvenue-mm/internal/wsconn"
)

// VenueAClient is the capability interface business/feed/infra/venuea.Client
// satisfies: an authenticated connection carrying the L2 order book,
// order, execution, and position topics.
type VenueAClient interface {
	OnSnapshot(handler func([]domain.SnapshotLevelA))
	OnDelta(handler func([]domain.DeltaA))
	OnEvent(handler func(domain.Event))
	OnStateChange(handler func(wsconn.State, error))
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// VenueBClient is the capability interface business/feed/infra/venueb.Client
// satisfies: the listen-key user data stream with the symbol's depth diff
// stream subscribed onto it.
type VenueBClient interface {
	OnDepthDelta(handler func(domain.DeltaB))
	OnEvent(handler func(domain.Event))
	OnStateChange(handler func(wsconn.State, error))
	Connect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SnapshotFetcher retrieves an authoritative venue-B REST depth snapshot,
// used to (re)seed BookB after it goes live or is reset (spec.md §4.2
// "Snapshot fetch", §4.6 reconnect policy).
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, symbol string, limit int) (domain.SnapshotB, error)
}
