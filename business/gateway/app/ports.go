// Package app implements the gateway bounded context: asynchronous,
// signed REST dispatch to both venues with per-operation in-flight guards
// and rate-limit backoff, reconciled back into the strategy context
// through the shared GatewayEvent channel.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	strategyDomain "github.com/fd1az/xvenue-mm/business/strategy/domain"
)

// VenueAOrderRequest is a new-order dispatch for venue A.
type VenueAOrderRequest struct {
	ClientID string
	Side     strategyDomain.Side
	Price    decimal.Decimal
	Size     int64
}

// VenueAAmendRequest is a price-amend dispatch for a live venue-A order.
type VenueAAmendRequest struct {
	ClientID string
	Price    decimal.Decimal
}

// VenueACancelRequest is a cancel dispatch for a live venue-A order.
// Venue A's only cancel endpoint (cancelAll, spec.md §6) cancels every
// resting order for the symbol rather than one order_link_id; ClientID is
// carried anyway so the REST client can trace/log which slot triggered it.
type VenueACancelRequest struct {
	ClientID string
}

// VenueAResponse is the normalized outcome of a venue-A REST call
// (spec.md §4.4 step 4: success / non-success / rate-limited).
type VenueAResponse struct {
	Success     bool
	RateLimited bool
	ResetAt     time.Time
}

// VenueARESTClient issues signed order requests against venue A.
type VenueARESTClient interface {
	PlaceOrder(ctx context.Context, req VenueAOrderRequest) (VenueAResponse, error)
	AmendOrder(ctx context.Context, req VenueAAmendRequest) (VenueAResponse, error)
	CancelOrder(ctx context.Context, req VenueACancelRequest) (VenueAResponse, error)
}

// VenueBMarketOrderRequest is a hedge market-order dispatch for venue B.
type VenueBMarketOrderRequest struct {
	Side strategyDomain.Side
	Size int64
}

// VenueBResponse is the normalized outcome of a venue-B REST call.
type VenueBResponse struct {
	Success     bool
	RateLimited bool
	ResetAt     time.Time
}

// VenueBRESTClient issues signed hedge market orders against venue B.
type VenueBRESTClient interface {
	PlaceMarketOrder(ctx context.Context, req VenueBMarketOrderRequest) (VenueBResponse, error)
}
