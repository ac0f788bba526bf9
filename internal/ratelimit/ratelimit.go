// Package ratelimit throttles the Gateway's outbound REST dispatch to
// each venue's own request budget (spec.md §4.4, §6), ahead of whatever
// the venue's API itself enforces. It wraps golang.org/x/time/rate, the
// same token-bucket library the rest of the pack reaches for.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter paces dispatch to one venue's REST endpoint.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter from a per-minute budget — venue A and venue B's
// gateway REST clients each build one from their own documented request
// cap (business/gateway/infra/venuea, venueb). The burst is 10% of the
// per-minute rate, floored at 1, so a cold start can front-load a few
// requests without waiting out a full token refill.
func New(requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a token is available or ctx is cancelled. The
// Gateway calls this before every signed REST dispatch
// (business/gateway/infra/venuea/rest.go, venueb/rest.go); a cancelled
// ctx here surfaces as apperror.CodeRateLimited to the caller.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
