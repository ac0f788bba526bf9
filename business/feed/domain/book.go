// Package domain contains the feed layer's core types: the two order book
// reconstructions, BBO change detection, and the event types the feed
// demuxes wire messages into.
package domain

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fd1az/xvenue-mm/internal/apperror"
)

// Side distinguishes a book side or an order side.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Level is a single order book price level. Sizes are contract counts and
// are always strictly positive while present in a book — a zero-size
// delta deletes the level instead of being stored as zero.
type Level struct {
	Price decimal.Decimal
	Size  int64
}

// BBO is the best-bid/best-offer tuple.
type BBO struct {
	BestBidPrice decimal.Decimal
	BestAskPrice decimal.Decimal
}

// Equal reports whether two BBOs carry the same prices.
func (b BBO) Equal(o BBO) bool {
	return b.BestBidPrice.Equal(o.BestBidPrice) && b.BestAskPrice.Equal(o.BestAskPrice)
}

// IsZero reports whether the BBO has never been set.
func (b BBO) IsZero() bool {
	return b.BestBidPrice.IsZero() && b.BestAskPrice.IsZero()
}

// Book is the capability interface both venue order book implementations
// satisfy (spec.md §9: "tagged variant plus a capability interface").
type Book interface {
	// TopOfBook returns the current best bid/ask. ok is false until both
	// sides hold at least one level.
	TopOfBook() (bbo BBO, ok bool)
	// Reset clears the book, e.g. on WebSocket disconnect (spec.md §4.2,
	// §4.6 BookReset).
	Reset()
}

// sortBidsDesc sorts levels descending by price (best bid first).
func sortBidsDesc(levels []Level) {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price.GreaterThan(levels[j].Price) })
}

// sortAsksAsc sorts levels ascending by price (best ask first).
func sortAsksAsc(levels []Level) {
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price.LessThan(levels[j].Price) })
}

// findPrice returns the index of price within levels, or -1.
func findPrice(levels []Level, price decimal.Decimal) int {
	for i, l := range levels {
		if l.Price.Equal(price) {
			return i
		}
	}
	return -1
}

// checkConsistent validates the spec.md §4.1 invariant: if both sides are
// non-empty after a delta batch, the top bid must be strictly below the
// top ask.
func checkConsistent(bids, asks []Level) error {
	if len(bids) == 0 || len(asks) == 0 {
		return nil
	}
	if !bids[0].Price.LessThan(asks[0].Price) {
		return apperror.New(apperror.CodeBookInconsistent,
			apperror.WithContext("top bid is not strictly below top ask after delta batch"))
	}
	return nil
}
