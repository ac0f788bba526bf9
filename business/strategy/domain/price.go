// Package domain contains the strategy layer's core types: quote pricing,
// order sizing, the per-slot order lifecycle, and the hedging accumulator.
package domain

import (
	"github.com/shopspring/decimal"

	feedDomain "github.com/fd1az/xvenue-mm/business/feed/domain"
)

// Side and BBO are feed-domain types; the strategy context reasons about
// the same book-side and top-of-book concepts as the feed context.
type Side = feedDomain.Side
type BBO = feedDomain.BBO

const (
	SideBuy  = feedDomain.SideBuy
	SideSell = feedDomain.SideSell
)

var (
	one = decimal.NewFromInt(1)
	two = decimal.NewFromInt(2)
)

// FloorToTick rounds price down to the nearest multiple of tick.
func FloorToTick(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Floor().Mul(tick)
}

// CeilToTick rounds price up to the nearest multiple of tick.
func CeilToTick(price, tick decimal.Decimal) decimal.Decimal {
	return price.Div(tick).Ceil().Mul(tick)
}

// QuoteMargins holds the fee, profit, and risk fractions added around fair
// value when computing quote targets.
type QuoteMargins struct {
	Fee    decimal.Decimal
	Profit decimal.Decimal
	Risk   decimal.Decimal
}

// Total returns Fee+Profit+Risk.
func (m QuoteMargins) Total() decimal.Decimal {
	return m.Fee.Add(m.Profit).Add(m.Risk)
}

// QuoteTargets is the strategy's computed bid/ask target price for venue A.
type QuoteTargets struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

// ComputeQuoteTargets derives venue A's target bid/ask from both venues'
// top-of-book: fair value is the average of each venue's own mid, offset by
// the fee/profit/risk margin and quantized to venue A's tick. When the two
// venues' mids disagree, the quote is pulled toward the cheaper venue so it
// never crosses venue A's own current best (the "aggression adjustment").
// inventorySkew then shifts both prices in proportion to current inventory
// utilization, capped so the quote never crosses venue A's opposite best.
func ComputeQuoteTargets(bboA, bboB BBO, margins QuoteMargins, tick, inventorySkew decimal.Decimal) QuoteTargets {
	midA := bboA.BestBidPrice.Add(bboA.BestAskPrice).Div(two)
	midB := bboB.BestBidPrice.Add(bboB.BestAskPrice).Div(two)
	mid := midA.Add(midB).Div(two)

	total := margins.Total()
	bid := FloorToTick(mid.Mul(one.Sub(total)), tick)
	ask := CeilToTick(mid.Mul(one.Add(total)), tick)

	switch {
	case midA.LessThan(midB):
		// Venue A is priced below venue B: don't cross our own ask, and
		// don't quote an ask cheaper than venue B's.
		if maxBid := bboA.BestAskPrice.Sub(tick); bid.GreaterThan(maxBid) {
			bid = maxBid
		}
		if minAsk := CeilToTick(bboB.BestAskPrice, tick); ask.LessThan(minAsk) {
			ask = minAsk
		}
	case midA.GreaterThan(midB):
		// Symmetric: venue A is priced above venue B.
		if minAsk := bboA.BestBidPrice.Add(tick); ask.LessThan(minAsk) {
			ask = minAsk
		}
		if maxBid := FloorToTick(bboB.BestBidPrice, tick); bid.GreaterThan(maxBid) {
			bid = maxBid
		}
	}

	return applyInventorySkew(QuoteTargets{Bid: bid, Ask: ask}, inventorySkew, tick, bboA)
}

// applyInventorySkew shifts both prices down when long (discouraging
// further bid fills, encouraging the ask to trade) and up when short, in
// proportion to skew. The shifted bid is capped at venue A's best ask minus
// one tick and the shifted ask floored at venue A's best bid plus one tick.
// It refuses the shift entirely if it would cross the bid/ask through each
// other.
func applyInventorySkew(q QuoteTargets, skew, tick decimal.Decimal, bboA BBO) QuoteTargets {
	if skew.IsZero() {
		return q
	}
	amount := skew.Mul(maxSkewTicks).Mul(tick)
	bid := q.Bid.Sub(amount)
	ask := q.Ask.Sub(amount)
	if maxBid := bboA.BestAskPrice.Sub(tick); bid.GreaterThan(maxBid) {
		bid = maxBid
	}
	if minAsk := bboA.BestBidPrice.Add(tick); ask.LessThan(minAsk) {
		ask = minAsk
	}
	if !ask.GreaterThan(bid) {
		return q
	}
	return QuoteTargets{Bid: bid, Ask: ask}
}

// maxSkewTicks bounds the inventory skew to a handful of ticks at full
// inventory utilization.
var maxSkewTicks = decimal.NewFromInt(4)
