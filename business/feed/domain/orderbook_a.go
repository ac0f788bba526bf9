package domain

import "github.com/shopspring/decimal"

// DeltaCategory is one of the three delta kinds venue A's L2 book feed
// reports (spec.md §4.1).
type DeltaCategory string

const (
	DeltaDelete DeltaCategory = "delete"
	DeltaUpdate DeltaCategory = "update"
	DeltaInsert DeltaCategory = "insert"
)

// DeltaA is a single venue-A book delta: one level tagged with the
// category it belongs to.
type DeltaA struct {
	Category DeltaCategory
	Side     Side
	Price    decimal.Decimal
	Size     int64
}

// SnapshotLevelA is one level of a venue-A snapshot message, prior to
// being partitioned and sorted by side.
type SnapshotLevelA struct {
	Side  Side
	Price decimal.Decimal
	Size  int64
}

// BookA is the venue-A order book: flat level lists mutated by
// delete/update/insert delta categories applied strictly in that order.
type BookA struct {
	bids []Level
	asks []Level
}

// NewBookA creates an empty venue-A book.
func NewBookA() *BookA {
	return &BookA{}
}

// ApplySnapshot replaces both sides from a flat, side-tagged level list
// and re-establishes sort order (spec.md §4.1 "Snapshot").
func (b *BookA) ApplySnapshot(levels []SnapshotLevelA) {
	bids := make([]Level, 0, len(levels))
	asks := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.Size <= 0 {
			continue
		}
		lvl := Level{Price: l.Price, Size: l.Size}
		if l.Side == SideBuy {
			bids = append(bids, lvl)
		} else {
			asks = append(asks, lvl)
		}
	}
	sortBidsDesc(bids)
	sortAsksAsc(asks)
	b.bids = bids
	b.asks = asks
}

// ApplyDeltas applies one batch of deltas, in the three categories'
// declared order (delete, update, insert — spec.md §4.1), then validates
// the post-batch consistency invariant.
func (b *BookA) ApplyDeltas(deltas []DeltaA) error {
	for _, d := range deltas {
		if d.Category == DeltaDelete {
			b.applyDelete(d)
		}
	}
	for _, d := range deltas {
		if d.Category == DeltaUpdate {
			b.applyUpdate(d)
		}
	}
	for _, d := range deltas {
		if d.Category == DeltaInsert {
			b.applyInsert(d)
		}
	}
	return checkConsistent(b.bids, b.asks)
}

func (b *BookA) sideSlice(side Side) []Level {
	if side == SideBuy {
		return b.bids
	}
	return b.asks
}

func (b *BookA) setSideSlice(side Side, levels []Level) {
	if side == SideBuy {
		b.bids = levels
	} else {
		b.asks = levels
	}
}

// applyDelete removes the level at d.Price, tolerating an absent price
// (some exchanges report late deletes — spec.md §4.1 "Delete").
func (b *BookA) applyDelete(d DeltaA) {
	levels := b.sideSlice(d.Side)
	idx := findPrice(levels, d.Price)
	if idx < 0 {
		return
	}
	levels = append(levels[:idx], levels[idx+1:]...)
	b.setSideSlice(d.Side, levels)
}

// applyUpdate replaces the size at d.Price, a no-op if the price is
// absent (spec.md §4.1 "Update").
func (b *BookA) applyUpdate(d DeltaA) {
	levels := b.sideSlice(d.Side)
	idx := findPrice(levels, d.Price)
	if idx < 0 {
		return
	}
	levels[idx].Size = d.Size
}

// applyInsert adds the level and re-sorts that side (spec.md §4.1
// "Insert").
func (b *BookA) applyInsert(d DeltaA) {
	levels := b.sideSlice(d.Side)
	levels = append(levels, Level{Price: d.Price, Size: d.Size})
	if d.Side == SideBuy {
		sortBidsDesc(levels)
	} else {
		sortAsksAsc(levels)
	}
	b.setSideSlice(d.Side, levels)
}

// TopOfBook implements Book.
func (b *BookA) TopOfBook() (BBO, bool) {
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return BBO{}, false
	}
	return BBO{BestBidPrice: b.bids[0].Price, BestAskPrice: b.asks[0].Price}, true
}

// Reset implements Book.
func (b *BookA) Reset() {
	b.bids = nil
	b.asks = nil
}
