package domain

// SnapshotB is a venue-B REST depth snapshot (spec.md §4.2).
type SnapshotB struct {
	Bids         []Level
	Asks         []Level
	LastUpdateID int64
}

// DeltaB is a venue-B incremental depth update, carrying the first/final
// update-id pair used for snapshot reconciliation (spec.md §4.2).
type DeltaB struct {
	FirstUpdateID int64
	FinalUpdateID int64
	Bids          []Level
	Asks          []Level
}

// BookB is the venue-B order book: Binance-style incremental depth with
// buffered-delta snapshot reconciliation.
//
// Lifecycle: deltas arriving before the snapshot are buffered in arrival
// order (bufferedBeforeSnapshot). On ApplySnapshot, every buffered delta
// whose FinalUpdateID is strictly less than the snapshot's LastUpdateID is
// discarded; the remainder is applied in buffer order; then the book is
// "live" and subsequent ApplyDelta calls apply immediately.
type BookB struct {
	bids []Level
	asks []Level

	live           bool
	lastAppliedID  int64
	bufferedDeltas []DeltaB
}

// NewBookB creates an empty, not-yet-live venue-B book. Deltas received
// before the first ApplySnapshot call are buffered.
func NewBookB() *BookB {
	return &BookB{}
}

// ApplyDelta applies or buffers a delta depending on book lifecycle state.
func (b *BookB) ApplyDelta(d DeltaB) error {
	if !b.live {
		b.bufferedDeltas = append(b.bufferedDeltas, d)
		return nil
	}
	b.applyLevels(d.Bids, d.Asks)
	b.lastAppliedID = d.FinalUpdateID
	return checkConsistent(b.bids, b.asks)
}

// ApplySnapshot performs the exchange-mandated reconciliation: discard
// every buffered delta whose FinalUpdateID < snapshot.LastUpdateID
// (strict comparison, per spec.md §4.2), replace the book from the
// snapshot, then apply the surviving buffered deltas in order, then mark
// the book live.
func (b *BookB) ApplySnapshot(s SnapshotB) error {
	bids := append([]Level(nil), s.Bids...)
	asks := append([]Level(nil), s.Asks...)
	sortBidsDesc(bids)
	sortAsksAsc(asks)
	b.bids = bids
	b.asks = asks

	kept := b.bufferedDeltas[:0]
	for _, d := range b.bufferedDeltas {
		if d.FinalUpdateID < s.LastUpdateID {
			continue
		}
		kept = append(kept, d)
	}
	for _, d := range kept {
		b.applyLevels(d.Bids, d.Asks)
		b.lastAppliedID = d.FinalUpdateID
	}
	b.bufferedDeltas = nil
	b.live = true
	b.lastAppliedID = s.LastUpdateID
	if len(kept) > 0 {
		b.lastAppliedID = kept[len(kept)-1].FinalUpdateID
	}

	return checkConsistent(b.bids, b.asks)
}

// applyLevels applies size==0-deletes-else-upsert semantics for both
// sides (spec.md §4.2 "Per-level semantics").
func (b *BookB) applyLevels(bids, asks []Level) {
	b.bids = upsertSide(b.bids, bids, true)
	b.asks = upsertSide(b.asks, asks, false)
}

func upsertSide(side []Level, updates []Level, descending bool) []Level {
	for _, u := range updates {
		idx := findPrice(side, u.Price)
		switch {
		case u.Size == 0:
			if idx >= 0 {
				side = append(side[:idx], side[idx+1:]...)
			}
		case idx >= 0:
			side[idx].Size = u.Size
		default:
			side = append(side, u)
		}
	}
	if descending {
		sortBidsDesc(side)
	} else {
		sortAsksAsc(side)
	}
	return side
}

// TopOfBook implements Book.
func (b *BookB) TopOfBook() (BBO, bool) {
	if !b.live || len(b.bids) == 0 || len(b.asks) == 0 {
		return BBO{}, false
	}
	return BBO{BestBidPrice: b.bids[0].Price, BestAskPrice: b.asks[0].Price}, true
}

// Reset clears the book and drops its "live" status: a fresh snapshot must
// be re-requested and deltas buffered again until it arrives (spec.md
// §4.2 "Book reset", §4.6 reconnect policy).
func (b *BookB) Reset() {
	b.bids = nil
	b.asks = nil
	b.live = false
	b.lastAppliedID = 0
	b.bufferedDeltas = nil
}

// LastUpdateID returns the id of the most recently applied delta or
// snapshot, for diagnostics.
func (b *BookB) LastUpdateID() int64 { return b.lastAppliedID }
