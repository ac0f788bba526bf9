package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBookA_SnapshotThenDeltas(t *testing.T) {
	b := NewBookA()
	b.ApplySnapshot([]SnapshotLevelA{
		{Side: SideBuy, Price: dec("100.0"), Size: 10},
		{Side: SideBuy, Price: dec("99.5"), Size: 5},
		{Side: SideSell, Price: dec("100.5"), Size: 8},
	})

	bbo, ok := b.TopOfBook()
	if !ok {
		t.Fatalf("expected top of book available")
	}
	if !bbo.BestBidPrice.Equal(dec("100.0")) || !bbo.BestAskPrice.Equal(dec("100.5")) {
		t.Fatalf("unexpected bbo: %+v", bbo)
	}

	if err := b.ApplyDeltas([]DeltaA{
		{Category: DeltaUpdate, Side: SideBuy, Price: dec("100.0"), Size: 20},
		{Category: DeltaInsert, Side: SideSell, Price: dec("100.25"), Size: 3},
		{Category: DeltaDelete, Side: SideBuy, Price: dec("99.5")},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbo, _ = b.TopOfBook()
	if !bbo.BestAskPrice.Equal(dec("100.25")) {
		t.Fatalf("expected insert to become new best ask, got %s", bbo.BestAskPrice)
	}
}

func TestBookA_DeleteOrUpdateOnAbsentPriceIsNoop(t *testing.T) {
	b := NewBookA()
	b.ApplySnapshot([]SnapshotLevelA{
		{Side: SideBuy, Price: dec("100.0"), Size: 10},
		{Side: SideSell, Price: dec("100.5"), Size: 8},
	})

	err := b.ApplyDeltas([]DeltaA{
		{Category: DeltaDelete, Side: SideBuy, Price: dec("50.0")},
		{Category: DeltaUpdate, Side: SideSell, Price: dec("999.0"), Size: 5},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbo, _ := b.TopOfBook()
	if !bbo.BestBidPrice.Equal(dec("100.0")) || !bbo.BestAskPrice.Equal(dec("100.5")) {
		t.Fatalf("no-op deltas should leave book unchanged, got %+v", bbo)
	}
}

func TestBookA_InconsistentAfterDeltaBatch(t *testing.T) {
	b := NewBookA()
	b.ApplySnapshot([]SnapshotLevelA{
		{Side: SideBuy, Price: dec("100.0"), Size: 10},
		{Side: SideSell, Price: dec("100.5"), Size: 8},
	})

	err := b.ApplyDeltas([]DeltaA{
		{Category: DeltaInsert, Side: SideBuy, Price: dec("101.0"), Size: 1},
	})
	if err == nil {
		t.Fatalf("expected BookInconsistent when bid crosses ask")
	}
}

// scenario 1 from spec.md §8: deltas with u in {10,11,12,13} then a
// snapshot with lastUpdateId=12 must drop deltas 10 and 11 and apply 12
// and 13.
func TestBookB_SnapshotReconciliation_DropsStaleDeltas(t *testing.T) {
	b := NewBookB()

	// u=10: would move best bid to 100.2 if applied (it must be dropped)
	b.ApplyDelta(DeltaB{FirstUpdateID: 10, FinalUpdateID: 10, Bids: []Level{{Price: dec("100.2"), Size: 1}}})
	// u=11: would move best bid to 100.3 if applied (must be dropped)
	b.ApplyDelta(DeltaB{FirstUpdateID: 11, FinalUpdateID: 11, Bids: []Level{{Price: dec("100.3"), Size: 1}}})
	// u=12: must be applied (>= lastUpdateId)
	b.ApplyDelta(DeltaB{FirstUpdateID: 12, FinalUpdateID: 12, Bids: []Level{{Price: dec("92"), Size: 1}}})
	// u=13: must be applied
	b.ApplyDelta(DeltaB{FirstUpdateID: 13, FinalUpdateID: 13, Asks: []Level{{Price: dec("100.5"), Size: 1}}})

	err := b.ApplySnapshot(SnapshotB{
		LastUpdateID: 12,
		Bids:         []Level{{Price: dec("100"), Size: 5}},
		Asks:         []Level{{Price: dec("101"), Size: 5}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbo, ok := b.TopOfBook()
	if !ok {
		t.Fatalf("expected top of book available")
	}
	// u=12 upserts bid 92 (kept alongside snapshot's 100 -> best bid stays 100)
	// u=13 upserts ask 100.5, which becomes the new best ask.
	if !bbo.BestBidPrice.Equal(dec("100")) {
		t.Fatalf("expected best bid 100 (u=10,11 dropped), got %s", bbo.BestBidPrice)
	}
	if !bbo.BestAskPrice.Equal(dec("100.5")) {
		t.Fatalf("expected best ask 100.5 (u=13 applied), got %s", bbo.BestAskPrice)
	}
}

func TestBookB_DeltasBufferedBeforeSnapshot(t *testing.T) {
	b := NewBookB()
	if _, ok := b.TopOfBook(); ok {
		t.Fatalf("book should not be live before first snapshot")
	}

	err := b.ApplyDelta(DeltaB{FirstUpdateID: 1, FinalUpdateID: 1, Bids: []Level{{Price: dec("10"), Size: 1}}})
	if err != nil {
		t.Fatalf("buffered delta should never error: %v", err)
	}

	if err := b.ApplySnapshot(SnapshotB{
		LastUpdateID: 1,
		Bids:         []Level{{Price: dec("100"), Size: 1}},
		Asks:         []Level{{Price: dec("101"), Size: 1}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbo, ok := b.TopOfBook()
	if !ok || !bbo.BestBidPrice.Equal(dec("100")) {
		t.Fatalf("expected book live with best bid 100, got %+v ok=%v", bbo, ok)
	}
}

func TestBookB_ZeroSizeDeletesLevel(t *testing.T) {
	b := NewBookB()
	b.ApplySnapshot(SnapshotB{
		LastUpdateID: 1,
		Bids:         []Level{{Price: dec("100"), Size: 5}, {Price: dec("99"), Size: 5}},
		Asks:         []Level{{Price: dec("101"), Size: 5}},
	})

	if err := b.ApplyDelta(DeltaB{FirstUpdateID: 2, FinalUpdateID: 2,
		Bids: []Level{{Price: dec("100"), Size: 0}}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bbo, _ := b.TopOfBook()
	if !bbo.BestBidPrice.Equal(dec("99")) {
		t.Fatalf("expected best bid to fall to 99 after 100 deleted, got %s", bbo.BestBidPrice)
	}
}

func TestBookB_Reset(t *testing.T) {
	b := NewBookB()
	b.ApplySnapshot(SnapshotB{LastUpdateID: 1,
		Bids: []Level{{Price: dec("100"), Size: 1}},
		Asks: []Level{{Price: dec("101"), Size: 1}}})

	b.Reset()
	if _, ok := b.TopOfBook(); ok {
		t.Fatalf("expected book to be non-live after reset")
	}

	// deltas after reset must buffer again, not apply live
	b.ApplyDelta(DeltaB{FirstUpdateID: 2, FinalUpdateID: 2, Bids: []Level{{Price: dec("1"), Size: 1}}})
	if _, ok := b.TopOfBook(); ok {
		t.Fatalf("expected book still not live with only a buffered delta")
	}
}

func TestBBO_EqualAndChangeDetection(t *testing.T) {
	a := BBO{BestBidPrice: dec("100"), BestAskPrice: dec("100.5")}
	b := BBO{BestBidPrice: dec("100"), BestAskPrice: dec("100.5")}
	if !a.Equal(b) {
		t.Fatalf("expected equal BBOs")
	}
	c := BBO{BestBidPrice: dec("100"), BestAskPrice: dec("101")}
	if a.Equal(c) {
		t.Fatalf("expected different BBOs to compare unequal")
	}
}
