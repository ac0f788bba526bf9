package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFloorToTick(t *testing.T) {
	tests := []struct {
		name  string
		price string
		tick  string
		want  string
	}{
		{"exact_multiple", "100.5", "0.5", "100.5"},
		{"rounds_down", "100.7", "0.5", "100.5"},
		{"rounds_down_whole", "100.4", "0.5", "100.0"},
		{"zero", "0", "0.5", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FloorToTick(dec(tt.price), dec(tt.tick))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("FloorToTick(%s, %s) = %s, want %s", tt.price, tt.tick, got, tt.want)
			}
		})
	}
}

func TestCeilToTick(t *testing.T) {
	tests := []struct {
		name  string
		price string
		tick  string
		want  string
	}{
		{"exact_multiple", "100.5", "0.5", "100.5"},
		{"rounds_up", "100.1", "0.5", "100.5"},
		{"rounds_up_whole", "100.6", "0.5", "101.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CeilToTick(dec(tt.price), dec(tt.tick))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("CeilToTick(%s, %s) = %s, want %s", tt.price, tt.tick, got, tt.want)
			}
		})
	}
}

// TestComputeQuoteTargets_AggressionWorkedExample mirrors the worked
// example: bid_A=100.0 ask_A=100.5 bid_B=100.2 ask_B=100.4 should settle on
// a final quote of (100.0, 100.5).
func TestComputeQuoteTargets_AggressionWorkedExample(t *testing.T) {
	bboA := BBO{BestBidPrice: dec("100.0"), BestAskPrice: dec("100.5")}
	bboB := BBO{BestBidPrice: dec("100.2"), BestAskPrice: dec("100.4")}
	margins := QuoteMargins{Fee: dec("0.00015"), Profit: dec("0.00005"), Risk: dec("0.00015")}

	got := ComputeQuoteTargets(bboA, bboB, margins, dec("0.5"), decimal.Zero)

	if !got.Bid.Equal(dec("100.0")) {
		t.Errorf("Bid = %s, want 100.0", got.Bid)
	}
	if !got.Ask.Equal(dec("100.5")) {
		t.Errorf("Ask = %s, want 100.5", got.Ask)
	}
}

func TestComputeQuoteTargets_SymmetricAggression(t *testing.T) {
	// Mirror image: venue A priced above venue B.
	bboA := BBO{BestBidPrice: dec("100.5"), BestAskPrice: dec("101.0")}
	bboB := BBO{BestBidPrice: dec("100.2"), BestAskPrice: dec("100.4")}
	margins := QuoteMargins{Fee: dec("0.00015"), Profit: dec("0.00005"), Risk: dec("0.00015")}

	got := ComputeQuoteTargets(bboA, bboB, margins, dec("0.5"), decimal.Zero)

	// Ask must never drop below bid_A + tick.
	if got.Ask.LessThan(bboA.BestBidPrice.Add(dec("0.5"))) {
		t.Errorf("Ask = %s crosses venue A's own bid", got.Ask)
	}
	// Bid must never exceed floor_to_tick(bid_B).
	if got.Bid.GreaterThan(FloorToTick(bboB.BestBidPrice, dec("0.5"))) {
		t.Errorf("Bid = %s exceeds venue B's bid ceiling", got.Bid)
	}
}

func TestComputeQuoteTargets_InventorySkewNeverCrosses(t *testing.T) {
	bboA := BBO{BestBidPrice: dec("100.0"), BestAskPrice: dec("100.5")}
	bboB := BBO{BestBidPrice: dec("100.0"), BestAskPrice: dec("100.5")}
	margins := QuoteMargins{Fee: dec("0.0001"), Profit: dec("0.0001"), Risk: dec("0.0001")}

	// Full long skew should never invert bid/ask.
	got := ComputeQuoteTargets(bboA, bboB, margins, dec("0.5"), dec("1"))

	if !got.Ask.GreaterThan(got.Bid) {
		t.Errorf("skewed quote crossed: bid=%s ask=%s", got.Bid, got.Ask)
	}
}

func TestComputeQuoteTargets_NoSkewWhenFlat(t *testing.T) {
	bboA := BBO{BestBidPrice: dec("100.0"), BestAskPrice: dec("100.5")}
	bboB := BBO{BestBidPrice: dec("100.0"), BestAskPrice: dec("100.5")}
	margins := QuoteMargins{Fee: dec("0.0001"), Profit: dec("0.0001"), Risk: dec("0.0001")}

	flat := ComputeQuoteTargets(bboA, bboB, margins, dec("0.5"), decimal.Zero)
	alsoFlat := ComputeQuoteTargets(bboA, bboB, margins, dec("0.5"), decimal.Zero)

	if !flat.Bid.Equal(alsoFlat.Bid) || !flat.Ask.Equal(alsoFlat.Ask) {
		t.Fatalf("expected deterministic output for identical input")
	}
	// mid 100.25 with a 0.0003 margin quantizes to (100.0, 100.5); a zero
	// skew leaves that quote unshifted.
	if !flat.Bid.Equal(dec("100.0")) || !flat.Ask.Equal(dec("100.5")) {
		t.Fatalf("expected unskewed quote (100.0, 100.5), got bid=%s ask=%s", flat.Bid, flat.Ask)
	}
}
