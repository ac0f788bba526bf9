package domain

import "testing"

func TestPosition_ApplyExecution_HedgeWorkedExample(t *testing.T) {
	p := Position{Unhedged: 30}

	result := p.ApplyExecution(SideBuy, 80, 100)

	if result.Contracts != 1 {
		t.Fatalf("hedge contracts = %d, want 1", result.Contracts)
	}
	if result.Side != SideSell {
		t.Fatalf("hedge side = %v, want sell", result.Side)
	}
	if p.Unhedged != 10 {
		t.Fatalf("unhedged remainder = %d, want 10", p.Unhedged)
	}
	if p.PosA != 80 {
		t.Fatalf("pos_a = %d, want 80", p.PosA)
	}
}

func TestPosition_ApplyExecution_NoHedgeBelowThreshold(t *testing.T) {
	p := Position{Unhedged: 10}

	result := p.ApplyExecution(SideBuy, 20, 100)

	if result.Contracts != 0 {
		t.Fatalf("expected no hedge order, got %d contracts", result.Contracts)
	}
	if p.Unhedged != 30 {
		t.Fatalf("unhedged = %d, want 30", p.Unhedged)
	}
}

func TestPosition_ApplyExecution_SellAccumulatesOppositeHedge(t *testing.T) {
	p := Position{Unhedged: -30}

	result := p.ApplyExecution(SideSell, 80, 100)

	if result.Contracts != -1 {
		t.Fatalf("hedge contracts = %d, want -1", result.Contracts)
	}
	if result.Side != SideBuy {
		t.Fatalf("hedge side = %v, want buy", result.Side)
	}
	if p.Unhedged != -10 {
		t.Fatalf("unhedged remainder = %d, want -10", p.Unhedged)
	}
}

func TestPosition_Recompute(t *testing.T) {
	p := Position{PosA: 50, PosB: -1}
	p.Recompute(100)
	if p.Unhedged != -50 {
		t.Fatalf("unhedged = %d, want -50", p.Unhedged)
	}
}

func TestRoundNearestAwayFromZero(t *testing.T) {
	tests := []struct {
		name string
		n, d int64
		want int64
	}{
		{"exact_tie_positive", 150, 100, 2},
		{"exact_tie_negative", -150, 100, -2},
		{"round_down", 140, 100, 1},
		{"round_up", 160, 100, 2},
		{"zero", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := roundNearestAwayFromZero(tt.n, tt.d)
			if got != tt.want {
				t.Errorf("roundNearestAwayFromZero(%d, %d) = %d, want %d", tt.n, tt.d, got, tt.want)
			}
		})
	}
}
