package domain

import "testing"

func TestOrderSize(t *testing.T) {
	tests := []struct {
		name           string
		side           Side
		posA           int64
		quoteSize      int64
		inventoryLimit int64
		want           int64
	}{
		{"flat_buy_rounds_to_quote_size", SideBuy, 0, 100, 2000, 100},
		{"flat_sell_rounds_to_quote_size", SideSell, 0, 100, 2000, 100},
		{"closes_opposite_short_exactly", SideBuy, -40, 100, 2000, 40},
		{"closes_opposite_long_exactly", SideSell, 40, 100, 2000, 40},
		{"same_side_residual_rounds_to_multiple", SideBuy, 30, 100, 2000, 170},
		{"same_side_sell_residual", SideSell, -30, 100, 2000, 170},
		{"clamped_by_inventory_limit_buy", SideBuy, 1950, 100, 2000, 50},
		{"clamped_by_inventory_limit_sell", SideSell, -1950, 100, 2000, 50},
		{"clamp_to_zero_disarms_slot", SideBuy, 2000, 100, 2000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OrderSize(tt.side, tt.posA, tt.quoteSize, tt.inventoryLimit)
			if got != tt.want {
				t.Errorf("OrderSize(%v, %d, %d, %d) = %d, want %d", tt.side, tt.posA, tt.quoteSize, tt.inventoryLimit, got, tt.want)
			}
		})
	}
}

func TestSlot_FullLifecycle(t *testing.T) {
	var s Slot

	if s.IsOccupied() {
		t.Fatal("new slot should be empty")
	}

	if !s.ArmNew("client-1", dec("100.0"), 100) {
		t.Fatal("ArmNew should succeed from Empty")
	}
	if s.State != SlotInFlightNew {
		t.Fatalf("state = %v, want InFlightNew", s.State)
	}
	if s.ArmNew("client-2", dec("101.0"), 100) {
		t.Fatal("ArmNew should refuse a second arm while in flight")
	}

	s.ConfirmNew()
	if s.State != SlotLive || s.ClientID != "client-1" {
		t.Fatalf("after ConfirmNew: state=%v clientID=%s", s.State, s.ClientID)
	}

	// Drift below UPDATE_INTERVAL just counts.
	if s.NeedsAmend(dec("100.5"), 3) {
		t.Fatal("first drifted tick should not amend yet")
	}
	if s.NeedsAmend(dec("100.5"), 3) {
		t.Fatal("second drifted tick should not amend yet")
	}
	if !s.NeedsAmend(dec("100.5"), 3) {
		t.Fatal("third drifted tick should arm the amend")
	}
	if s.State != SlotInFlightAmend || s.UpdateCounter != 0 {
		t.Fatalf("after amend arm: state=%v counter=%d", s.State, s.UpdateCounter)
	}

	s.ConfirmAmend()
	if s.State != SlotLive {
		t.Fatalf("after ConfirmAmend: state=%v", s.State)
	}

	s.FillToZero()
	if s.IsOccupied() {
		t.Fatal("slot should be empty after a fill to zero")
	}
	if s.ClientID != "" {
		t.Fatal("client id should be cleared on fill to zero")
	}
}

func TestSlot_RejectNewReturnsToEmpty(t *testing.T) {
	var s Slot
	s.ArmNew("client-1", dec("100.0"), 100)
	s.RejectNew()
	if s.IsOccupied() {
		t.Fatal("slot should be empty after RejectNew")
	}
}

func TestSlot_CancelClearsLiveOrder(t *testing.T) {
	var s Slot
	s.ArmNew("client-1", dec("100.0"), 100)
	s.ConfirmNew()
	s.Cancel()
	if s.IsOccupied() || s.ClientID != "" {
		t.Fatal("slot should be fully cleared after Cancel")
	}
}

func TestSlot_NeedsAmendIgnoredWhenNotLive(t *testing.T) {
	var s Slot
	if s.NeedsAmend(dec("100.0"), 3) {
		t.Fatal("empty slot should never need an amend")
	}
}
