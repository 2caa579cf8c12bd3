package pricing

import "testing"

func TestLoyaltyDiscount(t *testing.T) {
	tests := []struct {
		ordersPaid int
		want       int
	}{
		{0, 0},
		{1, 0},
		{2, 0},
		{3, 10},
		{9, 10},
		{10, 20},
		{25, 20},
	}

	for _, tt := range tests {
		if got := LoyaltyDiscount(tt.ordersPaid); got != tt.want {
			t.Errorf("LoyaltyDiscount(%d) = %d, want %d", tt.ordersPaid, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		base     int
		discount int
		want     int
	}{
		{349, 0, 349},
		{100, 10, 90},
		{99, 10, 89}, // floors, never rounds up
		{659, 20, 527},
		{349, 90, 34},
		{349, 100, 0},
	}

	for _, tt := range tests {
		if got := Price(tt.base, tt.discount); got != tt.want {
			t.Errorf("Price(%d, %d) = %d, want %d", tt.base, tt.discount, got, tt.want)
		}
	}
}
