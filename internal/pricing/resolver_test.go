package pricing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rwbrr/playable-bot/internal/config"
	"github.com/rwbrr/playable-bot/internal/storage"
)

func newTestResolver(t *testing.T) (*Resolver, *storage.Storage) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewResolver(store, config.Prices{Single: 349, Sub: 659}), store
}

func payOrders(t *testing.T, store *storage.Storage, userID int64, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		orderID := fmt.Sprintf("ord_%d_%d", userID, i)
		if err := store.CreateOrder(orderID, userID, "railroad", "chicken_farm", nil); err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if err := store.MarkPaid(orderID, "paid_wallet_single", 349, 0); err != nil {
			t.Fatalf("MarkPaid: %v", err)
		}
	}
}

func TestEffectiveDiscountTakesMax(t *testing.T) {
	resolver, store := newTestResolver(t)
	if err := store.UpsertUser(1, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	// 3 paid orders give 10% loyalty; the 15% category discount wins.
	payOrders(t, store, 1, 3)
	if _, err := store.SetCategoryDiscount("cat_slots", 15); err != nil {
		t.Fatalf("SetCategoryDiscount: %v", err)
	}

	quote, err := resolver.EffectiveDiscount(1, "cat_slots")
	if err != nil {
		t.Fatalf("EffectiveDiscount: %v", err)
	}
	if quote.LoyaltyDiscount != 10 || quote.CategoryDiscount != 15 || quote.Discount != 15 {
		t.Errorf("quote = %+v, want loyalty 10, category 15, effective 15", quote)
	}

	// With a smaller category discount the loyalty discount wins.
	if _, err := store.SetCategoryDiscount("cat_slots", 5); err != nil {
		t.Fatalf("SetCategoryDiscount: %v", err)
	}
	quote, err = resolver.EffectiveDiscount(1, "cat_slots")
	if err != nil {
		t.Fatalf("EffectiveDiscount: %v", err)
	}
	if quote.Discount != 10 {
		t.Errorf("effective discount = %d, want 10", quote.Discount)
	}
}

func TestAmount(t *testing.T) {
	resolver, store := newTestResolver(t)
	if err := store.UpsertUser(2, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	payOrders(t, store, 2, 10) // 20% loyalty

	amount, discount, err := resolver.Amount(2, storage.PayTypeSingle, "")
	if err != nil {
		t.Fatalf("Amount: %v", err)
	}
	if discount != 20 {
		t.Errorf("discount = %d, want 20", discount)
	}
	if amount != 279 { // 349 * 80 / 100, floored
		t.Errorf("amount = %d, want 279", amount)
	}

	amount, _, err = resolver.Amount(2, storage.PayTypeSub, "")
	if err != nil {
		t.Fatalf("Amount: %v", err)
	}
	if amount != 527 { // 659 * 80 / 100, floored
		t.Errorf("amount = %d, want 527", amount)
	}
}

func TestAmountNewUserNoDiscount(t *testing.T) {
	resolver, store := newTestResolver(t)
	if err := store.UpsertUser(3, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	amount, discount, err := resolver.Amount(3, storage.PayTypeSingle, "cat_slots")
	if err != nil {
		t.Fatalf("Amount: %v", err)
	}
	if discount != 0 || amount != 349 {
		t.Errorf("amount = %d discount = %d, want 349 and 0", amount, discount)
	}
}
