package telegram

import (
	"context"
	"testing"

	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/storage"
)

func TestManualApproveRewardsReferrerOnce(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	if err := b.storage.UpsertUser(7, "buyer", "Buyer"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := b.storage.UpsertUser(8, "referrer", "Referrer"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if _, err := b.storage.SetReferrer(7, 8); err != nil {
		t.Fatalf("SetReferrer: %v", err)
	}
	if err := b.storage.CreateOrder("ord_7_1", 7, "railroad", "chicken_farm", map[string]any{"geoId": "en_usd"}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := b.storage.UpdateOrderConfig("ord_7_1", map[string]any{
		"manualPayment": map[string]any{
			"provider": "direct_wallet",
			"type":     "single",
			"amount":   100,
			"discount": 0,
			"state":    "pending_admin_review",
		},
	}); err != nil {
		t.Fatalf("UpdateOrderConfig: %v", err)
	}

	cb := &models.CallbackQuery{ID: "1", From: models.User{ID: testAdminID}}

	// A second tap on the approve button must not pay the referral again.
	b.handleAdminManualApprove(ctx, cb, "ord_7_1")
	b.handleAdminManualApprove(ctx, cb, "ord_7_1")

	order, err := b.storage.GetOrder("ord_7_1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Status != "paid_manual_single" {
		t.Errorf("status = %q, want paid_manual_single", order.Status)
	}
	manual := order.ManualPayment()
	if manual == nil || manual.State != "approved" {
		t.Errorf("manual payment = %+v, want state approved", manual)
	}

	stats, err := b.storage.GetUserStats(8)
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	want := float64(100) * storage.ReferralRewardRate
	if stats.WalletBalance != want {
		t.Errorf("referrer balance = %v, want %v (single reward)", stats.WalletBalance, want)
	}
}

func TestManualApproveIgnoresNonAdmin(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	if err := b.storage.UpsertUser(7, "buyer", "Buyer"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := b.storage.CreateOrder("ord_7_1", 7, "railroad", "chicken_farm", nil); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	cb := &models.CallbackQuery{ID: "1", From: models.User{ID: 7}}
	b.handleAdminManualApprove(ctx, cb, "ord_7_1")

	order, err := b.storage.GetOrder("ord_7_1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.IsPaid() {
		t.Errorf("status = %q, a non-admin tap must not mark the order paid", order.Status)
	}
}
