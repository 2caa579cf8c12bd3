package watcher

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rwbrr/playable-bot/internal/cryptopay"
	"github.com/rwbrr/playable-bot/internal/storage"
)

type fakeDeliverer struct {
	delivered []string
}

func (f *fakeDeliverer) DeliverPaidOrder(ctx context.Context, userID int64, order *storage.Order) {
	f.delivered = append(f.delivered, order.OrderID)
}

func TestCheckInvoicesFinalizesPaid(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer store.Close()

	if err := store.UpsertUser(1, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := store.CreateOrder("ord_1_1", 1, "railroad", "chicken_farm", map[string]any{"geoId": "en_usd"}); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := store.UpdateOrderConfig("ord_1_1", map[string]any{
		"payment": map[string]any{
			"provider":  "crypto_pay",
			"invoiceId": 555,
			"payUrl":    "https://t.me/CryptoBot?start=IVx",
			"type":      "single",
			"amount":    349,
			"discount":  0,
		},
	}); err != nil {
		t.Fatalf("UpdateOrderConfig: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"items": []map[string]any{
					{"invoice_id": 555, "status": "paid", "pay_url": "https://t.me/CryptoBot?start=IVx"},
				},
			},
		})
	}))
	defer srv.Close()

	gateway := cryptopay.NewClient(srv.URL, "test-token", "USD", "")
	deliverer := &fakeDeliverer{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(store, gateway, deliverer, log)

	if err := w.checkInvoices(context.Background()); err != nil {
		t.Fatalf("checkInvoices: %v", err)
	}

	order, err := store.GetOrder("ord_1_1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Status != "paid_crypto_single" {
		t.Errorf("status = %q, want paid_crypto_single", order.Status)
	}
	if len(deliverer.delivered) != 1 || deliverer.delivered[0] != "ord_1_1" {
		t.Errorf("delivered = %v, want [ord_1_1]", deliverer.delivered)
	}

	// A second pass finds no pending invoice and delivers nothing new.
	if err := w.checkInvoices(context.Background()); err != nil {
		t.Fatalf("second checkInvoices: %v", err)
	}
	if len(deliverer.delivered) != 1 {
		t.Errorf("delivered twice: %v", deliverer.delivered)
	}
}

func TestCheckInvoicesSkipsUnpaid(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer store.Close()

	if err := store.UpsertUser(2, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := store.CreateOrder("ord_2_1", 2, "olympus", "gate_of_olympus", nil); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := store.UpdateOrderConfig("ord_2_1", map[string]any{
		"payment": map[string]any{
			"provider":  "crypto_pay",
			"invoiceId": 777,
			"payUrl":    "https://t.me/CryptoBot?start=IVy",
			"type":      "sub",
			"amount":    659,
			"discount":  0,
		},
	}); err != nil {
		t.Fatalf("UpdateOrderConfig: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": map[string]any{
				"items": []map[string]any{
					{"invoice_id": 777, "status": "active", "pay_url": "https://t.me/CryptoBot?start=IVy"},
				},
			},
		})
	}))
	defer srv.Close()

	gateway := cryptopay.NewClient(srv.URL, "test-token", "USD", "")
	deliverer := &fakeDeliverer{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(store, gateway, deliverer, log)

	if err := w.checkInvoices(context.Background()); err != nil {
		t.Fatalf("checkInvoices: %v", err)
	}

	order, err := store.GetOrder("ord_2_1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Status != "pending" {
		t.Errorf("status = %q, want pending", order.Status)
	}
	if len(deliverer.delivered) != 0 {
		t.Errorf("delivered = %v, want none", deliverer.delivered)
	}
}
