package storage

import (
	"encoding/json"
	"testing"
)

// orderWithConfig builds an order whose config went through a JSON
// roundtrip, so all numbers arrive as float64 like they do from sqlite.
func orderWithConfig(t *testing.T, config map[string]any) *Order {
	t.Helper()
	raw, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	parsed := map[string]any{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal config: %v", err)
	}
	return &Order{OrderID: "ord_1_1", UserID: 1, Config: parsed}
}

func TestCryptoPaymentValid(t *testing.T) {
	order := orderWithConfig(t, map[string]any{
		"payment": map[string]any{
			"provider":  "crypto_pay",
			"invoiceId": 12345,
			"payUrl":    "https://t.me/CryptoBot?start=IVx",
			"type":      "single",
			"amount":    349,
			"discount":  10,
		},
	})

	payment := order.CryptoPayment()
	if payment == nil {
		t.Fatal("expected a payment record")
	}
	if payment.InvoiceID != 12345 || payment.Amount != 349 || payment.Discount != 10 {
		t.Errorf("payment = %+v", payment)
	}
	if payment.Type != PayTypeSingle {
		t.Errorf("type = %q, want single", payment.Type)
	}
}

func TestCryptoPaymentRejectsMalformed(t *testing.T) {
	tests := []struct {
		name   string
		config map[string]any
	}{
		{"no payment", map[string]any{"geoId": "en_usd"}},
		{"wrong provider", map[string]any{
			"payment": map[string]any{"provider": "stripe", "invoiceId": 1, "type": "single", "amount": 349},
		}},
		{"unknown type", map[string]any{
			"payment": map[string]any{"provider": "crypto_pay", "invoiceId": 1, "type": "lifetime", "amount": 349},
		}},
		{"zero invoice", map[string]any{
			"payment": map[string]any{"provider": "crypto_pay", "invoiceId": 0, "type": "single", "amount": 349},
		}},
		{"zero amount", map[string]any{
			"payment": map[string]any{"provider": "crypto_pay", "invoiceId": 1, "type": "single", "amount": 0},
		}},
		{"negative discount", map[string]any{
			"payment": map[string]any{"provider": "crypto_pay", "invoiceId": 1, "type": "single", "amount": 349, "discount": -5},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := orderWithConfig(t, tt.config)
			if payment := order.CryptoPayment(); payment != nil {
				t.Errorf("expected nil, got %+v", payment)
			}
		})
	}
}

func TestManualPaymentDefaults(t *testing.T) {
	order := orderWithConfig(t, map[string]any{
		"manualPayment": map[string]any{
			"type":   "lifetime",
			"amount": -50,
			"state":  "awaiting_transfer",
		},
	})

	manual := order.ManualPayment()
	if manual == nil {
		t.Fatal("expected a manual payment record")
	}
	if manual.Type != PayTypeSingle {
		t.Errorf("unknown type must fall back to single, got %q", manual.Type)
	}
	if manual.Amount != 0 {
		t.Errorf("negative amount must clamp to 0, got %d", manual.Amount)
	}
	if manual.State != "awaiting_transfer" {
		t.Errorf("state = %q", manual.State)
	}
}

func TestOrderStatusHelpers(t *testing.T) {
	tests := []struct {
		status    string
		paid      bool
		cancelled bool
	}{
		{"pending", false, false},
		{"paid_wallet_single", true, false},
		{"paid_crypto_sub", true, false},
		{"paid_manual_single", true, false},
		{"paid_granted", true, false},
		{"cancelled", false, true},
		{"manual_review_single", false, false},
	}

	for _, tt := range tests {
		order := &Order{Status: tt.status}
		if got := order.IsPaid(); got != tt.paid {
			t.Errorf("IsPaid(%q) = %v, want %v", tt.status, got, tt.paid)
		}
		if got := order.IsCancelled(); got != tt.cancelled {
			t.Errorf("IsCancelled(%q) = %v, want %v", tt.status, got, tt.cancelled)
		}
	}
}

func TestOrderGeoIDDefault(t *testing.T) {
	order := orderWithConfig(t, map[string]any{})
	if got := order.GeoID(); got != "en_usd" {
		t.Errorf("GeoID() = %q, want en_usd default", got)
	}

	order = orderWithConfig(t, map[string]any{"geoId": "pt_brl"})
	if got := order.GeoID(); got != "pt_brl" {
		t.Errorf("GeoID() = %q, want pt_brl", got)
	}
}
