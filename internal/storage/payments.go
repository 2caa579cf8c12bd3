package storage

// Payment sub-documents live inside the order's open-ended config. They are
// validated on every read instead of being trusted as blind casts.

const (
	PayTypeSingle = "single"
	PayTypeSub    = "sub"
)

// CryptoPayment is the stored external-invoice record.
type CryptoPayment struct {
	InvoiceID int64
	PayURL    string
	Type      string
	Amount    int
	Discount  int
}

// ManualPayment is the stored direct-transfer record.
type ManualPayment struct {
	Type     string
	Amount   int
	Discount int
	State    string
}

// CryptoPayment extracts and validates the crypto_pay record from the order
// config. Returns nil when absent or malformed.
func (o *Order) CryptoPayment() *CryptoPayment {
	payment, ok := o.Config["payment"].(map[string]any)
	if !ok {
		return nil
	}
	if payment["provider"] != "crypto_pay" {
		return nil
	}

	invoiceID := asInt64(payment["invoiceId"])
	amount := asInt(payment["amount"])
	discount := asInt(payment["discount"])
	payType, _ := payment["type"].(string)
	payURL, _ := payment["payUrl"].(string)

	if payType != PayTypeSingle && payType != PayTypeSub {
		return nil
	}
	if invoiceID <= 0 || amount <= 0 || discount < 0 {
		return nil
	}

	return &CryptoPayment{
		InvoiceID: invoiceID,
		PayURL:    payURL,
		Type:      payType,
		Amount:    amount,
		Discount:  discount,
	}
}

// ManualPayment extracts the direct_wallet record from the order config.
// Returns nil when absent; amount and discount are clamped to non-negative.
func (o *Order) ManualPayment() *ManualPayment {
	manual, ok := o.Config["manualPayment"].(map[string]any)
	if !ok {
		return nil
	}

	payType, _ := manual["type"].(string)
	if payType != PayTypeSingle && payType != PayTypeSub {
		payType = PayTypeSingle
	}
	state, _ := manual["state"].(string)

	amount := asInt(manual["amount"])
	if amount < 0 {
		amount = 0
	}
	discount := asInt(manual["discount"])
	if discount < 0 {
		discount = 0
	}

	return &ManualPayment{
		Type:     payType,
		Amount:   amount,
		Discount: discount,
		State:    state,
	}
}

// ClickURL returns the CTA URL stored in the order config, if any.
func (o *Order) ClickURL() string {
	url, _ := o.Config["clickUrl"].(string)
	return url
}

// GeoID returns the geo preset stored in the order config, defaulting to the
// global preset.
func (o *Order) GeoID() string {
	if geo, ok := o.Config["geoId"].(string); ok && geo != "" {
		return geo
	}
	return "en_usd"
}

// IsPaid reports whether the order has reached any paid status.
func (o *Order) IsPaid() bool {
	return len(o.Status) >= len(paidPrefix) && o.Status[:len(paidPrefix)] == paidPrefix
}

// IsCancelled reports whether the order is terminally cancelled.
func (o *Order) IsCancelled() bool {
	return o.Status == "cancelled"
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}

func asInt(v any) int {
	return int(asInt64(v))
}
