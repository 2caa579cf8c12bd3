package cryptopay

import "encoding/json"

// Invoice is the subset of the Crypto Pay invoice object the bot acts on.
type Invoice struct {
	InvoiceID int64
	Status    string
	PayURL    string
}

// InvoiceStatusPaid is the gateway's settled state.
const InvoiceStatusPaid = "paid"

// apiEnvelope is the common Crypto Pay response wrapper.
type apiEnvelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// rawInvoice tolerates the shape drift between Crypto Pay API versions: the
// id and pay-url fields have moved over time.
type rawInvoice struct {
	InvoiceID        int64  `json:"invoice_id"`
	ID               int64  `json:"id"`
	Status           string `json:"status"`
	PayURL           string `json:"pay_url"`
	BotInvoiceURL    string `json:"bot_invoice_url"`
	MiniAppURL       string `json:"mini_app_invoice_url"`
	WebAppInvoiceURL string `json:"web_app_invoice_url"`
}

type invoiceList struct {
	Items []rawInvoice `json:"items"`
}
