package session

// Stage identifies the active order wizard step.
type Stage string

const (
	StageGeo             Stage = "geo"
	StageCustomGeoDesc   Stage = "custom_geo_desc"
	StageStartingBalance Stage = "starting_balance"
	StageCTAURL          Stage = "cta_url"
)

// Wizard tracks the in-progress order flow. UpdatedAt is a unix millisecond
// timestamp used for lazy expiry; Attempts counts consecutive invalid inputs
// at the current stage.
type Wizard struct {
	Stage     Stage `json:"stage"`
	UpdatedAt int64 `json:"updatedAt"`
	Attempts  int   `json:"attempts,omitempty"`
}

// OrderConfig is the typed core of an order being assembled by the wizard.
type OrderConfig struct {
	Game            string `json:"game,omitempty"`
	ThemeID         string `json:"themeId,omitempty"`
	GeoID           string `json:"geoId,omitempty"`
	Language        string `json:"language,omitempty"`
	Currency        string `json:"currency,omitempty"`
	StartingBalance int    `json:"startingBalance,omitempty"`
	ClickURL        string `json:"clickUrl,omitempty"`
}

// PendingManualPayment marks that the next free-form message from the user
// is a proof of transfer for the referenced order.
type PendingManualPayment struct {
	OrderID     string `json:"orderId"`
	PaymentType string `json:"paymentType"`
	Amount      int    `json:"amount"`
}

// Session is the per-user durable document.
type Session struct {
	Config               OrderConfig           `json:"config"`
	Wizard               *Wizard               `json:"wizard,omitempty"`
	PendingManualPayment *PendingManualPayment `json:"pendingManualPayment,omitempty"`
	PreviewInProgress    bool                  `json:"previewInProgress,omitempty"`
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}
