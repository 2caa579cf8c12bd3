package storage

// User is a bot user with a wallet balance and an optional referrer.
type User struct {
	ID            int64
	Username      string
	FirstName     string
	WalletBalance float64
	ReferrerID    *int64
	Language      string
	CreatedAt     string
}

// Order tracks a single configuration-and-payment unit from creation to
// delivery or cancellation. Config is the full wizard output plus payment
// sub-documents, persisted as JSON.
type Order struct {
	OrderID         string
	UserID          int64
	GameType        string
	ThemeID         string
	Config          map[string]any
	Status          string
	Amount          int
	DiscountApplied int
	CreatedAt       string
}

// UserStats is the profile aggregate: paid orders drive loyalty discounts.
type UserStats struct {
	OrdersPaid     int
	ReferralsCount int
	WalletBalance  float64
}

// LogEntry is an append-only audit record. Logging is best-effort and must
// never fail the primary flow.
type LogEntry struct {
	ID        int64
	UserID    int64
	Action    string
	Details   string
	CreatedAt string
}
