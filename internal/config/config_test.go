package config

import "testing"

func TestNormalizeTONAddress(t *testing.T) {
	// A raw-form address converts to the bounceable human-readable form.
	raw := "0:ed1691307050047117b998b561d8de82d31fbf84910ced6f915b4b/invalid"
	if got := NormalizeTONAddress(raw); got != raw {
		t.Errorf("unparseable address must pass through unchanged, got %q", got)
	}

	if got := NormalizeTONAddress(""); got != "" {
		t.Errorf("empty address must stay empty, got %q", got)
	}

	human := "EQDtFpEwcFAEcRe5mLVh2N6C0x-_hJEM7W-Rtb4RwcG4BSkA"
	got := NormalizeTONAddress(human)
	if got == "" {
		t.Fatal("valid address must not normalize to empty")
	}
	if got[:2] != "EQ" {
		t.Errorf("expected a bounceable EQ-form address, got %q", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token")
	t.Setenv("PRICE_SINGLE", "")
	t.Setenv("PRICE_SUB", "")

	cfg := Load()

	if cfg.BotToken != "test-token" {
		t.Errorf("BotToken = %q", cfg.BotToken)
	}
	if cfg.Prices.Single != 349 || cfg.Prices.Sub != 659 {
		t.Errorf("prices = %+v, want 349/659", cfg.Prices)
	}
	if cfg.CryptoPayBaseURL != "https://pay.crypt.bot/api" {
		t.Errorf("CryptoPayBaseURL = %q", cfg.CryptoPayBaseURL)
	}
	if cfg.CryptoPayFiat != "USD" {
		t.Errorf("CryptoPayFiat = %q", cfg.CryptoPayFiat)
	}
	if cfg.WatcherInterval != 60 {
		t.Errorf("WatcherInterval = %d, want 60", cfg.WatcherInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PRICE_SINGLE", "199")
	t.Setenv("ADMIN_TELEGRAM_ID", "123456789")
	t.Setenv("INVOICE_WATCHER_INTERVAL", "0")

	cfg := Load()

	if cfg.Prices.Single != 199 {
		t.Errorf("Prices.Single = %d, want 199", cfg.Prices.Single)
	}
	if cfg.AdminTelegramID != 123456789 {
		t.Errorf("AdminTelegramID = %d", cfg.AdminTelegramID)
	}
	if cfg.WatcherInterval != 0 {
		t.Errorf("WatcherInterval = %d, want 0", cfg.WatcherInterval)
	}
}
