package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/session"
)

func TestParseStartingBalance(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"1000", intPtr(1000)},
		{"1,000", intPtr(1000)},
		{"$500", intPtr(500)},
		{"примерно 2500", intPtr(2500)},
		{"-5", intPtr(5)}, // the sign is stripped with the rest
		{"0", intPtr(0)},
		{"1000000000", intPtr(1000000000)},
		{"9999999999", nil},
		{"abc", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseStartingBalance(tt.input)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("parseStartingBalance(%q) = %d, want nil", tt.input, *got)
		case tt.want != nil && got == nil:
			t.Errorf("parseStartingBalance(%q) = nil, want %d", tt.input, *tt.want)
		case tt.want != nil && got != nil && *got != *tt.want:
			t.Errorf("parseStartingBalance(%q) = %d, want %d", tt.input, *got, *tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }

func TestNormalizeCTAURL(t *testing.T) {
	long := "https://example.com/"
	for len(long) <= maxCTAURLLength {
		long += "x"
	}
	// A bare domain near the cap: the limit applies to what the user typed,
	// not to the input with the scheme prepended.
	longBare := "example.com/"
	for len(longBare) < maxCTAURLLength {
		longBare += "x"
	}

	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com/offer", "https://example.com/offer"},
		{"http://example.com", "http://example.com"},
		{"example.com/offer", "https://example.com/offer"},
		{"  example.com  ", "https://example.com"},
		{"ftp://example.com", ""},
		{"https://", ""},
		{"", ""},
		{"   ", ""},
		{long, ""},
		{longBare, "https://" + longBare},
		{longBare + "x", ""},
	}

	for _, tt := range tests {
		if got := normalizeCTAURL(tt.input); got != tt.want {
			t.Errorf("normalizeCTAURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParsePayCallback(t *testing.T) {
	tests := []struct {
		data    string
		payType string
		orderID string
		ok      bool
	}{
		{"pay_single_ord_1_2", "single", "ord_1_2", true},
		{"pay_sub_ord_1_2", "sub", "ord_1_2", true},
		{"pay_lifetime_ord_1_2", "", "", false},
		{"payment_cancel_ord_1_2", "", "", false},
	}

	for _, tt := range tests {
		payType, orderID, ok := parsePayCallback(tt.data)
		if payType != tt.payType || orderID != tt.orderID || ok != tt.ok {
			t.Errorf("parsePayCallback(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.data, payType, orderID, ok, tt.payType, tt.orderID, tt.ok)
		}
	}
}

func TestCatalogLookups(t *testing.T) {
	if game := gameByID("game_railroad"); game == nil || game.Key != "railroad" {
		t.Errorf("gameByID(game_railroad) = %+v", game)
	}
	if game := gameByBuyCallback("buy_check_olympus"); game == nil || game.Key != "olympus" {
		t.Errorf("gameByBuyCallback(buy_check_olympus) = %+v", game)
	}
	if game := gameByKey("nope"); game != nil {
		t.Errorf("gameByKey(nope) = %+v, want nil", game)
	}
	if geo := geoByID("pt_brl"); geo == nil || geo.Lang != "pt" {
		t.Errorf("geoByID(pt_brl) = %+v", geo)
	}
}

func TestDefaultBalanceForGame(t *testing.T) {
	tests := []struct {
		key  string
		want int
	}{
		{"railroad", 1000},
		{"olympus", 1000},
		{"matching", 0},
		{"match3", 0},
		{"unknown", 1000},
	}

	for _, tt := range tests {
		if got := defaultBalanceForGame(tt.key); got != tt.want {
			t.Errorf("defaultBalanceForGame(%q) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestCategoryForGame(t *testing.T) {
	if got := categoryForGame("railroad"); got != CategoryChicken {
		t.Errorf("categoryForGame(railroad) = %q, want %q", got, CategoryChicken)
	}
	if got := categoryForGame("unknown"); got != "" {
		t.Errorf("categoryForGame(unknown) = %q, want empty", got)
	}
}

func TestGeoSelectRequiresActiveWizard(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	cb := &models.CallbackQuery{ID: "1", From: models.User{ID: 7}}

	// A tap on a stale geo keyboard: no wizard is running, so the session
	// must stay untouched.
	b.handleGeoSelect(ctx, cb, "en_usd")
	if sess := b.sessions.Get(7); sess.Config.GeoID != "" || sess.Wizard != nil {
		t.Errorf("session advanced without a wizard: %+v", sess.Config)
	}

	sess := b.sessions.Get(7)
	sess.Config.Game = "railroad"
	sess.SetWizard(session.StageGeo, 0)
	if err := b.sessions.Save(7, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b.handleGeoSelect(ctx, cb, "en_usd")
	sess = b.sessions.Get(7)
	if sess.Config.GeoID != "en_usd" || sess.Config.Currency != "$" {
		t.Errorf("geo not applied: %+v", sess.Config)
	}
	if sess.Wizard == nil || sess.Wizard.Stage != session.StageStartingBalance {
		t.Errorf("wizard = %+v, want the starting balance stage", sess.Wizard)
	}
}

func TestGeoSelectExpiredWizard(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()
	cb := &models.CallbackQuery{ID: "1", From: models.User{ID: 7}}

	sess := b.sessions.Get(7)
	sess.Config.Game = "railroad"
	sess.SetWizard(session.StageGeo, 0)
	sess.Wizard.UpdatedAt = time.Now().Add(-3 * time.Minute).UnixMilli()
	if err := b.sessions.Save(7, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b.handleGeoSelect(ctx, cb, "en_usd")
	sess = b.sessions.Get(7)
	if sess.Wizard != nil {
		t.Errorf("wizard = %+v, want cleared after the timeout", sess.Wizard)
	}
	if sess.Config.GeoID != "" {
		t.Errorf("geo applied on an expired wizard: %q", sess.Config.GeoID)
	}
}
