package telegram

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-telegram/bot"

	"github.com/rwbrr/playable-bot/internal/builder"
	"github.com/rwbrr/playable-bot/internal/config"
	"github.com/rwbrr/playable-bot/internal/pricing"
	"github.com/rwbrr/playable-bot/internal/session"
	"github.com/rwbrr/playable-bot/internal/storage"
)

const testAdminID int64 = 99

// newTestBot wires a Bot against a stubbed telegram API so the handlers can
// run without the network. Every API call gets a minimal ok-response.
func newTestBot(t *testing.T) *Bot {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1}}`))
	}))
	t.Cleanup(srv.Close)

	tgBot, err := bot.New("123456:test", bot.WithSkipGetMe(), bot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("bot.New: %v", err)
	}

	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sessions, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("session.NewStore: %v", err)
	}

	cfg := &config.Config{
		AdminTelegramID: testAdminID,
		Prices:          config.Prices{Single: 349, Sub: 659},
	}

	return &Bot{
		bot:      tgBot,
		cfg:      cfg,
		storage:  store,
		sessions: sessions,
		pricing:  pricing.NewResolver(store, cfg.Prices),
		library:  builder.NewLibrary(t.TempDir()),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
