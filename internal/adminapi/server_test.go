package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/rwbrr/playable-bot/internal/storage"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []int64
}

func (f *fakeSender) SendNotification(ctx context.Context, userID int64, text string, keyboard *models.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, userID)
	return nil
}

func newTestServer(t *testing.T) (*Server, *storage.Storage, *fakeSender) {
	t.Helper()
	store, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sender := &fakeSender{}
	broadcasts := NewBroadcastManager(store, sender, log)
	return NewServer(store, broadcasts, "admin", "secret", log), store, sender
}

func TestAuthRequired(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/add-balance", strings.NewReader(`{"userId":1,"amount":10}`))
	rec := httptest.NewRecorder()
	server.auth(server.handleAddBalance)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/add-balance", strings.NewReader(`{"userId":1,"amount":10}`))
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	server.auth(server.handleAddBalance)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", rec.Code)
	}
}

func TestAddBalance(t *testing.T) {
	server, store, _ := newTestServer(t)
	if err := store.UpsertUser(1, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/add-balance", strings.NewReader(`{"userId":1,"amount":25.5}`))
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	server.auth(server.handleAddBalance)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	stats, err := store.GetUserStats(1)
	if err != nil {
		t.Fatalf("GetUserStats: %v", err)
	}
	if stats.WalletBalance != 25.5 {
		t.Errorf("balance = %v, want 25.5", stats.WalletBalance)
	}
}

func TestAddBalanceRejectsBadInput(t *testing.T) {
	server, _, _ := newTestServer(t)

	for _, body := range []string{`{"userId":0,"amount":10}`, `{"userId":1,"amount":-5}`, `not json`} {
		req := httptest.NewRequest(http.MethodPost, "/api/add-balance", strings.NewReader(body))
		req.SetBasicAuth("admin", "secret")
		rec := httptest.NewRecorder()
		server.auth(server.handleAddBalance)(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestBanUser(t *testing.T) {
	server, store, _ := newTestServer(t)
	if err := store.UpsertUser(2, "user", "User"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ban-user", strings.NewReader(`{"userId":2,"banned":true,"reason":"fraud"}`))
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	server.auth(server.handleBanUser)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !store.IsBanned(2) {
		t.Error("user must be banned")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/ban-user", strings.NewReader(`{"userId":2,"banned":false}`))
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	server.auth(server.handleBanUser)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unban status = %d", rec.Code)
	}
	if store.IsBanned(2) {
		t.Error("user must be unbanned")
	}
}

func TestBroadcast(t *testing.T) {
	server, store, sender := newTestServer(t)
	for id := int64(1); id <= 3; id++ {
		if err := store.UpsertUser(id, "user", "User"); err != nil {
			t.Fatalf("UpsertUser: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/broadcast", strings.NewReader(`{"text":"hello"}`))
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	server.auth(server.handleBroadcast)(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		JobID string `json:"jobId"`
		Total int    `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		job, ok := server.broadcasts.Status(resp.JobID)
		if !ok {
			t.Fatal("job disappeared")
		}
		if job.Done {
			if job.Sent != 3 || job.Failed != 0 {
				t.Errorf("job = %+v, want 3 sent 0 failed", job)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("broadcast did not finish: %+v", job)
		}
		time.Sleep(20 * time.Millisecond)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 3 {
		t.Errorf("sent to %d users, want 3", len(sender.sent))
	}
}
