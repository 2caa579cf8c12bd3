// Package adminapi exposes a small authenticated HTTP surface for the
// operator: balance grants, bans, category discounts and broadcasts.
package adminapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rwbrr/playable-bot/internal/storage"
)

// Server is the admin HTTP API
type Server struct {
	storage    *storage.Storage
	broadcasts *BroadcastManager
	user       string
	pass       string
	log        *slog.Logger

	server *http.Server
}

// NewServer creates a new admin API server
func NewServer(store *storage.Storage, broadcasts *BroadcastManager, user, pass string, log *slog.Logger) *Server {
	return &Server{
		storage:    store,
		broadcasts: broadcasts,
		user:       user,
		pass:       pass,
		log:        log,
	}
}

// Start starts the admin API server
func (s *Server) Start(ctx context.Context, port int) error {
	if s.user == "" || s.pass == "" {
		s.log.Warn("admin api disabled: ADMIN_USER/ADMIN_PASS not set")
		<-ctx.Done()
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/add-balance", s.auth(s.handleAddBalance))
	mux.HandleFunc("/api/ban-user", s.auth(s.handleBanUser))
	mux.HandleFunc("/api/category-discounts", s.auth(s.handleCategoryDiscounts))
	mux.HandleFunc("/api/broadcast", s.auth(s.handleBroadcast))
	mux.HandleFunc("/api/broadcast/", s.auth(s.handleBroadcastStatus))

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("starting admin api server", "port", port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	return s.server.ListenAndServe()
}

func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.user)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleAddBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserID int64   `json:"userId"`
		Amount float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == 0 || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "userId and positive amount required")
		return
	}

	if err := s.storage.IncrementUserBalance(req.UserID, req.Amount); err != nil {
		s.log.Error("add balance", "error", err, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	s.storage.LogAction(req.UserID, "balance_granted", fmt.Sprintf("$%.2f (api)", req.Amount))

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleBanUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UserID int64  `json:"userId"`
		Banned bool   `json:"banned"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "userId required")
		return
	}

	var err error
	if req.Banned {
		err = s.storage.BanUser(req.UserID, req.Reason)
	} else {
		err = s.storage.UnbanUser(req.UserID)
	}
	if err != nil {
		s.log.Error("ban user", "error", err, "user_id", req.UserID)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "banned": req.Banned})
}

func (s *Server) handleCategoryDiscounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Category string `json:"category"`
		Percent  int    `json:"percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "category required")
		return
	}

	applied, err := s.storage.SetCategoryDiscount(req.Category, req.Percent)
	if err != nil {
		s.log.Error("set discount", "error", err, "category", req.Category)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "category": req.Category, "percent": applied})
}

func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}

	job, err := s.broadcasts.Start(req.Text)
	if err != nil {
		s.log.Error("start broadcast", "error", err)
		writeError(w, http.StatusInternalServerError, "broadcast error")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobId": job.ID, "total": job.Total})
}

func (s *Server) handleBroadcastStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/broadcast/")
	job, ok := s.broadcasts.Status(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}

	writeJSON(w, http.StatusOK, job)
}
