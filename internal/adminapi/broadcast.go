package adminapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"

	"github.com/rwbrr/playable-bot/internal/storage"
)

// Sender delivers a message to a single telegram user.
type Sender interface {
	SendNotification(ctx context.Context, userID int64, text string, keyboard *models.InlineKeyboardMarkup) error
}

// BroadcastJob tracks a fan-out in progress.
type BroadcastJob struct {
	ID        string    `json:"jobId"`
	Total     int       `json:"total"`
	Sent      int       `json:"sent"`
	Failed    int       `json:"failed"`
	Done      bool      `json:"done"`
	StartedAt time.Time `json:"startedAt"`
}

// BroadcastManager runs broadcasts to all known users in the background.
type BroadcastManager struct {
	storage *storage.Storage
	sender  Sender
	log     *slog.Logger

	mu   sync.Mutex
	jobs map[string]*BroadcastJob
}

// NewBroadcastManager creates a new broadcast manager
func NewBroadcastManager(store *storage.Storage, sender Sender, log *slog.Logger) *BroadcastManager {
	return &BroadcastManager{
		storage: store,
		sender:  sender,
		log:     log,
		jobs:    make(map[string]*BroadcastJob),
	}
}

// Start launches a broadcast of text to every known user and returns the
// job immediately. Progress is polled via Status.
func (m *BroadcastManager) Start(text string) (*BroadcastJob, error) {
	userIDs, err := m.storage.ListUserIDs()
	if err != nil {
		return nil, err
	}

	job := &BroadcastJob{
		ID:        uuid.NewString(),
		Total:     len(userIDs),
		StartedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	go m.run(job.ID, text, userIDs)

	return m.snapshot(job.ID), nil
}

// Status returns a copy of the job state.
func (m *BroadcastManager) Status(jobID string) (*BroadcastJob, bool) {
	job := m.snapshot(jobID)
	return job, job != nil
}

func (m *BroadcastManager) snapshot(jobID string) *BroadcastJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

func (m *BroadcastManager) run(jobID, text string, userIDs []int64) {
	ctx := context.Background()

	for _, userID := range userIDs {
		err := m.sender.SendNotification(ctx, userID, text, nil)

		m.mu.Lock()
		if err != nil {
			m.jobs[jobID].Failed++
		} else {
			m.jobs[jobID].Sent++
		}
		m.mu.Unlock()

		if err != nil {
			m.log.Debug("broadcast send failed", "error", err, "user_id", userID)
		}

		// Telegram allows roughly 30 messages per second to distinct users.
		time.Sleep(50 * time.Millisecond)
	}

	m.mu.Lock()
	m.jobs[jobID].Done = true
	m.mu.Unlock()

	m.log.Info("broadcast finished", "job_id", jobID, "total", len(userIDs))
}
