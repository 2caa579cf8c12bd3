package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
)

// Store persists one JSON document per user. Reads never fail: a missing or
// corrupt file yields a fresh empty session. Writes go through a temp file
// and an atomic rename so a concurrent reader never sees a partial document.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &Store{
		dir:   dir,
		locks: make(map[int64]*sync.Mutex),
	}, nil
}

func (s *Store) userLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *Store) pathFor(userID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(userID, 10)+".json")
}

// Get loads the user's session, returning a fresh one on any read or decode
// problem.
func (s *Store) Get(userID int64) *Session {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(s.pathFor(userID))
	if err != nil {
		return New()
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return New()
	}
	return &sess
}

// Save durably replaces the user's session document.
func (s *Store) Save(userID int64, sess *Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	path := s.pathFor(userID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}
