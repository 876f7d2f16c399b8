package memory

import (
	"context"
	"sync"
	"time"

	"classroom-service/internal/domain"
)

// SessionStore is an in-memory implementation of auth.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	clock    func() time.Time
	sessions map[string]session
}

type session struct {
	userID    int64
	expiresAt time.Time
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		clock:    time.Now,
		sessions: make(map[string]session),
	}
}

func (s *SessionStore) Create(_ context.Context, sessionID string, userID int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	for id, existing := range s.sessions {
		if !existing.expiresAt.After(now) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sessionID] = session{userID: userID, expiresAt: now.Add(ttl)}
	return nil
}

func (s *SessionStore) Lookup(_ context.Context, sessionID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing, ok := s.sessions[sessionID]
	if !ok || !existing.expiresAt.After(s.clock()) {
		return 0, domain.ErrSessionNotFound
	}
	return existing.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
