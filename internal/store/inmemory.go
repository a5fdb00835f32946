package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryStore is a simple in-process store for local/dev use.
type InMemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	dialogues map[string][]Dialogue
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:  make(map[string]Session),
		dialogues: make(map[string][]Dialogue),
	}
}

func (s *InMemoryStore) CreateSession(_ context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

func (s *InMemoryStore) GetSession(_ context.Context, sessionID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

func (s *InMemoryStore) AppendDialogue(_ context.Context, sessionID string, role Role, message, responseID string) (Dialogue, error) {
	if role != RoleUser && role != RoleModel {
		return Dialogue{}, ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return Dialogue{}, ErrSessionNotFound
	}

	now := time.Now().UTC()
	d := Dialogue{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		ResponseID: responseID,
		Role:       role,
		Message:    message,
		Seq:        int64(len(s.dialogues[sessionID])) + 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.dialogues[sessionID] = append(s.dialogues[sessionID], d)
	return d, nil
}

func (s *InMemoryStore) ListDialogues(_ context.Context, sessionID string) ([]Dialogue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return nil, ErrSessionNotFound
	}
	arr := s.dialogues[sessionID]
	out := make([]Dialogue, len(arr))
	copy(out, arr)
	return out, nil
}

func (s *InMemoryStore) TouchSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	sess.UpdatedAt = time.Now().UTC()
	s.sessions[sessionID] = sess
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
