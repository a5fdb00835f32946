package store

import (
	"context"
	"errors"
	"time"
)

// Role identifies who produced a dialogue turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidRole     = errors.New("invalid dialogue role")
)

// Session groups the chat turns of one conversation for one user.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Dialogue is a single user or model turn within a session. Seq is a
// per-session monotonic counter that breaks CreatedAt ties when the clock
// resolution is too coarse.
type Dialogue struct {
	ID         string    `json:"dialogue_id"`
	SessionID  string    `json:"session_id"`
	ResponseID string    `json:"response_id,omitempty"`
	Role       Role      `json:"role"`
	Message    string    `json:"message"`
	Seq        int64     `json:"seq"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists sessions and their dialogue turns.
type Store interface {
	CreateSession(ctx context.Context, userID string) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	AppendDialogue(ctx context.Context, sessionID string, role Role, message, responseID string) (Dialogue, error)
	ListDialogues(ctx context.Context, sessionID string) ([]Dialogue, error)
	TouchSession(ctx context.Context, sessionID string) error
	Close() error
}
