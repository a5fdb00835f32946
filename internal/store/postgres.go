package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions and dialogues in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS dialogues (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			response_id TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			seq BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_dialogues_session_created ON dialogues (session_id, created_at, seq);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, userID string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	sess.UpdatedAt = sess.CreatedAt

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.UserID, sess.CreatedAt, sess.UpdatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM sessions WHERE id=$1`,
		sessionID,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// AppendDialogue inserts one turn. The session row is locked for the
// duration of the transaction so the per-session seq stays gapless and
// concurrent appends on the same session cannot race.
func (s *PostgresStore) AppendDialogue(ctx context.Context, sessionID string, role Role, message, responseID string) (Dialogue, error) {
	if role != RoleUser && role != RoleModel {
		return Dialogue{}, ErrInvalidRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Dialogue{}, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	var one int
	err = tx.QueryRow(ctx, `SELECT 1 FROM sessions WHERE id=$1 FOR UPDATE`, sessionID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return Dialogue{}, ErrSessionNotFound
	}
	if err != nil {
		return Dialogue{}, fmt.Errorf("lock session: %w", err)
	}

	d := Dialogue{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		ResponseID: responseID,
		Role:       role,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	d.UpdatedAt = d.CreatedAt

	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM dialogues WHERE session_id=$1`,
		sessionID,
	).Scan(&d.Seq)
	if err != nil {
		return Dialogue{}, fmt.Errorf("next seq: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO dialogues (id, session_id, response_id, role, message, seq, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.SessionID, d.ResponseID, string(d.Role), d.Message, d.Seq, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return Dialogue{}, fmt.Errorf("append dialogue: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Dialogue{}, fmt.Errorf("commit append: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDialogues(ctx context.Context, sessionID string) ([]Dialogue, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, response_id, role, message, seq, created_at, updated_at
		 FROM dialogues WHERE session_id=$1 ORDER BY created_at ASC, seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query dialogues: %w", err)
	}
	defer rows.Close()

	var items []Dialogue
	for rows.Next() {
		var d Dialogue
		var role string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.ResponseID, &role, &d.Message, &d.Seq, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan dialogue row: %w", err)
		}
		d.Role = Role(role)
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dialogue rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) TouchSession(ctx context.Context, sessionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET updated_at=now() WHERE id=$1`,
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
