package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avellino/shopassist/internal/observability"
	"github.com/avellino/shopassist/internal/store"
)

// TurnRequest is one inbound chat turn from a client.
type TurnRequest struct {
	SessionID      string
	Message        string
	ImageBase64    string
	ImageMediaType string
}

// TurnResult is the reply for one completed turn.
type TurnResult struct {
	SessionID  string
	Text       string
	ResponseID string
}

// Service runs a chat turn end to end: validate, serialize per session,
// rebuild history, call the model, persist both turns.
type Service struct {
	store   store.Store
	adapter Adapter
	guard   *Guard
	metrics *observability.Metrics
}

func NewService(st store.Store, adapter Adapter, guard *Guard, metrics *observability.Metrics) *Service {
	return &Service{
		store:   st,
		adapter: adapter,
		guard:   guard,
		metrics: metrics,
	}
}

func (s *Service) CreateSession(ctx context.Context, userID string) (store.Session, error) {
	return s.store.CreateSession(ctx, userID)
}

func (s *Service) ListDialogues(ctx context.Context, sessionID string) ([]store.Dialogue, error) {
	return s.store.ListDialogues(ctx, sessionID)
}

// SendTurn processes one chat turn. History is always rebuilt from the
// dialogue store for the request's session, never carried over between
// requests in adapter state.
func (s *Service) SendTurn(ctx context.Context, req TurnRequest) (TurnResult, error) {
	if err := Validate(req.Message, req.SessionID, req.ImageBase64); err != nil {
		s.countTurn("invalid")
		return TurnResult{}, err
	}

	unlock := s.guard.Lock(req.SessionID)
	defer unlock()
	s.metrics.SessionGuards.Set(float64(s.guard.ActiveCount()))

	if _, err := s.store.GetSession(ctx, req.SessionID); err != nil {
		s.countTurn("session_not_found")
		return TurnResult{}, err
	}

	prior, err := s.store.ListDialogues(ctx, req.SessionID)
	if err != nil {
		s.countTurn("store_error")
		return TurnResult{}, fmt.Errorf("load history: %w", err)
	}

	start := time.Now()
	resp, err := s.adapter.Send(ctx, SendRequest{
		Message:        req.Message,
		ImageBase64:    req.ImageBase64,
		ImageMediaType: req.ImageMediaType,
		History:        historyFromDialogues(prior),
	})
	if err != nil {
		s.countTurn("upstream_error")
		return TurnResult{}, err
	}
	s.metrics.ObserveUpstreamLatency(time.Since(start))

	if _, err := s.store.AppendDialogue(ctx, req.SessionID, store.RoleUser, req.Message, ""); err != nil {
		s.countTurn("store_error")
		return TurnResult{}, fmt.Errorf("persist user turn: %w", err)
	}
	if _, err := s.store.AppendDialogue(ctx, req.SessionID, store.RoleModel, resp.Text, resp.ResponseID); err != nil {
		s.countTurn("store_error")
		return TurnResult{}, fmt.Errorf("persist model turn: %w", err)
	}

	// Best-effort: a lagging session timestamp must not fail the turn.
	if err := s.store.TouchSession(ctx, req.SessionID); err != nil {
		log.Printf("chat: touch session %s: %v", req.SessionID, err)
	}

	s.countTurn("ok")
	return TurnResult{
		SessionID:  req.SessionID,
		Text:       resp.Text,
		ResponseID: resp.ResponseID,
	}, nil
}

func (s *Service) countTurn(outcome string) {
	s.metrics.ChatTurns.WithLabelValues(outcome).Inc()
}

func historyFromDialogues(dialogues []store.Dialogue) []Turn {
	turns := make([]Turn, 0, len(dialogues))
	for _, d := range dialogues {
		role := TurnRoleUser
		if d.Role == store.RoleModel {
			role = TurnRoleModel
		}
		turns = append(turns, Turn{Role: role, Message: d.Message})
	}
	return turns
}
