package httpapi

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avellino/shopassist/internal/chat"
	"github.com/avellino/shopassist/internal/store"
)

type createSessionRequest struct {
	UserID string `json:"user_id"`
}

type createSessionResponse struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

type chatRequest struct {
	Message       string `json:"message"`
	SessionID     string `json:"session_id"`
	ImageBase64   string `json:"image_base64"`
	ImageMimeType string `json:"image_mime_type"`
}

type chatResponse struct {
	Result     string `json:"result"`
	SessionID  string `json:"session_id"`
	ResponseID string `json:"response_id,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	sess, err := s.chat.CreateSession(r.Context(), req.UserID)
	if err != nil {
		log.Printf("httpapi: create session: %v", err)
		respondError(w, http.StatusInternalServerError, "session_create_failed", "Could not create a chat session.")
		return
	}

	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		CreatedAt: sess.CreatedAt,
	})
}

func (s *Server) handleListDialogues(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	dialogues, err := s.chat.ListDialogues(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "session_not_found", err.Error())
			return
		}
		log.Printf("httpapi: list dialogues for %s: %v", sessionID, err)
		respondError(w, http.StatusInternalServerError, "dialogue_list_failed", "Could not load the conversation.")
		return
	}
	if dialogues == nil {
		dialogues = []store.Dialogue{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"dialogues":  dialogues,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	res, err := s.chat.SendTurn(r.Context(), chat.TurnRequest{
		SessionID:      strings.TrimSpace(req.SessionID),
		Message:        req.Message,
		ImageBase64:    req.ImageBase64,
		ImageMediaType: req.ImageMimeType,
	})
	if err != nil {
		s.respondChatError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{
		Result:     res.Text,
		SessionID:  res.SessionID,
		ResponseID: res.ResponseID,
	})
}

func (s *Server) respondChatError(w http.ResponseWriter, err error) {
	var ve *chat.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, "invalid_chat_request", ve.Reason)
	case errors.Is(err, chat.ErrEmptyContent):
		respondError(w, http.StatusBadRequest, "invalid_chat_request", chat.ReasonMissingContent)
	case errors.Is(err, store.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
	default:
		// Full detail stays server-side, clients get a generic message.
		log.Printf("httpapi: chat turn failed: %v", err)
		respondError(w, http.StatusBadGateway, "upstream_error", "The assistant is unavailable right now. Please try again.")
	}
}
