package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avellino/shopassist/internal/chat"
	"github.com/avellino/shopassist/internal/config"
	"github.com/avellino/shopassist/internal/observability"
	"github.com/avellino/shopassist/internal/upload"
)

type Server struct {
	cfg     config.Config
	chat    *chat.Service
	uploads *upload.Gate
	metrics *observability.Metrics
}

func New(cfg config.Config, chatService *chat.Service, uploads *upload.Gate, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		chat:    chatService,
		uploads: uploads,
		metrics: metrics,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/chat/session", s.handleCreateSession)
	r.Get("/v1/chat/session/{id}/dialogues", s.handleListDialogues)
	r.Post("/v1/chat", s.handleChat)

	r.Post("/v1/uploads", s.handleUpload)
	r.Delete("/v1/uploads", s.handleDeleteUpload)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"storage_backend": s.cfg.StorageBackend,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
