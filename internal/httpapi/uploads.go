package httpapi

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/avellino/shopassist/internal/upload"
)

type deleteUploadRequest struct {
	Locator string `json:"locator"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Cap the request body a little above the gate ceiling so oversize
	// uploads get the too-large reason instead of a connection error.
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxFileBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			s.metrics.Uploads.WithLabelValues("rejected").Inc()
			respondError(w, http.StatusBadRequest, "upload_rejected", upload.ReasonTooLarge)
			return
		}
		s.metrics.Uploads.WithLabelValues("invalid").Inc()
		respondError(w, http.StatusBadRequest, "invalid_request", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		if isBodyTooLarge(err) {
			s.metrics.Uploads.WithLabelValues("rejected").Inc()
			respondError(w, http.StatusBadRequest, "upload_rejected", upload.ReasonTooLarge)
			return
		}
		s.metrics.Uploads.WithLabelValues("invalid").Inc()
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	stored, err := s.uploads.Store(r.Context(), data, header.Filename, mimeType)
	if err != nil {
		var rej *upload.RejectionError
		if errors.As(err, &rej) {
			s.metrics.Uploads.WithLabelValues("rejected").Inc()
			respondError(w, http.StatusBadRequest, "upload_rejected", rej.Reason)
			return
		}
		s.metrics.Uploads.WithLabelValues("error").Inc()
		log.Printf("httpapi: store upload %q: %v", header.Filename, err)
		respondError(w, http.StatusInternalServerError, "upload_failed", "Could not store the uploaded file.")
		return
	}

	s.metrics.Uploads.WithLabelValues("ok").Inc()
	s.metrics.UploadBytes.Add(float64(stored.SizeBytes))
	respondJSON(w, http.StatusCreated, stored)
}

// isBodyTooLarge reports whether err came from the MaxBytesReader cap, so
// oversize bodies keep the distinguishable too-large reason.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	var req deleteUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	req.Locator = strings.TrimSpace(req.Locator)
	if req.Locator == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "locator is required")
		return
	}

	deleted, err := s.uploads.Remove(r.Context(), req.Locator)
	if err != nil {
		log.Printf("httpapi: delete upload %q: %v", req.Locator, err)
		deleted = false
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
