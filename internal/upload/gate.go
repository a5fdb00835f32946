package upload

import (
	"context"
	"fmt"
	"strings"

	"github.com/avellino/shopassist/internal/storage"
)

// MaxFileBytes is the upload size ceiling (5 MiB).
const MaxFileBytes = 5 << 20

// Rejection reasons, stable strings for clients to key messages on.
const (
	ReasonInvalidType = "invalid-type"
	ReasonTooLarge    = "too-large"
)

// RejectionError reports why an upload was refused before it reached the
// storage backend.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("upload rejected: %s", e.Reason)
}

// FileMeta describes an incoming upload for validation.
type FileMeta struct {
	OriginalName string
	SizeBytes    int64
	MimeType     string
}

// Gate validates uploads and delegates accepted files to a single storage
// backend chosen at startup.
type Gate struct {
	backend storage.Backend
}

func NewGate(backend storage.Backend) *Gate {
	return &Gate{backend: backend}
}

// Accept validates the upload metadata. It has no side effects.
func (g *Gate) Accept(meta FileMeta) error {
	if !strings.HasPrefix(meta.MimeType, "image/") {
		return &RejectionError{Reason: ReasonInvalidType}
	}
	if meta.SizeBytes > MaxFileBytes {
		return &RejectionError{Reason: ReasonTooLarge}
	}
	return nil
}

// Store validates and persists an upload, returning the stored file record.
func (g *Gate) Store(ctx context.Context, data []byte, originalName, mimeType string) (storage.StoredFile, error) {
	meta := FileMeta{
		OriginalName: originalName,
		SizeBytes:    int64(len(data)),
		MimeType:     mimeType,
	}
	if err := g.Accept(meta); err != nil {
		return storage.StoredFile{}, err
	}

	locator, err := g.backend.Save(ctx, data, originalName, mimeType)
	if err != nil {
		return storage.StoredFile{}, fmt.Errorf("store upload: %w", err)
	}

	return storage.StoredFile{
		Locator:      locator,
		OriginalName: originalName,
		SizeBytes:    meta.SizeBytes,
		MimeType:     mimeType,
	}, nil
}

// Remove deletes a stored file by locator. Best-effort: a missing file or
// backend failure reports false rather than an error.
func (g *Gate) Remove(ctx context.Context, locator string) (bool, error) {
	return g.backend.Delete(ctx, locator)
}
