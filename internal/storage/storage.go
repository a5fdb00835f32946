package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend stores raw file bytes and later deletes them by locator. Save
// only returns a locator once the backend has confirmed the write; Delete
// is best-effort cleanup and reports false instead of failing on a missing
// or unreachable target.
type Backend interface {
	Save(ctx context.Context, data []byte, originalName, mimeType string) (string, error)
	Delete(ctx context.Context, locator string) (bool, error)
}

// StoredFile describes a file accepted and persisted by a backend.
type StoredFile struct {
	Locator      string `json:"locator"`
	OriginalName string `json:"original_name"`
	SizeBytes    int64  `json:"size_bytes"`
	MimeType     string `json:"mime_type"`
}

// datePrefix partitions storage by UTC calendar date.
func datePrefix(now time.Time) string {
	return now.UTC().Format("2006/01/02")
}

// uniqueName builds a collision-resistant file name from the upload time,
// a random id and the sanitized original name.
func uniqueName(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s-%s", now.UTC().UnixMilli(), uuid.NewString(), sanitizeName(originalName))
}

// sanitizeName strips path separators and control characters so the
// original name cannot escape the destination directory or key prefix.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "file"
	}
	return b.String()
}
