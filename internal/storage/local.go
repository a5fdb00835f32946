package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// LocalBackend writes files to a date-partitioned directory tree under a
// configured root and uses the filesystem path as the locator.
type LocalBackend struct {
	root string
}

func NewLocalBackend(root string) (*LocalBackend, error) {
	if root == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalBackend{root: root}, nil
}

func (b *LocalBackend) Save(ctx context.Context, data []byte, originalName, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := time.Now()
	dir := filepath.Join(b.root, filepath.FromSlash(datePrefix(now)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create date dir: %w", err)
	}

	dest := filepath.Join(dir, uniqueName(now, originalName))

	// Write to a temp file and rename so a failed write never leaves a
	// half-written file at the returned locator.
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("finalize file: %w", err)
	}

	return dest, nil
}

func (b *LocalBackend) Delete(_ context.Context, locator string) (bool, error) {
	err := os.Remove(locator)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	log.Printf("local storage: delete %s failed: %v", locator, err)
	return false, nil
}
