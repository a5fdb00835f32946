package storage

import (
	"fmt"

	"github.com/avellino/shopassist/internal/config"
)

// NewBackend builds the storage backend selected by configuration. The
// choice is made once at startup; callers never branch per request.
func NewBackend(cfg config.Config) (Backend, error) {
	switch cfg.StorageBackend {
	case "local":
		return NewLocalBackend(cfg.UploadDir)
	case "s3":
		return NewS3Backend(S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
