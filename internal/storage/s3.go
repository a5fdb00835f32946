package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// keyPrefix namespaces product image keys inside the bucket.
const keyPrefix = "products"

// S3Backend stores files in an S3-compatible object store and returns a
// publicly resolvable URL as the locator.
type S3Backend struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// S3Config carries the object-store connection settings.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL overrides the locator base, for stores fronted by a CDN.
	PublicURL string
}

func NewS3Backend(cfg S3Config) (*S3Backend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &S3Backend{client: client, bucket: cfg.Bucket, baseURL: baseURL}, nil
}

func (b *S3Backend) Save(ctx context.Context, data []byte, originalName, mimeType string) (string, error) {
	now := time.Now()
	key := fmt.Sprintf("%s/%s/%s", keyPrefix, datePrefix(now), uniqueName(now, originalName))

	_, err := b.client.PutObject(ctx, b.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	return b.baseURL + "/" + key, nil
}

// Delete resolves the object key from the locator and removes it. Any
// failure (unknown locator, missing object, network) is reported as false
// so callers treat deletion as best-effort cleanup.
func (b *S3Backend) Delete(ctx context.Context, locator string) (bool, error) {
	key, ok := b.keyFromLocator(locator)
	if !ok {
		log.Printf("object storage: locator %q does not belong to this backend", locator)
		return false, nil
	}

	if _, err := b.client.StatObject(ctx, b.bucket, key, minio.StatObjectOptions{}); err != nil {
		log.Printf("object storage: stat %s failed: %v", key, err)
		return false, nil
	}
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("object storage: remove %s failed: %v", key, err)
		return false, nil
	}
	return true, nil
}

func (b *S3Backend) keyFromLocator(locator string) (string, bool) {
	rest, found := strings.CutPrefix(locator, b.baseURL+"/")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}
