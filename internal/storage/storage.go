package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/atcdrive/drive/internal/config"
)

// Storage stores file bytes under opaque, backend-specific keys. Keys
// are generated by the caller (folder-scoped, collision-free) and must
// never be interpreted outside the backend that produced them.
type Storage interface {
	// Save stores the contents of r under key.
	Save(ctx context.Context, key string, r io.Reader) error

	// Delete removes the bytes stored under key.
	Delete(ctx context.Context, key string) error

	// Kind identifies the backend ("s3" or "local") and is recorded
	// on every file row at upload time.
	Kind() string
}

// New builds the configured storage backend. The backend is selected
// once at startup and injected into the services that need it.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendS3:
		return NewS3Storage(S3Config{
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Endpoint:      cfg.S3Endpoint,
			PresignExpiry: cfg.S3PresignExpiry,
		})
	case config.StorageBackendLocal:
		return NewLocalStorage(cfg.LocalUploadsPath)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
