package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	cfg "github.com/yaqa/yaqa/internal/config"
)

var ErrNotFound = errors.New("object not found")

// Storage holds image payloads addressed by an opaque key.
type Storage interface {
	// Save stores the content under key
	Save(ctx context.Context, key string, content io.Reader) error

	// Open returns the content stored under key or ErrNotFound
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content stored under key
	Delete(ctx context.Context, key string) error
}

// Presigner is implemented by storages that can hand out short-lived
// direct download URLs.
type Presigner interface {
	PresignedURL(ctx context.Context, key string) (string, error)
}

// New picks the backend configured by IMAGE_STORAGE.
func New(c *cfg.Config, db *sqlx.DB) (Storage, error) {
	switch c.ImageStorage {
	case cfg.ImageStorageDatabase, "":
		slog.Info("initializing database image storage")
		return NewDBStorage(db), nil
	case cfg.ImageStorageS3:
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(context.Background(), S3Config{
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Endpoint:      c.S3Endpoint,
			PresignExpiry: c.S3PresignExpiry,
		})
	default:
		return nil, fmt.Errorf("unknown image storage %q", c.ImageStorage)
	}
}
