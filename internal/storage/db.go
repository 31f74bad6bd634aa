package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
)

// DBStorage keeps payloads in the image_blobs table next to the metadata.
type DBStorage struct {
	db *sqlx.DB
}

func NewDBStorage(db *sqlx.DB) *DBStorage {
	return &DBStorage{db: db}
}

func (s *DBStorage) Save(ctx context.Context, key string, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO image_blobs (storage_key, content) VALUES ($1, $2)`, key, data)
	if err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}

	return nil
}

func (s *DBStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, `SELECT content FROM image_blobs WHERE storage_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load blob: %w", err)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *DBStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM image_blobs WHERE storage_key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
