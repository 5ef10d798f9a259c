package storage

import (
	"context"
	"io"
	"time"
)

// FileStorage stores evidence file bytes. Metadata lives in the database;
// only an opaque storage key crosses this boundary.
type FileStorage interface {
	// Upload stores the file and returns its storage key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Download retrieves a file
	Download(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file
	Delete(ctx context.Context, path string) error

	// GetURL generates a presigned/public URL
	GetURL(ctx context.Context, path string, expiry time.Duration) (string, error)

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}
