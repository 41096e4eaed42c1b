// Package storage provides the object store the ingestion pipeline uploads
// normalized assets to. It defines the ObjectStore interface (port) and
// implementations for AWS S3 and MinIO.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrEmptyKey is returned when an operation is attempted without an object key.
var ErrEmptyKey = errors.New("storage: object key is required")

// Presigner produces time-limited read URLs for stored objects.
type Presigner interface {
	// PresignGet returns a URL granting GET access to key for ttl.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ObjectStore defines the interface for persistent object storage.
// Puts are expected to be atomic: on failure no partial object is visible.
type ObjectStore interface {
	Presigner

	// Put stores size bytes read from body under key, tagged with contentType.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}
