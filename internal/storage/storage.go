// Package storage provides the object store gateway used to persist job
// artifacts. It defines the ObjectStore interface (port) and
// implementations for S3 and local disk.
package storage

import (
	"context"
	"io"
)

// ObjectStore defines the interface for durable artifact storage.
// Keys are slash-separated paths namespaced by operation category and
// user identity, e.g. "videos/effects/<userID>/<fileName>".
type ObjectStore interface {
	// Put stores the data under key with the given content type and
	// returns the retrieval URL.
	Put(ctx context.Context, key string, data io.Reader, contentType string) (url string, err error)

	// Get retrieves a stored object by key.
	// The caller is responsible for closing the returned ReadCloser.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
