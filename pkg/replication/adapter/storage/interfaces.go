// Package storage defines the object storage abstraction used by the document-backed
// job status store and by workload output retrieval. Concrete backends (local file
// system, GCS, S3) live in subpackages and register themselves by type.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned (wrapped) by Download when the object does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectExecutor defines the object operations every backend supports.
type ObjectExecutor interface {
	// Upload writes data to bucket/objectName, replacing any existing object.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download opens bucket/objectName for reading. The caller closes the reader.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// Exists reports whether bucket/objectName is present.
	Exists(ctx context.Context, bucket, objectName string) (bool, error)
	// ListObjects calls fn for every object under prefix. Returning an error from fn stops the walk.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes bucket/objectName. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
}

// ObjectStore is a named, closable connection to one storage backend.
type ObjectStore interface {
	ObjectExecutor

	// Type returns the backend type ("local", "gcs", "s3").
	Type() string
	// Name returns the configured connection name.
	Name() string
	// Close releases the underlying client.
	Close() error
}

// Provider hands out named ObjectStore connections built from configuration.
type Provider interface {
	// GetConnection returns the connection for name, creating it on first use.
	GetConnection(ctx context.Context, name string) (ObjectStore, error)
	// CloseAll closes every connection created so far.
	CloseAll() error
}
