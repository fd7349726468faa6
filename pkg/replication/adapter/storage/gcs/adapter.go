// Package gcs stores objects in Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	storageConfig "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// ProviderType is the `type` value selecting this backend.
const ProviderType = "gcs"

func init() {
	storage.RegisterFactory(ProviderType, func(ctx context.Context, cfg storageConfig.StorageConfig, name string) (storage.ObjectStore, error) {
		return NewAdapter(ctx, cfg, name)
	})
}

// Adapter implements storage.ObjectStore on a GCS client.
type Adapter struct {
	client *gcstorage.Client
	cfg    storageConfig.StorageConfig
	name   string
}

var _ storage.ObjectStore = (*Adapter)(nil)

// NewAdapter creates a client from cfg. Application default credentials are used
// unless CredentialsFile is set.
func NewAdapter(ctx context.Context, cfg storageConfig.StorageConfig, name string) (*Adapter, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs storage '%s': failed to create client: %w", name, err)
	}
	return NewAdapterWithClient(client, cfg, name), nil
}

// NewAdapterWithClient wraps an existing client.
func NewAdapterWithClient(client *gcstorage.Client, cfg storageConfig.StorageConfig, name string) *Adapter {
	return &Adapter{client: client, cfg: cfg, name: name}
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Close() error {
	return a.client.Close()
}

func (a *Adapter) object(bucket, objectName string) *gcstorage.ObjectHandle {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	return a.client.Bucket(bucket).Object(objectName)
}

func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	w := a.object(bucket, objectName).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, data); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs write failed for %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs close failed for %s: %w", objectName, err)
	}
	return nil
}

func (a *Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	r, err := a.object(bucket, objectName).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("gcs get failed for %s: %w", objectName, err)
	}
	return r, nil
}

func (a *Adapter) Exists(ctx context.Context, bucket, objectName string) (bool, error) {
	_, err := a.object(bucket, objectName).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("gcs attrs failed for %s: %w", objectName, err)
	}
	return true, nil
}

func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	it := a.client.Bucket(bucket).Objects(ctx, &gcstorage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("gcs list failed for prefix '%s': %w", prefix, err)
		}
		if err := fn(attrs.Name); err != nil {
			return err
		}
	}
}

func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	err := a.object(bucket, objectName).Delete(ctx)
	if err != nil {
		if errors.Is(err, gcstorage.ErrObjectNotExist) {
			logger.Warnf("GCS storage '%s': object %s already absent.", a.name, objectName)
			return nil
		}
		return fmt.Errorf("gcs delete failed for %s: %w", objectName, err)
	}
	return nil
}
