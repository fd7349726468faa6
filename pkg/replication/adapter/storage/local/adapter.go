// Package local stores objects as files below a base directory. Buckets map to
// subdirectories, object names map to relative paths.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	storageConfig "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/config"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// ProviderType is the `type` value selecting this backend.
const ProviderType = "local"

func init() {
	storage.RegisterFactory(ProviderType, func(_ context.Context, cfg storageConfig.StorageConfig, name string) (storage.ObjectStore, error) {
		return NewAdapter(cfg, name)
	})
}

// Adapter implements storage.ObjectStore on the local file system.
type Adapter struct {
	cfg  storageConfig.StorageConfig
	name string
}

var _ storage.ObjectStore = (*Adapter)(nil)

// NewAdapter validates BaseDir and creates it when missing.
func NewAdapter(cfg storageConfig.StorageConfig, name string) (*Adapter, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage '%s': base_dir must be set", name)
	}
	info, err := os.Stat(cfg.BaseDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
			return nil, fmt.Errorf("local storage '%s': failed to create base_dir '%s': %w", name, cfg.BaseDir, err)
		}
	case err != nil:
		return nil, fmt.Errorf("local storage '%s': failed to stat base_dir '%s': %w", name, cfg.BaseDir, err)
	case !info.IsDir():
		return nil, fmt.Errorf("local storage '%s': base_dir '%s' is not a directory", name, cfg.BaseDir)
	}
	return &Adapter{cfg: cfg, name: name}, nil
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Close() error { return nil }

// Upload writes to a temporary file and renames it into place so readers never
// observe a partially written object.
func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in '%s': %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write object '%s': %w", objectName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close object '%s': %w", objectName, err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return fmt.Errorf("failed to move object into place at '%s': %w", fullPath, err)
	}
	logger.Debugf("Local storage '%s': wrote %s.", a.name, fullPath)
	return nil
}

func (a *Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("failed to open '%s': %w", fullPath, err)
	}
	return f, nil
}

func (a *Adapter) Exists(ctx context.Context, bucket, objectName string) (bool, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat '%s': %w", fullPath, err)
	}
	return !info.IsDir(), nil
}

// ListObjects walks the bucket directory in lexical order. Object names passed to fn
// are relative to the bucket and always use forward slashes.
func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	root, err := a.resolvePath(bucket, "")
	if err != nil {
		return err
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		objectName := filepath.ToSlash(rel)
		if !strings.HasPrefix(objectName, prefix) {
			return nil
		}
		return fn(objectName)
	})
	if err != nil {
		return fmt.Errorf("failed to list objects under '%s' with prefix '%s': %w", root, prefix, err)
	}
	return nil
}

func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warnf("Local storage '%s': object %s already absent.", a.name, fullPath)
			return nil
		}
		return fmt.Errorf("failed to delete '%s': %w", fullPath, err)
	}
	return nil
}

// resolvePath maps bucket/objectName below BaseDir and refuses paths that escape it.
func (a *Adapter) resolvePath(bucket, objectName string) (string, error) {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	absBase, err := filepath.Abs(a.cfg.BaseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base_dir '%s': %w", a.cfg.BaseDir, err)
	}
	full := filepath.Join(absBase, bucket, filepath.FromSlash(objectName))
	if full != absBase && !strings.HasPrefix(full, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("object path '%s' escapes base_dir '%s'", objectName, a.cfg.BaseDir)
	}
	return full, nil
}
