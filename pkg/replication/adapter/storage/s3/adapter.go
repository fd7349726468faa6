// Package s3 stores objects in Amazon S3 or an S3-compatible service.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/tigerroll/syncwave/pkg/replication/adapter/storage"
	storageConfig "github.com/tigerroll/syncwave/pkg/replication/adapter/storage/config"
)

// ProviderType is the `type` value selecting this backend.
const ProviderType = "s3"

func init() {
	storage.RegisterFactory(ProviderType, func(ctx context.Context, cfg storageConfig.StorageConfig, name string) (storage.ObjectStore, error) {
		return NewAdapter(ctx, cfg, name)
	})
}

// Adapter implements storage.ObjectStore on an S3 client.
type Adapter struct {
	client *s3.Client
	cfg    storageConfig.StorageConfig
	name   string
}

var _ storage.ObjectStore = (*Adapter)(nil)

// NewAdapter loads the default AWS configuration for cfg.Region. A custom Endpoint
// implies path-style addressing (MinIO, LocalStack).
func NewAdapter(ctx context.Context, cfg storageConfig.StorageConfig, name string) (*Adapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3 storage '%s': failed to load AWS config: %w", name, err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.UsePathStyle {
			o.UsePathStyle = true
		}
	})
	return NewAdapterWithClient(client, cfg, name), nil
}

// NewAdapterWithClient wraps an existing client.
func NewAdapterWithClient(client *s3.Client, cfg storageConfig.StorageConfig, name string) *Adapter {
	return &Adapter{client: client, cfg: cfg, name: name}
}

func (a *Adapter) Type() string { return ProviderType }

func (a *Adapter) Name() string { return a.name }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) bucket(bucket string) *string {
	if bucket == "" {
		bucket = a.cfg.BucketName
	}
	return aws.String(bucket)
}

// Upload buffers data so the SDK can compute the payload checksum up front.
func (a *Adapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("s3 read failed for %s: %w", objectName, err)
	}
	input := &s3.PutObjectInput{
		Bucket: a.bucket(bucket),
		Key:    aws.String(objectName),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := a.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put failed for %s: %w", objectName, err)
	}
	return nil
}

func (a *Adapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: a.bucket(bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, objectName)
		}
		return nil, fmt.Errorf("s3 get failed for %s: %w", objectName, err)
	}
	return out.Body, nil
}

func (a *Adapter) Exists(ctx context.Context, bucket, objectName string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: a.bucket(bucket),
		Key:    aws.String(objectName),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("s3 head failed for %s: %w", objectName, err)
	}
	return true, nil
}

func (a *Adapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	pager := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: a.bucket(bucket),
		Prefix: aws.String(prefix),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("s3 list failed for prefix '%s': %w", prefix, err)
		}
		for _, obj := range page.Contents {
			if err := fn(aws.ToString(obj.Key)); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteObject relies on S3 treating deletes of missing keys as success.
func (a *Adapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: a.bucket(bucket),
		Key:    aws.String(objectName),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete failed for %s: %w", objectName, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound
}
