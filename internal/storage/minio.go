// Package storage – MinIO-compatible object store backend.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Object-store writes retry on transient network failures; the attempt
// count is deliberately small so callers see hard failures quickly.
const (
	objectStoreRetries    = 3
	objectStoreRetryDelay = 200 * time.Millisecond
)

// ObjectStoreConfig holds connection parameters for a MinIO-compatible
// endpoint. Values arrive through the configuration surface; this package
// never reads environment variables itself.
type ObjectStoreConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// ObjectStore persists objects in a single bucket of a MinIO-compatible
// object store. Stored paths are full object keys (Part A + B + C).
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore connects to the configured endpoint and ensures the
// bucket exists.
func NewObjectStore(ctx context.Context, cfg ObjectStoreConfig) (*ObjectStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("storage: object store endpoint and bucket are required")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}
	return &ObjectStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads data under the given object key, retrying transient
// failures a bounded number of times.
func (o *ObjectStore) Put(ctx context.Context, path string, data []byte) error {
	err := retry.Do(
		func() error {
			_, err := o.client.PutObject(ctx, o.bucket, path,
				bytes.NewReader(data), int64(len(data)),
				minio.PutObjectOptions{ContentType: http.DetectContentType(data)})
			return err
		},
		retry.Context(ctx),
		retry.Attempts(objectStoreRetries),
		retry.Delay(objectStoreRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// Get downloads the object stored under path, returning ErrNotFound when
// the key does not exist.
func (o *ObjectStore) Get(ctx context.Context, path string) ([]byte, error) {
	obj, err := o.client.GetObject(ctx, o.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, &ReadError{Path: path, Err: ErrNotFound}
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

// Delete removes the object under path. Missing keys are not an error.
func (o *ObjectStore) Delete(ctx context.Context, path string) error {
	err := retry.Do(
		func() error {
			return o.client.RemoveObject(ctx, o.bucket, path, minio.RemoveObjectOptions{})
		},
		retry.Context(ctx),
		retry.Attempts(objectStoreRetries),
		retry.Delay(objectStoreRetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil && !isNoSuchKey(err) {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// isNoSuchKey reports whether err is the object-store's missing-key
// response.
func isNoSuchKey(err error) bool {
	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
	}
	return false
}
