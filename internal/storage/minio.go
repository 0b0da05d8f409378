package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"docvault/internal/config"
	"docvault/internal/errs"
)

// MinIO implements Storage against an S3-compatible backend (MinIO, AWS S3, etc.).
// It is safe for concurrent use by multiple goroutines.
type MinIO struct {
	client *minio.Client
	bucket string
}

var _ Storage = (*MinIO)(nil)

// NewMinIO creates the storage client. It validates connectivity and ensures the bucket
// exists (creates it if missing). Outgoing requests are traced through otelhttp.
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (*MinIO, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio credentials are required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	m, err := newMinIO(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := m.client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return m, nil
}

func newMinIO(cfg config.MinIOConfig) (*MinIO, error) {
	base, err := minio.DefaultTransport(cfg.UseSSL)
	if err != nil {
		return nil, fmt.Errorf("create minio transport: %w", err)
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: otelhttp.NewTransport(base),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIO{client: cli, bucket: cfg.Bucket}, nil
}

func (m *MinIO) key(k string) string {
	return NormalizeKey(m.bucket, k)
}

// PresignPut signs a PUT for key bound to the given content type (and length when known).
func (m *MinIO) PresignPut(ctx context.Context, key, contentType string, size int64, expiry time.Duration) (string, error) {
	headers := http.Header{}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	if size > 0 {
		headers.Set("Content-Length", strconv.FormatInt(size, 10))
	}

	u, err := m.client.PresignHeader(ctx, http.MethodPut, m.bucket, m.key(key), expiry, url.Values{}, headers)
	if err != nil {
		return "", wrapErr("presign put", err)
	}
	return u.String(), nil
}

// PresignGet generates a pre-signed URL for GET with the specified expiry.
func (m *MinIO) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, m.key(key), expiry, url.Values{})
	if err != nil {
		return "", wrapErr("presign get", err)
	}
	return u.String(), nil
}

// Get downloads an object content as a ReadCloser along with basic info.
func (m *MinIO) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	k := m.key(key)
	obj, err := m.client.GetObject(ctx, m.bucket, k, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, wrapErr("get object", err)
	}
	// GetObject is lazy; Stat performs the request so a missing key fails here, not mid-stream.
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, wrapErr("get object", err)
	}
	return obj, toInfo(k, st), nil
}

// Stat returns object metadata.
func (m *MinIO) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	k := m.key(key)
	st, err := m.client.StatObject(ctx, m.bucket, k, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, wrapErr("stat object", err)
	}
	return toInfo(k, st), nil
}

// Copy duplicates src to dst inside the bucket without streaming through this process.
func (m *MinIO) Copy(ctx context.Context, src, dst string) (ObjectInfo, error) {
	d := m.key(dst)
	info, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: d},
		minio.CopySrcOptions{Bucket: m.bucket, Object: m.key(src)},
	)
	if err != nil {
		return ObjectInfo{}, wrapErr("copy object", err)
	}
	return ObjectInfo{
		Key:          d,
		Size:         info.Size,
		ETag:         info.ETag,
		LastModified: info.LastModified,
	}, nil
}

// Delete removes an object by key.
func (m *MinIO) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, m.key(key), minio.RemoveObjectOptions{}); err != nil {
		return wrapErr("remove object", err)
	}
	return nil
}

func toInfo(key string, st minio.ObjectInfo) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         st.Size,
		ETag:         st.ETag,
		ContentType:  st.ContentType,
		LastModified: st.LastModified,
		Metadata:     st.UserMetadata,
	}
}

func wrapErr(op string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%s: %w: %w", op, errs.ErrObjectNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
