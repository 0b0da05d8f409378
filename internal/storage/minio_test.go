package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/config"
	"docvault/internal/errs"
)

// fakeS3 records request paths and answers HEAD/DELETE like an empty bucket.
type fakeS3 struct {
	mu    sync.Mutex
	paths []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.paths = append(f.paths, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	switch r.Method {
	case http.MethodHead:
		w.WriteHeader(http.StatusNotFound)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newTestMinIO(t *testing.T, endpoint string) *MinIO {
	t.Helper()
	m, err := newMinIO(config.MinIOConfig{
		Endpoint:  endpoint,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "docs",
		Region:    "us-east-1",
	})
	require.NoError(t, err)
	return m
}

func TestNewMinIO_Validation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		cfg  config.MinIOConfig
	}{
		{name: "missing endpoint", cfg: config.MinIOConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{name: "missing credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"}},
		{name: "missing bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMinIO(ctx, tt.cfg)
			assert.Error(t, err)
			assert.Nil(t, m)
		})
	}
}

func TestMinIO_PresignNormalizesKey(t *testing.T) {
	m := newTestMinIO(t, "localhost:9000")
	ctx := context.Background()

	t.Run("put", func(t *testing.T) {
		raw, err := m.PresignPut(ctx, "/docs/users/u1/d1", "application/pdf", 1024, 15*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "/docs/users/u1/d1", u.Path)
		assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
		assert.Contains(t, u.Query().Get("X-Amz-SignedHeaders"), "content-type")
	})

	t.Run("get", func(t *testing.T) {
		raw, err := m.PresignGet(ctx, "docs/users/u1/d1/v2", 15*time.Minute)
		require.NoError(t, err)

		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "/docs/users/u1/d1/v2", u.Path)
		assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	})
}

func TestMinIO_StatMissingObject(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	m := newTestMinIO(t, strings.TrimPrefix(srv.URL, "http://"))

	_, err := m.Stat(context.Background(), "/users/u1/d1")
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.paths)
	assert.Equal(t, "HEAD /docs/users/u1/d1", fake.paths[len(fake.paths)-1])
}

func TestMinIO_DeleteNormalizesKey(t *testing.T) {
	fake := &fakeS3{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	m := newTestMinIO(t, strings.TrimPrefix(srv.URL, "http://"))

	require.NoError(t, m.Delete(context.Background(), "docs/users/u1/d1"))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.paths, "DELETE /docs/users/u1/d1")
}
