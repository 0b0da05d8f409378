package storage

import (
	"context"
	"io"
	"time"
)

// Package storage contains the object storage abstraction used by the upload lifecycle and
// the key layout rules shared by every call site. Implementations never buffer object bytes
// on local disk; reads are streamed.

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client.
// Every method normalizes the key it is given (see NormalizeKey) before talking to the backend.
// Errors for absent objects wrap errs.ErrObjectNotFound.
type Storage interface {
	// PresignPut returns a time-limited URL for uploading exactly one object at key.
	// The signature is bound to contentType; size is sent as Content-Length when positive.
	PresignPut(ctx context.Context, key, contentType string, size int64, expiry time.Duration) (string, error)
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Stat returns object info without reading content.
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	// Copy duplicates src to dst server-side.
	Copy(ctx context.Context, src, dst string) (ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
}
