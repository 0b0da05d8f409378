package repository

import (
	"context"
	"time"

	"docvault/internal/model"
)

// DocumentRepository defines data access for documents and their versions using SQL only.
// Implementations translate driver errors into the errs taxonomy: missing rows become
// errs.ErrNotFound, transaction conflicts errs.ErrConflict, anything else errs.ErrPersistence.
type DocumentRepository interface {
	// Create inserts a new pending document and returns the stored record.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID regardless of its deleted flag.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns one page of the owner's documents and the total count.
	List(ctx context.Context, ownerID string, q ListQuery) (*PageResult[model.Document], error)

	// UpdateSize replaces the declared size of a document.
	UpdateSize(ctx context.Context, id string, size int64) error

	// SetDeleted flips the soft-delete flag.
	SetDeleted(ctx context.Context, id string, deleted bool) error

	// CommitVersion allocates the next version number and records the version in one
	// serializable transaction; see VersionCommit and StageFunc.
	CommitVersion(ctx context.Context, c VersionCommit, stage StageFunc) (*model.DocumentVersion, error)

	// FindVersion returns version number n of a document.
	FindVersion(ctx context.Context, documentID string, n int) (*model.DocumentVersion, error)

	// FindVersionByID returns a version by its ID.
	FindVersionByID(ctx context.Context, id string) (*model.DocumentVersion, error)

	// ListVersions returns all versions of a document, newest first.
	ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error)

	// HardDelete locks the document row, then removes its versions, shares and the row itself in
	// one transaction, returning every distinct storage key those rows referenced. With pendingOnly
	// set, a document that already has a current version is left alone and errs.ErrConflict returned.
	HardDelete(ctx context.Context, id string, pendingOnly bool) ([]string, error)

	// ListStalePending returns documents without a committed version created before the cutoff,
	// oldest first.
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Document, error)
}

// VersionCommit carries the caller-supplied parts of a new version.
// OwnerID, when set, must match the locked document or the commit fails with errs.ErrNotFound.
// A positive Size replaces the document's declared size for this version.
type VersionCommit struct {
	DocumentID string
	OwnerID    string
	Checksum   *string
	Comment    *string
	Size       int64
}

// StageFunc runs inside the commit transaction once the version number is known and the
// document row is locked. It returns the storage key the version will reference.
// Its error aborts the transaction and is returned unchanged.
type StageFunc func(ctx context.Context, doc *model.Document, number int) (string, error)

// ListQuery holds owner-scoped list parameters.
type ListQuery struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
