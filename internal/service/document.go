package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"docvault/internal/config"
	"docvault/internal/errs"
	"docvault/internal/metrics"
	"docvault/internal/model"
	"docvault/internal/repository"
	"docvault/internal/storage"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100

	defaultCommitBackoff = 25 * time.Millisecond
	maxCommitBackoff     = time.Second
	commitBackoffJitter  = 50
)

// Options tunes the upload lifecycle.
type Options struct {
	// URLTTL bounds every presigned URL.
	URLTTL time.Duration
	// MaxSize caps the declared size of an upload; zero disables the cap.
	MaxSize int64
	// PerVersionKeys copies each committed upload to users/{owner}/{doc}/v{n}.
	// When false every version references the document key.
	PerVersionKeys bool
	// VerifyOnComplete stats the uploaded object before committing.
	VerifyOnComplete bool
	// CommitRetries is how many times a conflicting commit is retried.
	CommitRetries int
	// CommitBackoff is the base delay before a retry; it doubles per attempt with jitter.
	CommitBackoff time.Duration
	// StageTimeout bounds the version copy made while the document row is locked.
	StageTimeout time.Duration
}

// OptionsFromConfig maps the upload section of the app config.
func OptionsFromConfig(c config.UploadConfig) Options {
	return Options{
		URLTTL:           c.URLTTL,
		MaxSize:          c.MaxSize,
		PerVersionKeys:   c.VersionKeys != config.VersionKeysLegacy,
		VerifyOnComplete: c.VerifyOnComplete,
		CommitRetries:    c.CommitRetries,
		CommitBackoff:    c.CommitBackoff,
		StageTimeout:     c.StageTimeout,
	}
}

// BeginUploadInput describes a new document announced by the uploader.
type BeginUploadInput struct {
	Name     string
	MimeType string
	Size     int64
	FolderID *string
}

// CompleteUploadInput carries the optional metadata of a commit.
type CompleteUploadInput struct {
	Checksum *string
	Comment  *string
}

// ListInput holds pagination for List.
type ListInput struct {
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// ReadURL is a time-limited GET URL for one object.
type ReadURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService defines the upload, versioning and read use cases. Every owner-scoped
// operation reports errs.ErrNotFound for documents that belong to someone else.
type DocumentService interface {
	// BeginUpload records a pending document and returns a write URL for its key.
	BeginUpload(ctx context.Context, ownerID string, in BeginUploadInput) (*model.UploadTicket, error)

	// BeginVersionUpload issues a fresh write URL on the document key for the next version.
	// A positive size replaces the declared size.
	BeginVersionUpload(ctx context.Context, ownerID, documentID string, size int64) (*model.UploadTicket, error)

	// CompleteUpload commits the uploaded bytes as the next version.
	CompleteUpload(ctx context.Context, ownerID, documentID string, in CompleteUploadInput) (*model.DocumentVersion, error)

	// IssueReadURL presigns a GET for a storage key.
	IssueReadURL(ctx context.Context, storageKey string) (*ReadURL, error)

	// DownloadURL presigns a GET for the given version, or the current one when version is 0.
	DownloadURL(ctx context.Context, ownerID, documentID string, version int) (*ReadURL, error)

	// OpenContent opens the object of the given version (0 for current) for proxied streaming.
	// The caller closes the reader.
	OpenContent(ctx context.Context, ownerID, documentID string, version int) (io.ReadCloser, storage.ObjectInfo, error)

	Get(ctx context.Context, ownerID, documentID string) (*model.Document, error)
	List(ctx context.Context, ownerID string, in ListInput) (*DocumentListResult, error)
	ListVersions(ctx context.Context, ownerID, documentID string) ([]model.DocumentVersion, error)

	// SetDeleted soft-deletes or restores a document.
	SetDeleted(ctx context.Context, ownerID, documentID string, deleted bool) error

	// HardDelete removes the document rows, then deletes the objects best effort.
	HardDelete(ctx context.Context, ownerID, documentID string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store   storage.Storage
	repo    repository.DocumentRepository
	log     *zap.Logger
	metrics *metrics.Lifecycle
	opts    Options
	now     func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(
	store storage.Storage,
	repo repository.DocumentRepository,
	log *zap.Logger,
	m *metrics.Lifecycle,
	opts Options,
) DocumentService {
	return &documentService{
		store:   store,
		repo:    repo,
		log:     log,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

func (s *documentService) BeginUpload(ctx context.Context, ownerID string, in BeginUploadInput) (*model.UploadTicket, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.MimeType = strings.TrimSpace(in.MimeType)
	switch {
	case ownerID == "":
		return nil, errs.ErrUnauthorized
	case in.Name == "":
		return nil, errs.Validation("name is required")
	case in.MimeType == "":
		return nil, errs.Validation("mime_type is required")
	}
	if err := s.checkSize(in.Size); err != nil {
		return nil, err
	}
	if in.FolderID != nil {
		if _, err := uuid.Parse(*in.FolderID); err != nil {
			return nil, errs.Validation("folder_id must be a UUID")
		}
	}

	id := uuid.NewString()
	doc, err := s.repo.Create(ctx, &model.Document{
		ID:         id,
		OwnerID:    ownerID,
		FolderID:   in.FolderID,
		Name:       in.Name,
		MimeType:   in.MimeType,
		Size:       in.Size,
		StorageKey: storage.OwnerKey(ownerID, id),
	})
	if err != nil {
		return nil, err
	}

	// The row stays behind on presign failure; the sweeper reclaims it.
	ticket, err := s.ticket(ctx, doc, in.Size)
	if err != nil {
		return nil, err
	}

	s.log.Info("upload_begun",
		zap.String("document_id", doc.ID),
		zap.String("owner_id", ownerID),
		zap.Int64("size", in.Size),
	)
	return ticket, nil
}

func (s *documentService) BeginVersionUpload(ctx context.Context, ownerID, documentID string, size int64) (*model.UploadTicket, error) {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted {
		return nil, fmt.Errorf("begin version upload: %w", errs.ErrNotFound)
	}
	if size != 0 {
		if err := s.checkSize(size); err != nil {
			return nil, err
		}
		if size != doc.Size {
			if err := s.repo.UpdateSize(ctx, doc.ID, size); err != nil {
				return nil, err
			}
			doc.Size = size
		}
	}

	ticket, err := s.ticket(ctx, doc, doc.Size)
	if err != nil {
		return nil, err
	}
	s.log.Info("version_upload_begun", zap.String("document_id", doc.ID), zap.Int64("size", doc.Size))
	return ticket, nil
}

func (s *documentService) ticket(ctx context.Context, doc *model.Document, size int64) (*model.UploadTicket, error) {
	expiresAt := s.now().Add(s.opts.URLTTL).UTC()
	url, err := s.store.PresignPut(ctx, doc.StorageKey, doc.MimeType, size, s.opts.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStorage, err)
	}
	s.metrics.UploadsBegun.Inc()
	return &model.UploadTicket{Document: doc, UploadURL: url, ExpiresAt: expiresAt}, nil
}

func (s *documentService) checkSize(size int64) error {
	if size <= 0 {
		return errs.Validation("size must be positive")
	}
	if s.opts.MaxSize > 0 && size > s.opts.MaxSize {
		return errs.Validation(fmt.Sprintf("size exceeds limit of %d bytes", s.opts.MaxSize))
	}
	return nil
}

func (s *documentService) CompleteUpload(ctx context.Context, ownerID, documentID string, in CompleteUploadInput) (*model.DocumentVersion, error) {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}

	commit := repository.VersionCommit{
		DocumentID: doc.ID,
		OwnerID:    ownerID,
		Checksum:   in.Checksum,
		Comment:    in.Comment,
	}
	if s.opts.VerifyOnComplete {
		info, err := s.store.Stat(ctx, doc.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("%w: verify upload: %w", errs.ErrStorage, err)
		}
		commit.Size = info.Size
	}

	var stage repository.StageFunc
	if s.opts.PerVersionKeys {
		stage = s.copyToVersionKey
	}

	attempt := 0
	v, err := retry.DoValue(ctx, s.commitBackoff(), func(ctx context.Context) (*model.DocumentVersion, error) {
		attempt++
		v, err := s.repo.CommitVersion(ctx, commit, stage)
		if err == nil || !errors.Is(err, errs.ErrConflict) {
			return v, err
		}
		s.metrics.CommitConflicts.Inc()
		s.log.Debug("version_commit_conflict", zap.String("document_id", doc.ID), zap.Int("attempt", attempt), zap.Error(err))
		return nil, retry.RetryableError(err)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.VersionsCommitted.Inc()
	s.log.Info("version_committed",
		zap.String("document_id", doc.ID),
		zap.String("version_id", v.ID),
		zap.Int("version_number", v.VersionNumber),
		zap.Int("attempts", attempt),
	)
	return v, nil
}

// commitBackoff spaces conflicting commits apart so contenders for one document stop
// colliding in lockstep. A fresh backoff is built per call because it is stateful.
func (s *documentService) commitBackoff() retry.Backoff {
	base := s.opts.CommitBackoff
	if base <= 0 {
		base = defaultCommitBackoff
	}
	retries := s.opts.CommitRetries
	if retries < 0 {
		retries = 0
	}
	b := retry.NewExponential(base)
	b = retry.WithJitterPercent(commitBackoffJitter, b)
	b = retry.WithCappedDuration(maxCommitBackoff, b)
	return retry.WithMaxRetries(uint64(retries), b)
}

// copyToVersionKey preserves the uploaded bytes under the version key before the row is written.
func (s *documentService) copyToVersionKey(ctx context.Context, doc *model.Document, n int) (string, error) {
	if s.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.StageTimeout)
		defer cancel()
	}
	key := storage.VersionKey(doc.StorageKey, n)
	if _, err := s.store.Copy(ctx, doc.StorageKey, key); err != nil {
		return "", fmt.Errorf("%w: stage version %d: %w", errs.ErrStorage, n, err)
	}
	return key, nil
}

func (s *documentService) IssueReadURL(ctx context.Context, storageKey string) (*ReadURL, error) {
	if storageKey == "" {
		return nil, errs.Validation("storage key is required")
	}
	expiresAt := s.now().Add(s.opts.URLTTL).UTC()
	url, err := s.store.PresignGet(ctx, storageKey, s.opts.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrStorage, err)
	}
	return &ReadURL{URL: url, ExpiresAt: expiresAt}, nil
}

func (s *documentService) DownloadURL(ctx context.Context, ownerID, documentID string, version int) (*ReadURL, error) {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	key, err := s.versionKey(ctx, doc, version)
	if err != nil {
		return nil, err
	}
	return s.IssueReadURL(ctx, key)
}

func (s *documentService) OpenContent(ctx context.Context, ownerID, documentID string, version int) (io.ReadCloser, storage.ObjectInfo, error) {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	key, err := s.versionKey(ctx, doc, version)
	if err != nil {
		return nil, storage.ObjectInfo{}, err
	}
	rc, info, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %w", errs.ErrStorage, err)
	}
	if info.ContentType == "" {
		info.ContentType = doc.MimeType
	}
	return rc, info, nil
}

// versionKey resolves the storage key of version n, or of the current version when n is 0.
func (s *documentService) versionKey(ctx context.Context, doc *model.Document, n int) (string, error) {
	if n < 0 {
		return "", errs.Validation("version must be positive")
	}
	if n > 0 {
		v, err := s.repo.FindVersion(ctx, doc.ID, n)
		if err != nil {
			return "", err
		}
		return v.StorageKey, nil
	}
	if doc.Pending() {
		return "", errs.ErrNotCommitted
	}
	v, err := s.repo.FindVersionByID(ctx, *doc.CurrentVersionID)
	if err != nil {
		return "", err
	}
	return v.StorageKey, nil
}

func (s *documentService) Get(ctx context.Context, ownerID, documentID string) (*model.Document, error) {
	return s.owned(ctx, ownerID, documentID)
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, ownerID string, in ListInput) (*DocumentListResult, error) {
	if ownerID == "" {
		return nil, errs.ErrUnauthorized
	}
	if in.Limit <= 0 {
		in.Limit = defaultListLimit
	}
	if in.Limit > maxListLimit {
		in.Limit = maxListLimit
	}
	if in.Offset < 0 {
		in.Offset = 0
	}

	res, err := s.repo.List(ctx, ownerID, repository.ListQuery{
		Limit:          in.Limit,
		Offset:         in.Offset,
		IncludeDeleted: in.IncludeDeleted,
	})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *documentService) ListVersions(ctx context.Context, ownerID, documentID string) ([]model.DocumentVersion, error) {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListVersions(ctx, doc.ID)
}

func (s *documentService) SetDeleted(ctx context.Context, ownerID, documentID string, deleted bool) error {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if doc.IsDeleted == deleted {
		return nil
	}
	if err := s.repo.SetDeleted(ctx, doc.ID, deleted); err != nil {
		return err
	}
	s.log.Info("document_deleted_flag", zap.String("document_id", doc.ID), zap.Bool("deleted", deleted))
	return nil
}

func (s *documentService) HardDelete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.owned(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	return purge(ctx, s.repo, s.store, s.log, s.metrics, doc.ID, false)
}

// owned loads a document and hides it from anyone but its owner.
func (s *documentService) owned(ctx context.Context, ownerID, documentID string) (*model.Document, error) {
	if ownerID == "" {
		return nil, errs.ErrUnauthorized
	}
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, errs.Validation("document id must be a UUID")
	}
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, fmt.Errorf("document %s: %w", documentID, errs.ErrNotFound)
	}
	return doc, nil
}

// purge removes the document rows and then every object they referenced. Object deletion
// failures are logged and counted; the database outcome is what the caller sees.
func purge(
	ctx context.Context,
	repo repository.DocumentRepository,
	store storage.Storage,
	log *zap.Logger,
	m *metrics.Lifecycle,
	documentID string,
	pendingOnly bool,
) error {
	keys, err := repo.HardDelete(ctx, documentID, pendingOnly)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			m.StorageDeleteFailures.Inc()
			log.Warn("storage_delete_failed",
				zap.String("document_id", documentID),
				zap.String("storage_key", key),
				zap.Error(err),
			)
		}
	}
	log.Info("document_hard_deleted", zap.String("document_id", documentID), zap.Int("objects", len(keys)))
	return nil
}
