package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docvault/internal/errs"
	"docvault/internal/model"
	"docvault/internal/repository"
)

// ShareInput describes a new share. Without SharedWithUserID the share is a public link.
type ShareInput struct {
	SharedWithUserID *string
	ExpiresAt        *time.Time
	Permissions      model.Permission
}

// ShareService manages share grants and resolves public links.
type ShareService interface {
	CreateShare(ctx context.Context, ownerID, documentID string, in ShareInput) (*model.Share, error)
	ListShares(ctx context.Context, ownerID, documentID string) ([]model.Share, error)
	// ResolveShare turns a public link token into a read URL for the current version.
	ResolveShare(ctx context.Context, token string) (*ReadURL, error)
}

type shareService struct {
	shares repository.ShareRepository
	repo   repository.DocumentRepository
	docs   DocumentService
	log    *zap.Logger
	now    func() time.Time
}

// NewShareService constructs a ShareService. docs is used for ownership checks and URL issuance.
func NewShareService(
	shares repository.ShareRepository,
	repo repository.DocumentRepository,
	docs DocumentService,
	log *zap.Logger,
) ShareService {
	return &shareService{shares: shares, repo: repo, docs: docs, log: log, now: time.Now}
}

func (s *shareService) CreateShare(ctx context.Context, ownerID, documentID string, in ShareInput) (*model.Share, error) {
	if in.Permissions == "" {
		in.Permissions = model.PermissionView
	}
	if !in.Permissions.Valid() {
		return nil, errs.Validation("permissions must be view or edit")
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, errs.Validation("expires_at must be in the future")
	}
	if in.SharedWithUserID != nil && *in.SharedWithUserID == "" {
		in.SharedWithUserID = nil
	}

	doc, err := s.docs.Get(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}

	share := &model.Share{
		ID:               uuid.NewString(),
		DocumentID:       doc.ID,
		SharedWithUserID: in.SharedWithUserID,
		ExpiresAt:        in.ExpiresAt,
		Permissions:      in.Permissions,
	}
	if share.SharedWithUserID == nil {
		token := uuid.NewString()
		share.PublicLinkToken = &token
	}

	out, err := s.shares.Create(ctx, share)
	if err != nil {
		return nil, err
	}
	s.log.Info("share_created", zap.String("document_id", doc.ID), zap.String("share_id", out.ID))
	return out, nil
}

func (s *shareService) ListShares(ctx context.Context, ownerID, documentID string) ([]model.Share, error) {
	doc, err := s.docs.Get(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	return s.shares.ListByDocument(ctx, doc.ID)
}

func (s *shareService) ResolveShare(ctx context.Context, token string) (*ReadURL, error) {
	if token == "" {
		return nil, errs.Validation("token is required")
	}
	share, err := s.shares.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if share.Expired(s.now()) {
		return nil, fmt.Errorf("share %s: %w", share.ID, errs.ErrShareExpired)
	}

	doc, err := s.repo.FindByID(ctx, share.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted {
		return nil, fmt.Errorf("shared document: %w", errs.ErrNotFound)
	}
	if doc.Pending() {
		return nil, errs.ErrNotCommitted
	}
	v, err := s.repo.FindVersionByID(ctx, *doc.CurrentVersionID)
	if err != nil {
		return nil, err
	}
	return s.docs.IssueReadURL(ctx, v.StorageKey)
}
