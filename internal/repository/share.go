package repository

import (
	"context"

	"docvault/internal/model"
)

// ShareRepository persists share grants.
type ShareRepository interface {
	// Create inserts a share and returns the stored record.
	Create(ctx context.Context, s *model.Share) (*model.Share, error)
	// ListByDocument returns all shares of a document, newest first.
	ListByDocument(ctx context.Context, documentID string) ([]model.Share, error)
	// FindByToken resolves a public link token.
	FindByToken(ctx context.Context, token string) (*model.Share, error)
}
