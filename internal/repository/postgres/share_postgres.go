package postgres

import (
	"context"
	"database/sql"

	"docvault/internal/model"
	"docvault/internal/repository"
)

const shareColumns = `id, document_id, shared_with_user_id, public_link_token, expires_at, permissions, created_at`

// SharePostgres is a PostgreSQL implementation of repository.ShareRepository.
type SharePostgres struct {
	db *sql.DB
}

// NewSharePostgres creates a new SharePostgres repository.
func NewSharePostgres(db *sql.DB) *SharePostgres {
	return &SharePostgres{db: db}
}

var _ repository.ShareRepository = (*SharePostgres)(nil)

func scanShare(s scanner) (*model.Share, error) {
	var sh model.Share
	if err := s.Scan(
		&sh.ID,
		&sh.DocumentID,
		&sh.SharedWithUserID,
		&sh.PublicLinkToken,
		&sh.ExpiresAt,
		&sh.Permissions,
		&sh.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &sh, nil
}

// Create inserts a share row and returns the stored record.
func (r *SharePostgres) Create(ctx context.Context, s *model.Share) (*model.Share, error) {
	q := `
		INSERT INTO shares (id, document_id, shared_with_user_id, public_link_token, expires_at, permissions)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + shareColumns
	out, err := scanShare(r.db.QueryRowContext(ctx, q,
		s.ID,
		s.DocumentID,
		s.SharedWithUserID,
		s.PublicLinkToken,
		s.ExpiresAt,
		string(s.Permissions),
	))
	if err != nil {
		return nil, dbErr("create share", err)
	}
	return out, nil
}

// ListByDocument returns the shares of a document, newest first.
func (r *SharePostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Share, error) {
	q := `SELECT ` + shareColumns + ` FROM shares WHERE document_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, dbErr("list shares", err)
	}
	defer rows.Close()

	out := make([]model.Share, 0)
	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, dbErr("list shares", err)
		}
		out = append(out, *sh)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list shares", err)
	}
	return out, nil
}

// FindByToken resolves a public link token.
func (r *SharePostgres) FindByToken(ctx context.Context, token string) (*model.Share, error) {
	q := `SELECT ` + shareColumns + ` FROM shares WHERE public_link_token = $1`
	sh, err := scanShare(r.db.QueryRowContext(ctx, q, token))
	if err != nil {
		return nil, dbErr("find share", err)
	}
	return sh, nil
}
