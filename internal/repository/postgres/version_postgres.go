package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"docvault/internal/errs"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const versionColumns = `id, document_id, version_number, storage_key, size, comment, created_at`

func scanVersion(s scanner) (*model.DocumentVersion, error) {
	var v model.DocumentVersion
	if err := s.Scan(
		&v.ID,
		&v.DocumentID,
		&v.VersionNumber,
		&v.StorageKey,
		&v.Size,
		&v.Comment,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &v, nil
}

// commitTxOptions keeps commits at READ COMMITTED. The row lock orders concurrent commits and
// each later statement sees the rows committed before the lock was granted. Under REPEATABLE
// READ or SERIALIZABLE a waiter would fail with 40001 as soon as the holder commits.
var commitTxOptions = &sql.TxOptions{Isolation: sql.LevelReadCommitted}

// CommitVersion allocates and records the next version with the document row locked.
// UNIQUE(document_id, version_number) backs the allocation; a violation maps to errs.ErrConflict.
func (r *DocumentPostgres) CommitVersion(
	ctx context.Context, c repository.VersionCommit, stage repository.StageFunc,
) (out *model.DocumentVersion, err error) {
	tx, err := r.db.BeginTx(ctx, commitTxOptions)
	if err != nil {
		return nil, dbErr("begin commit", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			out, err = nil, dbErr("commit version", e)
		}
	}()

	sel := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 FOR UPDATE`
	doc, err := scanDocument(tx.QueryRowContext(ctx, sel, c.DocumentID))
	if err != nil {
		return nil, dbErr("lock document", err)
	}
	if c.OwnerID != "" && doc.OwnerID != c.OwnerID {
		return nil, fmt.Errorf("lock document: %w", errs.ErrNotFound)
	}

	var current int
	const qMax = `SELECT COALESCE(MAX(version_number), 0) FROM document_versions WHERE document_id = $1`
	if err = tx.QueryRowContext(ctx, qMax, doc.ID).Scan(&current); err != nil {
		return nil, dbErr("next version number", err)
	}
	next := current + 1

	size := doc.Size
	if c.Size > 0 {
		size = c.Size
	}

	key := doc.StorageKey
	if stage != nil {
		if key, err = stage(ctx, doc, next); err != nil {
			return nil, err
		}
	}

	ins := `
		INSERT INTO document_versions (id, document_id, version_number, storage_key, size, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + versionColumns
	out, err = scanVersion(tx.QueryRowContext(ctx, ins,
		uuid.NewString(),
		doc.ID,
		next,
		key,
		size,
		c.Comment,
	))
	if err != nil {
		return nil, dbErr("insert version", err)
	}

	const upd = `UPDATE documents SET checksum = $2, current_version_id = $3, size = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, upd, doc.ID, c.Checksum, out.ID, size); err != nil {
		return nil, dbErr("point document at version", err)
	}
	return out, nil
}

// FindVersion returns version number n of a document.
func (r *DocumentPostgres) FindVersion(ctx context.Context, documentID string, n int) (*model.DocumentVersion, error) {
	q := `SELECT ` + versionColumns + ` FROM document_versions WHERE document_id = $1 AND version_number = $2`
	v, err := scanVersion(r.db.QueryRowContext(ctx, q, documentID, n))
	if err != nil {
		return nil, dbErr("find version", err)
	}
	return v, nil
}

// FindVersionByID returns a version by its ID.
func (r *DocumentPostgres) FindVersionByID(ctx context.Context, id string) (*model.DocumentVersion, error) {
	q := `SELECT ` + versionColumns + ` FROM document_versions WHERE id = $1`
	v, err := scanVersion(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, dbErr("find version", err)
	}
	return v, nil
}

// ListVersions returns every version of a document, newest first.
func (r *DocumentPostgres) ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	q := `
		SELECT ` + versionColumns + `
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, dbErr("list versions", err)
	}
	defer rows.Close()

	out := make([]model.DocumentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, dbErr("list versions", err)
		}
		out = append(out, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list versions", err)
	}
	return out, nil
}
