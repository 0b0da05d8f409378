package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"docvault/internal/errs"
	"docvault/internal/model"
	"docvault/internal/repository"
)

const documentColumns = `id, owner_id, folder_id, name, mime_type, size, storage_key, checksum,
	is_deleted, current_version_id, created_at, updated_at`

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.FolderID,
		&d.Name,
		&d.MimeType,
		&d.Size,
		&d.StorageKey,
		&d.Checksum,
		&d.IsDeleted,
		&d.CurrentVersionID,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	q := `
		INSERT INTO documents (id, owner_id, folder_id, name, mime_type, size, storage_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		doc.FolderID,
		doc.Name,
		doc.MimeType,
		doc.Size,
		doc.StorageKey,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, dbErr("create document", err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, dbErr("find document", err)
	}
	return d, nil
}

// List returns the owner's documents using LIMIT/OFFSET pagination and a total count.
// Soft-deleted rows are skipped unless IncludeDeleted is set.
func (r *DocumentPostgres) List(ctx context.Context, ownerID string, lq repository.ListQuery) (*repository.PageResult[model.Document], error) {
	const qCount = `SELECT COUNT(*) FROM documents WHERE owner_id = $1 AND ($2 OR NOT is_deleted)`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, ownerID, lq.IncludeDeleted).Scan(&total); err != nil {
		return nil, dbErr("count documents", err)
	}

	qList := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_id = $1 AND ($2 OR NOT is_deleted)
		ORDER BY updated_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, qList, ownerID, lq.IncludeDeleted, lq.Limit, lq.Offset)
	if err != nil {
		return nil, dbErr("list documents", err)
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, dbErr("list documents", err)
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list documents", err)
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// UpdateSize replaces the declared size of a document.
func (r *DocumentPostgres) UpdateSize(ctx context.Context, id string, size int64) error {
	const q = `UPDATE documents SET size = $2 WHERE id = $1`
	return r.execOne(ctx, "update size", q, id, size)
}

// SetDeleted flips the soft-delete flag.
func (r *DocumentPostgres) SetDeleted(ctx context.Context, id string, deleted bool) error {
	const q = `UPDATE documents SET is_deleted = $2 WHERE id = $1`
	return r.execOne(ctx, "set deleted", q, id, deleted)
}

func (r *DocumentPostgres) execOne(ctx context.Context, op, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return dbErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	return nil
}

// HardDelete removes versions, shares and the document row in one transaction.
// The returned keys are deduplicated and include the document key.
func (r *DocumentPostgres) HardDelete(ctx context.Context, id string, pendingOnly bool) (keys []string, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbErr("hard delete", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			keys, err = nil, dbErr("hard delete commit", e)
		}
	}()

	var (
		docKey  string
		current *string
	)
	const sel = `SELECT storage_key, current_version_id FROM documents WHERE id = $1 FOR UPDATE`
	if err = tx.QueryRowContext(ctx, sel, id).Scan(&docKey, &current); err != nil {
		return nil, dbErr("lock document", err)
	}
	if pendingOnly && current != nil {
		return nil, fmt.Errorf("hard delete: %w: document has a committed version", errs.ErrConflict)
	}

	rows, err := tx.QueryContext(ctx, `DELETE FROM document_versions WHERE document_id = $1 RETURNING storage_key`, id)
	if err != nil {
		return nil, dbErr("delete versions", err)
	}
	var versionKeys []string
	for rows.Next() {
		var k string
		if err = rows.Scan(&k); err != nil {
			rows.Close()
			return nil, dbErr("delete versions", err)
		}
		versionKeys = append(versionKeys, k)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, dbErr("delete versions", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM shares WHERE document_id = $1`, id); err != nil {
		return nil, dbErr("delete shares", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return nil, dbErr("delete document", err)
	}

	seen := make(map[string]struct{}, len(versionKeys)+1)
	for _, k := range append([]string{docKey}, versionKeys...) {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// ListStalePending returns documents that never received a committed version.
func (r *DocumentPostgres) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Document, error) {
	q := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE current_version_id IS NULL AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, createdBefore, limit)
	if err != nil {
		return nil, dbErr("list stale pending", err)
	}
	defer rows.Close()

	out := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, dbErr("list stale pending", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("list stale pending", err)
	}
	return out, nil
}
