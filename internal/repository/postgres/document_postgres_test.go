package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docvault/internal/errs"
	"docvault/internal/model"
	"docvault/internal/repository"
)

var docCols = []string{
	"id", "owner_id", "folder_id", "name", "mime_type", "size", "storage_key", "checksum",
	"is_deleted", "current_version_id", "created_at", "updated_at",
}

var versionCols = []string{"id", "document_id", "version_number", "storage_key", "size", "comment", "created_at"}

func docRow(id, owner string, currentVersion any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(docCols).
		AddRow(id, owner, nil, "report.pdf", "application/pdf", int64(1024), "users/"+owner+"/"+id, nil,
			false, currentVersion, now, now)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	doc := &model.Document{
		ID:         "d1",
		OwnerID:    "u1",
		Name:       "report.pdf",
		MimeType:   "application/pdf",
		Size:       1024,
		StorageKey: "users/u1/d1",
	}

	mock.ExpectQuery("INSERT INTO documents").
		WithArgs(doc.ID, doc.OwnerID, nil, doc.Name, doc.MimeType, doc.Size, doc.StorageKey).
		WillReturnRows(docRow("d1", "u1", nil))

	got, err := repo.Create(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)
	assert.True(t, got.Pending())
	assert.Nil(t, got.FolderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_Create_DuplicateKey(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("INSERT INTO documents").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &model.Document{ID: "d1", OwnerID: "u1"})
	assert.ErrorIs(t, err, errs.ErrConflict)
	assert.ErrorIs(t, err, errs.ErrPersistence)
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
			WithArgs("d1").
			WillReturnRows(docRow("d1", "u1", "v1"))

		doc, err := repo.FindByID(ctx, "d1")
		require.NoError(t, err)
		require.NotNil(t, doc.CurrentVersionID)
		assert.Equal(t, "v1", *doc.CurrentVersionID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		doc, err := repo.FindByID(ctx, "missing")
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.Nil(t, doc)
	})

	t.Run("driver error", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM documents WHERE id =").
			WithArgs("d1").
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByID(ctx, "d1")
		assert.ErrorIs(t, err, errs.ErrPersistence)
		assert.NotErrorIs(t, err, errs.ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM documents WHERE owner_id").
		WithArgs("u1", false).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT (.+) FROM documents WHERE owner_id (.+) ORDER BY updated_at DESC").
		WithArgs("u1", false, 10, 0).
		WillReturnRows(docRow("d1", "u1", "v1"))

	res, err := repo.List(context.Background(), "u1", repository.ListQuery{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SetDeleted(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE documents SET is_deleted").
		WithArgs("d1", true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.SetDeleted(ctx, "d1", true))

	mock.ExpectExec("UPDATE documents SET is_deleted").
		WithArgs("missing", false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetDeleted(ctx, "missing", false), errs.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_UpdateSize(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)

	mock.ExpectExec("UPDATE documents SET size").
		WithArgs("d1", int64(2048)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.UpdateSize(context.Background(), "d1", 2048))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_HardDelete(t *testing.T) {
	lockCols := []string{"storage_key", "current_version_id"}

	t.Run("returns distinct keys", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT storage_key, current_version_id FROM documents WHERE id (.+) FOR UPDATE").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows(lockCols).AddRow("users/u1/d1", "v2"))
		mock.ExpectQuery("DELETE FROM document_versions WHERE document_id").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).
				AddRow("users/u1/d1/v1").
				AddRow("users/u1/d1/v2").
				AddRow("users/u1/d1"))
		mock.ExpectExec("DELETE FROM shares WHERE document_id").
			WithArgs("d1").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM documents WHERE id").
			WithArgs("d1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		keys, err := repo.HardDelete(context.Background(), "d1", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"users/u1/d1", "users/u1/d1/v1", "users/u1/d1/v2"}, keys)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing document rolls back", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT storage_key, current_version_id FROM documents").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(lockCols))
		mock.ExpectRollback()

		keys, err := repo.HardDelete(context.Background(), "missing", false)
		assert.ErrorIs(t, err, errs.ErrNotFound)
		assert.Nil(t, keys)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending only skips committed document", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT storage_key, current_version_id FROM documents").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows(lockCols).AddRow("users/u1/d1", "v1"))
		mock.ExpectRollback()

		_, err := repo.HardDelete(context.Background(), "d1", true)
		assert.ErrorIs(t, err, errs.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("pending only deletes pending document", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewDocumentPostgres(db)

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT storage_key, current_version_id FROM documents").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows(lockCols).AddRow("users/u1/d1", nil))
		mock.ExpectQuery("DELETE FROM document_versions").
			WithArgs("d1").
			WillReturnRows(sqlmock.NewRows([]string{"storage_key"}))
		mock.ExpectExec("DELETE FROM shares").
			WithArgs("d1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM documents").
			WithArgs("d1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		keys, err := repo.HardDelete(context.Background(), "d1", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"users/u1/d1"}, keys)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDocumentPostgres_ListStalePending(t *testing.T) {
	db, mock := newMock(t)
	repo := NewDocumentPostgres(db)
	cutoff := time.Now().Add(-time.Hour)

	mock.ExpectQuery("SELECT (.+) FROM documents WHERE current_version_id IS NULL").
		WithArgs(cutoff, 50).
		WillReturnRows(docRow("d1", "u1", nil))

	docs, err := repo.ListStalePending(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.True(t, docs[0].Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}
