package mocks

import (
	"context"
	"time"

	"docvault/internal/model"
	"docvault/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockDocumentRepository struct {
	mock.Mock
}

var _ repository.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if fn, ok := args.Get(0).(func(context.Context, *model.Document) *model.Document); ok {
		return fn(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, ownerID string, q repository.ListQuery) (*repository.PageResult[model.Document], error) {
	args := m.Called(ctx, ownerID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Document]), args.Error(1)
}

func (m *MockDocumentRepository) UpdateSize(ctx context.Context, id string, size int64) error {
	args := m.Called(ctx, id, size)
	return args.Error(0)
}

func (m *MockDocumentRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	args := m.Called(ctx, id, deleted)
	return args.Error(0)
}

// CommitVersion records the call and, when the expectation returns a version without error,
// invokes stage with that version number so staging side effects can be asserted.
// An optional third return value supplies the locked document handed to stage.
func (m *MockDocumentRepository) CommitVersion(ctx context.Context, c repository.VersionCommit, stage repository.StageFunc) (*model.DocumentVersion, error) {
	args := m.Called(ctx, c, stage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	v := args.Get(0).(*model.DocumentVersion)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	if stage != nil {
		doc := &model.Document{ID: c.DocumentID, OwnerID: c.OwnerID}
		if len(args) > 2 {
			doc = args.Get(2).(*model.Document)
		}
		key, err := stage(ctx, doc, v.VersionNumber)
		if err != nil {
			return nil, err
		}
		out := *v
		out.StorageKey = key
		return &out, nil
	}
	return v, nil
}

func (m *MockDocumentRepository) FindVersion(ctx context.Context, documentID string, n int) (*model.DocumentVersion, error) {
	args := m.Called(ctx, documentID, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) FindVersionByID(ctx context.Context, id string) (*model.DocumentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) ListVersions(ctx context.Context, documentID string) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) HardDelete(ctx context.Context, id string, pendingOnly bool) ([]string, error) {
	args := m.Called(ctx, id, pendingOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDocumentRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Document, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}
