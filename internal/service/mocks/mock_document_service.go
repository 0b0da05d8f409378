package mocks

import (
	"context"
	"io"

	"docvault/internal/model"
	"docvault/internal/service"
	"docvault/internal/storage"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

var _ service.DocumentService = (*MockDocumentService)(nil)

func (m *MockDocumentService) BeginUpload(ctx context.Context, ownerID string, in service.BeginUploadInput) (*model.UploadTicket, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadTicket), args.Error(1)
}

func (m *MockDocumentService) BeginVersionUpload(ctx context.Context, ownerID, documentID string, size int64) (*model.UploadTicket, error) {
	args := m.Called(ctx, ownerID, documentID, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadTicket), args.Error(1)
}

func (m *MockDocumentService) CompleteUpload(ctx context.Context, ownerID, documentID string, in service.CompleteUploadInput) (*model.DocumentVersion, error) {
	args := m.Called(ctx, ownerID, documentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentService) IssueReadURL(ctx context.Context, storageKey string) (*service.ReadURL, error) {
	args := m.Called(ctx, storageKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReadURL), args.Error(1)
}

func (m *MockDocumentService) DownloadURL(ctx context.Context, ownerID, documentID string, version int) (*service.ReadURL, error) {
	args := m.Called(ctx, ownerID, documentID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReadURL), args.Error(1)
}

func (m *MockDocumentService) OpenContent(ctx context.Context, ownerID, documentID string, version int) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, ownerID, documentID, version)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockDocumentService) Get(ctx context.Context, ownerID, documentID string) (*model.Document, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, ownerID string, in service.ListInput) (*service.DocumentListResult, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) ListVersions(ctx context.Context, ownerID, documentID string) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentService) SetDeleted(ctx context.Context, ownerID, documentID string, deleted bool) error {
	args := m.Called(ctx, ownerID, documentID, deleted)
	return args.Error(0)
}

func (m *MockDocumentService) HardDelete(ctx context.Context, ownerID, documentID string) error {
	args := m.Called(ctx, ownerID, documentID)
	return args.Error(0)
}
