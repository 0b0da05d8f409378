package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockShareService struct {
	mock.Mock
}

var _ service.ShareService = (*MockShareService)(nil)

func (m *MockShareService) CreateShare(ctx context.Context, ownerID, documentID string, in service.ShareInput) (*model.Share, error) {
	args := m.Called(ctx, ownerID, documentID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockShareService) ListShares(ctx context.Context, ownerID, documentID string) ([]model.Share, error) {
	args := m.Called(ctx, ownerID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Share), args.Error(1)
}

func (m *MockShareService) ResolveShare(ctx context.Context, token string) (*service.ReadURL, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReadURL), args.Error(1)
}
