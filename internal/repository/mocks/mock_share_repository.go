package mocks

import (
	"context"

	"docvault/internal/model"
	"docvault/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockShareRepository struct {
	mock.Mock
}

var _ repository.ShareRepository = (*MockShareRepository)(nil)

func (m *MockShareRepository) Create(ctx context.Context, s *model.Share) (*model.Share, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockShareRepository) ListByDocument(ctx context.Context, documentID string) ([]model.Share, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Share), args.Error(1)
}

func (m *MockShareRepository) FindByToken(ctx context.Context, token string) (*model.Share, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}
