package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"briefcase/internal/model"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Me(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListOthers(ctx context.Context, id int64) ([]model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}
