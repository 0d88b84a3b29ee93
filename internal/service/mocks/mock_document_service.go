package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"briefcase/internal/model"
	"briefcase/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, identity int64) (*model.Inbox, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Inbox), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, identity, id int64) (*service.Download, error) {
	args := m.Called(ctx, identity, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Download), args.Error(1)
}
