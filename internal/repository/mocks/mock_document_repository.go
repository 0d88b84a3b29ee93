package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"briefcase/internal/model"
	"briefcase/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

// Transition hands the document returned by the expectation to fn, so tests exercise
// the real callback against a fixture row.
func (m *MockDocumentRepository) Transition(ctx context.Context, id int64, fn repository.TransitionFunc) (*model.Document, error) {
	args := m.Called(ctx, id, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	doc := args.Get(0).(*model.Document)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return doc, fn(doc)
}

func (m *MockDocumentRepository) SoftDeleteStale(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) ListActiveFor(ctx context.Context, identity int64) ([]model.DocumentView, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentView), args.Error(1)
}
