package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"informeclaro/internal/model"
	"informeclaro/internal/repository"
)

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) Create(ctx context.Context, r *model.Report) (*model.Report, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) FindByID(ctx context.Context, id string) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Report], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Report]), args.Error(1)
}
