package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"informeclaro/internal/model"
)

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Preview(ctx context.Context, filename string, r io.Reader) (*model.PreviewResult, error) {
	args := m.Called(ctx, filename, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PreviewResult), args.Error(1)
}

func (m *MockReportService) Confirm(ctx context.Context, req model.ConfirmRequest) (*model.CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CompletionResult), args.Error(1)
}

func (m *MockReportService) ArtifactPath(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockReportService) DiscardPreview(sessionID string) {
	m.Called(sessionID)
}

func (m *MockReportService) List(ctx context.Context, limit, offset int) (*model.ReportPage, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ReportPage), args.Error(1)
}

func (m *MockReportService) Get(ctx context.Context, id string) (*model.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Report), args.Error(1)
}

func (m *MockReportService) ArchiveURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
