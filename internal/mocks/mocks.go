package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// MockCompletionService is a mock implementation of the completion service
type MockCompletionService struct {
	mock.Mock
}

func (m *MockCompletionService) Nutrients(ctx context.Context, input string) string {
	args := m.Called(ctx, input)
	return args.String(0)
}

// MockExporter is a mock implementation of the export service
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportAll(ctx context.Context, records []models.MealView) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

// MockArchiver is a mock implementation of the export archive
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, id string, payload models.ExportPayload) error {
	args := m.Called(ctx, id, payload)
	return args.Error(0)
}
