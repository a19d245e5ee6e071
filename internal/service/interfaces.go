package service

import (
	"context"
	"errors"

	"github.com/pageza/nutrilog/backend/internal/models"
)

var (
	// ErrSessionNotFound is returned for unknown or closed sessions
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidToken is returned when a session token cannot be verified
	ErrInvalidToken = errors.New("invalid session token")
)

// ICompletionService turns a meal description into nutrient text
type ICompletionService interface {
	// Nutrients never fails; failures are encoded in the returned text
	Nutrients(ctx context.Context, input string) string
}

// IMealStore is the document store holding meal records
type IMealStore interface {
	Add(ctx context.Context, input, gptResponse string) (*models.MealRecord, error)
	// Delete is idempotent; a missing id is not an error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]models.MealView, error)
	// Subscribe delivers the current snapshot and every later one until unsubscribe is called
	Subscribe(onChange func([]models.MealView), onError func(error)) (unsubscribe func())
	Close() error
}

// IExporter pushes records to the export webhook
type IExporter interface {
	ExportAll(ctx context.Context, records []models.MealView) (int, error)
}

// IArchiver keeps a copy of every exported payload
type IArchiver interface {
	Archive(ctx context.Context, id string, payload models.ExportPayload) error
}
