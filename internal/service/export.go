package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// ExportService sends meal records to the spreadsheet webhook, one at a time
type ExportService struct {
	webhookURL   string
	client       *http.Client
	store        IMealStore
	archiver     IArchiver
	strictStatus bool
}

// NewExportService creates an exporter. archiver may be nil.
func NewExportService(webhookURL string, client *http.Client, store IMealStore, archiver IArchiver, strictStatus bool) *ExportService {
	if client == nil {
		client = http.DefaultClient
	}
	return &ExportService{
		webhookURL:   webhookURL,
		client:       client,
		store:        store,
		archiver:     archiver,
		strictStatus: strictStatus,
	}
}

// ExportAll posts each record in order and deletes it once the webhook call returns.
// It stops at the first failure and reports how many records were exported before it.
// Cancelling ctx does not interrupt the loop; a record the webhook received is always deleted.
func (s *ExportService) ExportAll(ctx context.Context, records []models.MealView) (int, error) {
	ctx = context.WithoutCancel(ctx)
	for i, rec := range records {
		payload := rec.Payload()
		if err := s.send(ctx, payload); err != nil {
			return i, err
		}

		if s.archiver != nil {
			if err := s.archiver.Archive(ctx, rec.ID, payload); err != nil {
				log.Printf("[ExportService] failed to archive meal %s: %v", rec.ID, err)
			}
		}

		if err := s.store.Delete(ctx, rec.ID); err != nil {
			return i, fmt.Errorf("failed to delete exported meal %s: %w", rec.ID, err)
		}
	}
	log.Printf("[ExportService] exported %d meals", len(records))
	return len(records), nil
}

func (s *ExportService) send(ctx context.Context, payload models.ExportPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send record: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if s.strictStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}
