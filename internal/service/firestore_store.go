package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// MealsCollection is the Firestore collection holding meal records
const MealsCollection = "meals"

// FirestoreMealStore keeps meal records in a Firestore collection
type FirestoreMealStore struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
	loc    *time.Location
}

// NewFirestoreMealStore connects to projectID. FIRESTORE_EMULATOR_HOST is honoured by the client.
func NewFirestoreMealStore(ctx context.Context, projectID string, loc *time.Location) (*FirestoreMealStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &FirestoreMealStore{
		client: client,
		coll:   client.Collection(MealsCollection),
		loc:    loc,
	}, nil
}

// Add creates a document; the timestamp is assigned by the Firestore server
func (s *FirestoreMealStore) Add(ctx context.Context, input, gptResponse string) (*models.MealRecord, error) {
	ref, _, err := s.coll.Add(ctx, map[string]interface{}{
		"input":       input,
		"gptResponse": gptResponse,
		"timestamp":   firestore.ServerTimestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	return &models.MealRecord{ID: ref.ID, Input: input, GPTResponse: gptResponse}, nil
}

// Delete removes the document with id. Deleting a missing document succeeds.
func (s *FirestoreMealStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	return nil
}

// List returns the collection in document order
func (s *FirestoreMealStore) List(ctx context.Context) ([]models.MealView, error) {
	docs, err := s.coll.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return s.views(docs)
}

func (s *FirestoreMealStore) views(docs []*firestore.DocumentSnapshot) ([]models.MealView, error) {
	views := make([]models.MealView, 0, len(docs))
	for _, doc := range docs {
		var rec models.MealRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode meal %s: %w", doc.Ref.ID, err)
		}
		rec.ID = doc.Ref.ID
		views = append(views, rec.View(s.loc))
	}
	return views, nil
}

// Subscribe runs a snapshot listener until unsubscribe is called or the listener fails.
// Stop must not race Next, so the listener goroutine owns the iterator.
func (s *FirestoreMealStore) Subscribe(onChange func([]models.MealView), onError func(error)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	it := s.coll.Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if errors.Is(err, iterator.Done) || ctx.Err() != nil || status.Code(err) == codes.Canceled {
					return
				}
				log.Printf("[FirestoreMealStore] listener failed: %v", err)
				if onError != nil {
					onError(err)
				}
				return
			}
			docs, err := snap.Documents.GetAll()
			if err == nil {
				var views []models.MealView
				if views, err = s.views(docs); err == nil {
					if onChange != nil {
						onChange(views)
					}
					continue
				}
			}
			if onError != nil {
				onError(err)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
		})
	}
}

func (s *FirestoreMealStore) Close() error {
	return s.client.Close()
}
