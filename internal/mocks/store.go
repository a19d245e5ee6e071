package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// MemoryMealStore is an in-memory meal store that delivers snapshots synchronously
type MemoryMealStore struct {
	mu      sync.Mutex
	records []models.MealRecord
	subs    map[int]subscription
	nextSub int
	nextID  int

	// AddErr and DeleteErr make the matching operation fail when set
	AddErr    error
	DeleteErr map[string]error
	Deleted   []string
	Now       func() time.Time
}

type subscription struct {
	onChange func([]models.MealView)
	onError  func(error)
}

func NewMemoryMealStore() *MemoryMealStore {
	return &MemoryMealStore{
		subs:      make(map[int]subscription),
		DeleteErr: make(map[string]error),
		Now:       func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

// Seed adds one record per input and returns their ids
func (s *MemoryMealStore) Seed(inputs ...string) []string {
	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		rec, _ := s.Add(context.Background(), in, "seeded")
		ids = append(ids, rec.ID)
	}
	return ids
}

func (s *MemoryMealStore) Add(ctx context.Context, input, gptResponse string) (*models.MealRecord, error) {
	s.mu.Lock()
	if s.AddErr != nil {
		err := s.AddErr
		s.mu.Unlock()
		return nil, err
	}
	s.nextID++
	ts := s.Now()
	rec := models.MealRecord{ID: fmt.Sprintf("meal-%d", s.nextID), Input: input, GPTResponse: gptResponse, Timestamp: &ts}
	s.records = append(s.records, rec)
	s.mu.Unlock()

	s.publish()
	return &rec, nil
}

func (s *MemoryMealStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if err := s.DeleteErr[id]; err != nil {
		s.mu.Unlock()
		return err
	}
	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.Deleted = append(s.Deleted, id)
	s.mu.Unlock()

	s.publish()
	return nil
}

func (s *MemoryMealStore) List(ctx context.Context) ([]models.MealView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Views(s.records, time.UTC), nil
}

// Records returns a copy of the stored records
func (s *MemoryMealStore) Records() []models.MealRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MealRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *MemoryMealStore) Subscribe(onChange func([]models.MealView), onError func(error)) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = subscription{onChange: onChange, onError: onError}
	views := models.Views(s.records, time.UTC)
	s.mu.Unlock()

	if onChange != nil {
		onChange(views)
	}
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Subscribers returns the number of live subscriptions
func (s *MemoryMealStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// FailSubscribers sends err to every subscriber's error callback
func (s *MemoryMealStore) FailSubscribers(err error) {
	s.mu.Lock()
	subs := make([]subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.onError != nil {
			sub.onError(err)
		}
	}
}

func (s *MemoryMealStore) Close() error {
	return nil
}

func (s *MemoryMealStore) publish() {
	s.mu.Lock()
	views := models.Views(s.records, time.UTC)
	subs := make([]subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if sub.onChange != nil {
			sub.onChange(views)
		}
	}
}
