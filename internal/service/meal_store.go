package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// GormMealStore keeps meal records in a SQL database and serves live snapshots
type GormMealStore struct {
	db       *gorm.DB
	notifier Notifier
	hub      *Hub
	loc      *time.Location
	now      func() time.Time

	refresh chan struct{}
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewGormMealStore creates a store on db. A nil notifier means a LocalNotifier.
func NewGormMealStore(db *gorm.DB, notifier Notifier, loc *time.Location) *GormMealStore {
	if notifier == nil {
		notifier = NewLocalNotifier()
	}
	if loc == nil {
		loc = time.Local
	}
	s := &GormMealStore{
		db:       db,
		notifier: notifier,
		hub:      NewHub(),
		loc:      loc,
		now:      func() time.Time { return time.Now().UTC() },
		refresh:  make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.run()
	return s
}

// Add creates a record with a store-assigned id and timestamp
func (s *GormMealStore) Add(ctx context.Context, input, gptResponse string) (*models.MealRecord, error) {
	ts := s.now()
	meal := &models.MealRecord{
		ID:          models.NewMealID(),
		Input:       input,
		GPTResponse: gptResponse,
		Timestamp:   &ts,
	}
	if err := s.db.WithContext(ctx).Create(meal).Error; err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	s.announce(ctx)
	return meal, nil
}

// Delete removes the record with id. Deleting a missing record succeeds.
func (s *GormMealStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.MealRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete meal: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.announce(ctx)
	}
	return nil
}

// List returns every record in display form, oldest first
func (s *GormMealStore) List(ctx context.Context) ([]models.MealView, error) {
	var meals []models.MealRecord
	if err := s.db.WithContext(ctx).Order(clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Name: "timestamp"}},
		{Column: clause.Column{Name: "id"}},
	}}).Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return models.Views(meals, s.loc), nil
}

// Subscribe registers a live listener. The current snapshot is delivered asynchronously.
func (s *GormMealStore) Subscribe(onChange func([]models.MealView), onError func(error)) func() {
	id := s.hub.Register(onChange, onError)
	s.requestRefresh()

	var once sync.Once
	return func() {
		once.Do(func() { s.hub.Unregister(id) })
	}
}

// Close stops the feed and the notifier
func (s *GormMealStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		<-s.done
		err = s.notifier.Close()
	})
	return err
}

func (s *GormMealStore) announce(ctx context.Context) {
	if err := s.notifier.Notify(ctx); err != nil {
		log.Printf("[MealStore] change notification failed: %v", err)
		// still refresh local listeners
		s.requestRefresh()
	}
}

func (s *GormMealStore) requestRefresh() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// run serializes snapshot delivery so listeners observe snapshots in order
func (s *GormMealStore) run() {
	defer close(s.done)
	changes := s.notifier.Changes()
	for {
		select {
		case <-s.quit:
			return
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			s.publish()
		case <-s.refresh:
			s.publish()
		}
	}
}

func (s *GormMealStore) publish() {
	if s.hub.Len() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	views, err := s.List(ctx)
	if err != nil {
		log.Printf("[MealStore] snapshot failed: %v", err)
		s.hub.BroadcastError(err)
		return
	}
	s.hub.Broadcast(views)
}
