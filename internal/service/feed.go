package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/pageza/nutrilog/backend/internal/models"
)

// MealsChannel is the postgres notification channel announcing meal changes
const MealsChannel = "meals_changed"

type subscriber struct {
	onChange func([]models.MealView)
	onError  func(error)
}

// Hub fans meal snapshots out to registered listeners
type Hub struct {
	mu   sync.RWMutex
	subs map[uint64]*subscriber
	next uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// Register adds a listener and returns its id
func (h *Hub) Register(onChange func([]models.MealView), onError func(error)) uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.subs[h.next] = &subscriber{onChange: onChange, onError: onError}
	return h.next
}

// Unregister removes a listener; unknown ids are ignored
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Len returns the number of listeners
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) snapshot() []*subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	return subs
}

// Broadcast delivers views to every listener. Each listener gets its own copy.
func (h *Hub) Broadcast(views []models.MealView) {
	for _, s := range h.snapshot() {
		if s.onChange == nil {
			continue
		}
		cp := make([]models.MealView, len(views))
		copy(cp, views)
		s.onChange(cp)
	}
}

// BroadcastError delivers err to every listener
func (h *Hub) BroadcastError(err error) {
	for _, s := range h.snapshot() {
		if s.onError != nil {
			s.onError(err)
		}
	}
}

// Notifier announces that the meal collection changed
type Notifier interface {
	Notify(ctx context.Context) error
	Changes() <-chan struct{}
	Close() error
}

// LocalNotifier delivers change signals inside one process
type LocalNotifier struct {
	ch   chan struct{}
	once sync.Once
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{ch: make(chan struct{}, 1)}
}

// Notify never blocks; pending signals are coalesced
func (n *LocalNotifier) Notify(ctx context.Context) error {
	select {
	case n.ch <- struct{}{}:
	default:
	}
	return nil
}

func (n *LocalNotifier) Changes() <-chan struct{} {
	return n.ch
}

func (n *LocalNotifier) Close() error {
	n.once.Do(func() { close(n.ch) })
	return nil
}

// PGNotifier shares change signals between processes through LISTEN/NOTIFY
type PGNotifier struct {
	db       *gorm.DB
	listener *pq.Listener
	out      chan struct{}
	quit     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewPGNotifier listens on MealsChannel using its own connection to dsn
func NewPGNotifier(db *gorm.DB, dsn string) (*PGNotifier, error) {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("[PGNotifier] listener event %d: %v", ev, err)
		}
	})
	if err := listener.Listen(MealsChannel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", MealsChannel, err)
	}

	n := &PGNotifier{
		db:       db,
		listener: listener,
		out:      make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go n.run()
	return n, nil
}

func (n *PGNotifier) run() {
	defer close(n.done)
	defer close(n.out)
	for {
		select {
		case <-n.quit:
			return
		// A nil notification follows a reconnect; changes may have been missed, so signal anyway
		case _, ok := <-n.listener.Notify:
			if !ok {
				return
			}
			select {
			case n.out <- struct{}{}:
			default:
			}
		case <-time.After(90 * time.Second):
			go n.listener.Ping()
		}
	}
}

func (n *PGNotifier) Notify(ctx context.Context) error {
	if err := n.db.WithContext(ctx).Exec("SELECT pg_notify(?, '')", MealsChannel).Error; err != nil {
		return fmt.Errorf("failed to notify %s: %w", MealsChannel, err)
	}
	return nil
}

func (n *PGNotifier) Changes() <-chan struct{} {
	return n.out
}

func (n *PGNotifier) Close() error {
	var err error
	n.once.Do(func() {
		close(n.quit)
		<-n.done
		err = n.listener.Close()
	})
	return err
}
