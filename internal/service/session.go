package service

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pageza/nutrilog/backend/internal/types"
)

// Session is one client's view of the meal log
type Session struct {
	ID         string
	Controller *Controller
	ExpiresAt  time.Time
}

// SessionManager creates sessions, signs their tokens and releases them
type SessionManager struct {
	jwtSecret []byte
	ttl       time.Duration
	factory   func() *Controller
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager; factory builds a fresh controller per session
func NewSessionManager(jwtSecret string, ttl time.Duration, factory func() *Controller) *SessionManager {
	return &SessionManager{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		factory:   factory,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a session and returns it with its signed token
func (m *SessionManager) Create() (*Session, string, error) {
	now := m.now()
	sess := &Session{
		ID:         uuid.New().String(),
		Controller: m.factory(),
		ExpiresAt:  now.Add(m.ttl),
	}

	claims := &types.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		SessionID: sess.ID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	sess.Controller.Start()

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	log.Printf("[SessionManager] session %s created", sess.ID)
	return sess, token, nil
}

// ValidateToken returns the session id carried by tokenString
func (m *SessionManager) ValidateToken(tokenString string) (string, error) {
	claims := &types.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.jwtSecret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}
	return claims.SessionID, nil
}

// Get returns a live session
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok && !m.now().Before(sess.ExpiresAt) {
		delete(m.sessions, id)
		m.mu.Unlock()
		sess.Controller.Close()
		return nil, ErrSessionNotFound
	}
	m.mu.Unlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Close ends a session and releases its subscription
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Controller.Close()
	log.Printf("[SessionManager] session %s closed", id)
	return nil
}

// Sweep closes expired sessions and reports how many were closed
func (m *SessionManager) Sweep() int {
	now := m.now()
	var expired []*Session

	m.mu.Lock()
	for id, sess := range m.sessions {
		if !now.Before(sess.ExpiresAt) {
			expired = append(expired, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range expired {
		sess.Controller.Close()
	}
	return len(expired)
}

// CloseAll ends every session
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Controller.Close()
	}
}

// Len returns the number of open sessions
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
