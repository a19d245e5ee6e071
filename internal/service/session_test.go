package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrilog/backend/internal/mocks"
	"github.com/pageza/nutrilog/backend/internal/types"
)

func setupSessionManager(t *testing.T) (*SessionManager, *mocks.MemoryMealStore, *time.Time) {
	t.Helper()
	store := mocks.NewMemoryMealStore()
	m := NewSessionManager("test-secret", time.Hour, func() *Controller {
		return NewController(nil, store, nil)
	})
	now := time.Now()
	m.now = func() time.Time { return now }
	t.Cleanup(m.CloseAll)
	return m, store, &now
}

func TestSessionManager_CreateAndValidate(t *testing.T) {
	m, store, _ := setupSessionManager(t)

	sess, token, err := m.Create()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 1, store.Subscribers())

	id, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestSessionManager_ValidateToken(t *testing.T) {
	m, _, now := setupSessionManager(t)
	_, token, err := m.Create()
	require.NoError(t, err)

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		other := NewSessionManager("other-secret", time.Hour, nil)
		_, err := other.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("should reject garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("should reject a token without session id", func(t *testing.T) {
		claims := &types.SessionClaims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))}}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = m.ValidateToken(signed)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		*now = now.Add(2 * time.Hour)
		_, err := m.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestSessionManager_Close(t *testing.T) {
	m, store, _ := setupSessionManager(t)
	sess, _, err := m.Create()
	require.NoError(t, err)

	require.NoError(t, m.Close(sess.ID))
	assert.Zero(t, m.Len())
	assert.Zero(t, store.Subscribers())

	_, err = m.Get(sess.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.True(t, errors.Is(m.Close(sess.ID), ErrSessionNotFound))
}

func TestSessionManager_Expiry(t *testing.T) {
	m, store, now := setupSessionManager(t)
	first, _, err := m.Create()
	require.NoError(t, err)

	*now = now.Add(30 * time.Minute)
	second, _, err := m.Create()
	require.NoError(t, err)

	*now = now.Add(45 * time.Minute)
	_, err = m.Get(first.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
	assert.Equal(t, 1, store.Subscribers())

	*now = now.Add(time.Hour)
	assert.Equal(t, 1, m.Sweep())
	assert.Zero(t, m.Len())
	assert.Zero(t, store.Subscribers())

	_, err = m.Get(second.ID)
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}

func TestSessionManager_CloseAll(t *testing.T) {
	m, store, _ := setupSessionManager(t)
	for i := 0; i < 3; i++ {
		_, _, err := m.Create()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Subscribers())

	m.CloseAll()
	assert.Zero(t, m.Len())
	assert.Zero(t, store.Subscribers())
}
