package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrilog/backend/config"
	"github.com/pageza/nutrilog/backend/internal/mocks"
	"github.com/pageza/nutrilog/backend/internal/service"
)

func setupServer(t *testing.T) (*Server, *service.SessionManager, *mocks.MemoryMealStore) {
	t.Helper()
	cfg := &config.Config{
		ServerHost: "127.0.0.1",
		ServerPort: "0",
		JWTSecret:  "test-secret",
	}
	store := mocks.NewMemoryMealStore()
	sessions := service.NewSessionManager(cfg.JWTSecret, time.Hour, func() *service.Controller {
		return service.NewController(new(mocks.MockCompletionService), store, new(mocks.MockExporter))
	})
	return New(cfg, sessions, store, nil), sessions, store
}

func TestNew(t *testing.T) {
	srv, _, _ := setupServer(t)
	require.NotNil(t, srv)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartAndShutdown(t *testing.T) {
	srv, sessions, store := setupServer(t)
	_, _, err := sessions.Create()
	require.NoError(t, err)
	require.Equal(t, 1, store.Subscribers())

	errChan := make(chan error, 1)
	go func() { errChan <- srv.Start() }()

	// give ListenAndServe a moment to bind
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Zero(t, sessions.Len())
	assert.Zero(t, store.Subscribers())
}
