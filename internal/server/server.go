package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrilog/backend/config"
	"github.com/pageza/nutrilog/backend/internal/api"
	"github.com/pageza/nutrilog/backend/internal/middleware"
	"github.com/pageza/nutrilog/backend/internal/service"
)

const sweepInterval = time.Minute

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	http     *http.Server
	sessions *service.SessionManager
	store    service.IMealStore

	quit chan struct{}
	once sync.Once
}

// New creates a server with all routes registered. limiter may be nil.
func New(cfg *config.Config, sessions *service.SessionManager, store service.IMealStore, limiter *middleware.RateLimiter) *Server {
	router := gin.Default()
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.ErrorHandler())

	api.RegisterRoutes(router, sessions, limiter)

	return &Server{
		router:   router,
		sessions: sessions,
		store:    store,
		http: &http.Server{
			Addr:    cfg.Addr(),
			Handler: router,
		},
		quit: make(chan struct{}),
	}
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	go s.sweep()

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweep closes expired sessions so their subscriptions are released
func (s *Server) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			if n := s.sessions.Sweep(); n > 0 {
				log.Printf("Closed %d expired sessions", n)
			}
		}
	}
}

// Shutdown stops the HTTP server, closes every session and then the store
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		err = s.http.Shutdown(ctx)
		s.sessions.CloseAll()
		if cerr := s.store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	})
	return err
}
