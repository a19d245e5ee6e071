package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrilog/backend/internal/middleware"
	"github.com/pageza/nutrilog/backend/internal/service"
)

// SessionRegistry opens, finds and closes sessions
type SessionRegistry interface {
	Create() (*service.Session, string, error)
	Get(id string) (*service.Session, error)
	Close(id string) error
	ValidateToken(token string) (string, error)
}

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Nutrilog API is running",
		"version": "v1.0.0",
	})
}

// RegisterRoutes registers all API routes. limiter may be nil when Redis is unavailable.
func RegisterRoutes(router *gin.Engine, sessions SessionRegistry, limiter *middleware.RateLimiter) {
	router.GET("/health", HealthCheck)
	router.GET("/api/health", HealthCheck)

	v1 := router.Group("/api/v1")
	NewSessionHandler(sessions).RegisterRoutes(v1)
	NewMealHandler(sessions, limiter).RegisterRoutes(v1)
	NewStreamHandler(sessions).RegisterRoutes(v1)

	if limiter != nil {
		RegisterRateLimitRoutes(v1, sessions, limiter)
	}
}

// RegisterRateLimitRoutes registers endpoints for checking rate limit status
func RegisterRateLimitRoutes(router *gin.RouterGroup, sessions SessionRegistry, limiter *middleware.RateLimiter) {
	rateLimits := router.Group("/rate-limits")
	rateLimits.Use(middleware.SessionMiddleware(sessions))
	rateLimits.GET("/meal-creation", func(c *gin.Context) {
		remaining, resetTime, err := limiter.GetRemainingRequests(c.Request.Context(), c.GetString(middleware.SessionIDKey))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check rate limit"})
			return
		}

		cfg := limiter.Config()
		c.JSON(http.StatusOK, gin.H{
			"limit":      cfg.Limit,
			"remaining":  remaining,
			"reset_time": resetTime.Unix(),
			"window":     cfg.Window.String(),
		})
	})
}

// currentSession resolves the session set by the session middleware and writes 401 when it is gone
func currentSession(c *gin.Context, sessions SessionRegistry) (*service.Session, bool) {
	sess, err := sessions.Get(c.GetString(middleware.SessionIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired or closed"})
		return nil, false
	}
	return sess, true
}
