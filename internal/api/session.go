package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrilog/backend/internal/middleware"
	"github.com/pageza/nutrilog/backend/internal/types"
)

type SessionHandler struct {
	sessions SessionRegistry
}

func NewSessionHandler(sessions SessionRegistry) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sessions", h.CreateSession)

	session := router.Group("/session")
	session.Use(middleware.SessionMiddleware(h.sessions))
	{
		session.GET("", h.GetSession)
		session.PUT("/input", h.SetInput)
		session.DELETE("", h.CloseSession)
	}
}

// CreateSession opens a session and returns its token
func (h *SessionHandler) CreateSession(c *gin.Context) {
	sess, token, err := h.sessions.Create()
	if err != nil {
		log.Printf("[SessionHandler] failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, CreateSessionResponse{
		Token:     token,
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt.Unix(),
		State:     sess.Controller.State(),
	})
}

// GetSession returns the state and any pending alerts
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, actionResponse(sess.Controller))
}

func (h *SessionHandler) SetInput(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	var req types.SetInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess.Controller.SetInput(req.Input)
	c.JSON(http.StatusOK, actionResponse(sess.Controller))
}

func (h *SessionHandler) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.GetString(middleware.SessionIDKey)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "session expired or closed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}
