package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SessionIDKey is the gin context key holding the authenticated session id
const SessionIDKey = "session_id"

// SessionValidator validates session tokens
type SessionValidator interface {
	ValidateToken(token string) (string, error)
}

// SessionMiddleware creates a middleware that validates session tokens.
// Browsers cannot set headers on WebSocket upgrades, so a token query parameter is accepted too.
func SessionMiddleware(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
				c.Abort()
				return
			}
			token = parts[1]
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		sessionID, err := validator.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			c.Abort()
			return
		}

		c.Set(SessionIDKey, sessionID)
		c.Next()
	}
}
