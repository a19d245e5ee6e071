package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pageza/nutrilog/backend/internal/middleware"
)

const (
	streamWriteWait    = 10 * time.Second
	streamPingInterval = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // CORS already restricts browser origins
}

// StreamHandler pushes session state over a WebSocket after every change
type StreamHandler struct {
	sessions SessionRegistry
}

func NewStreamHandler(sessions SessionRegistry) *StreamHandler {
	return &StreamHandler{sessions: sessions}
}

func (h *StreamHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/meals/stream", middleware.SessionMiddleware(h.sessions), h.Stream)
}

func (h *StreamHandler) Stream(c *gin.Context) {
	sess, ok := currentSession(c, h.sessions)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[StreamHandler] upgrade failed: %v", err)
		return
	}

	changed := make(chan struct{}, 1)
	changed <- struct{}{}
	cancel := sess.Controller.Watch(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go h.writeLoop(conn, sess.ID, changed, done)

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	cancel()
	close(done)
}

// writeLoop is the only writer on conn
func (h *StreamHandler) writeLoop(conn *websocket.Conn, sessionID string, changed <-chan struct{}, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case <-changed:
			sess, err := h.sessions.Get(sessionID)
			if err != nil {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(streamWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(actionResponse(sess.Controller)); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
