package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collaborative-codepad/internal/hub"
)

// WebSocketHandler upgrades HTTP connections and hands them to the hub.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	session  hub.SessionHandler
}

// NewWebSocketHandler creates a WebSocketHandler.
func NewWebSocketHandler(h *hub.Hub, session hub.SessionHandler) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if session == nil {
		panic("SessionHandler cannot be nil for WebSocketHandler")
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict to the configured CORS origin in production.
			return true
		},
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h, session: session}
}

// HandleConnection upgrades the request and starts the client pumps. Room
// membership is established later by an inbound join event, not by the URL.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logrus.WithError(err).Error("Failed to upgrade connection")
		return
	}

	connID := uuid.NewString()
	client := hub.NewClient(h.hub, h.session, conn, connID)
	client.Run()
	logrus.WithField("conn_id", connID).Info("Connection upgraded to WebSocket")
}
