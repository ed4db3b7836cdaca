package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Code buffers ride in these
	// messages, so the limit is generous.
	maxMessageSize = 512 * 1024
)

// Inbound event names.
const (
	EventJoin           = "join"
	EventLeave          = "leave"
	EventCodeChange     = "codeChange"
	EventTyping         = "typing"
	EventLanguageChange = "languageChange"
)

// ClientEnvelope is the inbound wire format. Fields are populated per event:
// join carries roomId and userName, codeChange carries code, languageChange
// carries language; leave and typing have no payload.
type ClientEnvelope struct {
	Event    string `json:"event"`
	RoomID   string `json:"roomId,omitempty"`
	UserName string `json:"userName,omitempty"`
	Code     string `json:"code,omitempty"`
	Language string `json:"language,omitempty"`
}

// SessionHandler is the registry surface the client dispatches inbound
// events to.
type SessionHandler interface {
	Join(ctx context.Context, connID, roomID, displayName string) error
	Leave(ctx context.Context, connID string) error
	Disconnect(ctx context.Context, connID string) error
	ChangeCode(ctx context.Context, connID, code string) error
	ChangeLanguage(ctx context.Context, connID, language string) error
	TypingPing(ctx context.Context, connID string) error
}

// Client is one live WebSocket connection. The read pump decodes inbound
// envelopes and drives the session registry; the write pump drains the send
// channel the hub fans broadcasts into.
type Client struct {
	hub     *Hub
	session SessionHandler
	conn    *websocket.Conn
	connID  string

	// roomID is owned by the hub's Run goroutine.
	roomID string

	send      chan []byte
	closeOnce sync.Once
}

// NewClient creates a client for an upgraded connection.
func NewClient(hub *Hub, session SessionHandler, conn *websocket.Conn, connID string) *Client {
	return &Client{
		hub:     hub,
		session: session,
		conn:    conn,
		connID:  connID,
		send:    make(chan []byte, 256),
	}
}

// ConnID returns the connection's opaque identifier.
func (c *Client) ConnID() string { return c.connID }

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// readPump pumps inbound messages from the connection into the session
// registry. The socket closing is the participant's terminal signal: the
// deferred disconnect runs the same idempotent leave path as an explicit
// leave event.
func (c *Client) readPump() {
	logCtx := logrus.WithField("conn_id", c.connID)
	defer func() {
		if err := c.session.Disconnect(context.Background(), c.connID); err != nil {
			logCtx.WithError(err).Warn("Disconnect cleanup failed")
		}
		c.hub.Detach(c)
		c.conn.Close()
		logCtx.Info("Read pump exited, client disconnected")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var env ClientEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			logCtx.WithError(err).Warn("Malformed client envelope")
			c.sendError("malformed message")
			continue
		}
		c.dispatch(env, logCtx)
	}
}

func (c *Client) dispatch(env ClientEnvelope, logCtx *logrus.Entry) {
	ctx := context.Background()
	switch env.Event {
	case EventJoin:
		if env.RoomID == "" || env.UserName == "" {
			c.sendError("roomId and userName are required")
			return
		}
		// Subscribe before the registry join so the membership broadcast
		// reaches the joining participant too.
		c.hub.Subscribe(c, env.RoomID)
		if err := c.session.Join(ctx, c.connID, env.RoomID, env.UserName); err != nil {
			c.hub.Unsubscribe(c)
			c.sendError(err.Error())
		}
	case EventLeave:
		if err := c.session.Leave(ctx, c.connID); err != nil {
			c.sendError(err.Error())
			return
		}
		c.hub.Unsubscribe(c)
	case EventCodeChange:
		if err := c.session.ChangeCode(ctx, c.connID, env.Code); err != nil {
			c.sendError(err.Error())
		}
	case EventTyping:
		if err := c.session.TypingPing(ctx, c.connID); err != nil {
			c.sendError(err.Error())
		}
	case EventLanguageChange:
		if err := c.session.ChangeLanguage(ctx, c.connID, env.Language); err != nil {
			c.sendError(err.Error())
		}
	default:
		logCtx.WithField("event", env.Event).Warn("Unknown client event")
		c.sendError("unknown event")
	}
}

// sendError queues an error envelope for this client only.
func (c *Client) sendError(msg string) {
	data, err := json.Marshal(Envelope{Event: "error", Data: msg})
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

// writePump pumps messages from the send channel to the connection and
// keeps the connection alive with periodic pings.
func (c *Client) writePump() {
	logCtx := logrus.WithField("conn_id", c.connID)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("Write pump exited")
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logCtx.WithError(err).Warn("Failed to write message to websocket")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
