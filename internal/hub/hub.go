package hub

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Envelope is the outbound wire format: one named event with its payload.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// message is the unit of work flowing through the hub's event loop.
type message struct {
	kind    string // "subscribe", "unsubscribe", "detach", "broadcast"
	client  *Client
	roomID  string
	payload []byte
	exclude string
}

// Hub is the broadcast dispatcher. A single goroutine drains messageChan,
// which gives every room FIFO delivery: events submitted while holding a
// room's critical section reach all current subscribers in submission order.
// Delivery is decoupled from the persistence path entirely.
type Hub struct {
	messageChan chan message

	// rooms maps roomID -> connectionID -> client. Touched only by the
	// Run goroutine.
	rooms map[string]map[string]*Client

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a Hub. Call Run in its own goroutine before use.
func NewHub() *Hub {
	return &Hub{
		messageChan: make(chan message, 512),
		rooms:       make(map[string]map[string]*Client),
		done:        make(chan struct{}),
	}
}

// Run is the hub's event loop. It exits when Stop is called.
func (h *Hub) Run() {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running")
	for {
		select {
		case msg := <-h.messageChan:
			switch msg.kind {
			case "subscribe":
				h.subscribe(msg.client, msg.roomID)
			case "unsubscribe":
				h.unsubscribe(msg.client, false)
			case "detach":
				h.unsubscribe(msg.client, true)
			case "broadcast":
				h.fanOut(msg.roomID, msg.payload, msg.exclude)
			}
		case <-h.done:
			log.Info("Hub is shutting down")
			return
		}
	}
}

// Stop terminates the event loop.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Subscribe moves a client into a room's subscriber set, leaving any
// previous room first. Ordering against subsequent broadcasts is preserved
// because both travel through the same channel.
func (h *Hub) Subscribe(c *Client, roomID string) {
	h.submit(message{kind: "subscribe", client: c, roomID: roomID})
}

// Unsubscribe removes a client from its room but keeps the connection
// usable, so it may join another room later.
func (h *Hub) Unsubscribe(c *Client) {
	h.submit(message{kind: "unsubscribe", client: c})
}

// Detach removes a client permanently and closes its send channel. Called
// when the underlying connection is gone.
func (h *Hub) Detach(c *Client) {
	h.submit(message{kind: "detach", client: c})
}

// Broadcast delivers a named event to a room's subscribers. excludeConnID,
// when non-empty, skips that connection (anti-echo). An unknown room is a
// logged no-op: the caller may have raced with a concurrent full leave.
// The payload is serialized at submission time so broadcasts capture the
// state as it was inside the caller's critical section.
func (h *Hub) Broadcast(roomID, event string, payload interface{}, excludeConnID string) {
	data, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		logrus.WithFields(logrus.Fields{"room_id": roomID, "event": event}).
			WithError(err).Error("Failed to marshal broadcast envelope")
		return
	}
	h.submit(message{kind: "broadcast", roomID: roomID, payload: data, exclude: excludeConnID})
}

func (h *Hub) submit(msg message) {
	select {
	case h.messageChan <- msg:
	case <-h.done:
	}
}

// --- Run-goroutine internals ---

func (h *Hub) subscribe(c *Client, roomID string) {
	if c == nil {
		return
	}
	if c.roomID != "" {
		h.removeFromRoom(c)
	}
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][c.connID] = c
	c.roomID = roomID
	logrus.WithFields(logrus.Fields{"conn_id": c.connID, "room_id": roomID}).Debug("Client subscribed")
}

func (h *Hub) unsubscribe(c *Client, detach bool) {
	if c == nil {
		return
	}
	h.removeFromRoom(c)
	if detach {
		c.closeSend()
		logrus.WithField("conn_id", c.connID).Debug("Client detached from hub")
	}
}

func (h *Hub) removeFromRoom(c *Client) {
	if c.roomID == "" {
		return
	}
	if subscribers, ok := h.rooms[c.roomID]; ok {
		delete(subscribers, c.connID)
		if len(subscribers) == 0 {
			delete(h.rooms, c.roomID)
		}
	}
	c.roomID = ""
}

func (h *Hub) fanOut(roomID string, payload []byte, exclude string) {
	subscribers, ok := h.rooms[roomID]
	if !ok {
		logrus.WithField("room_id", roomID).Debug("Broadcast to unknown room dropped")
		return
	}
	for connID, c := range subscribers {
		if connID == exclude {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// A slow client never blocks the room; its write pump or the
			// keepalive will tear the connection down.
			logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": connID}).
				Warn("Client send channel full during broadcast, message dropped")
		}
	}
}
