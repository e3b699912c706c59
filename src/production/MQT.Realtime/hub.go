package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logger "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Logger"
	metrics "gitlab.com/maplesense1/aqm.aquarium_server/src/production/MQT.Metrics"
)

// Message types
const (
	TypeEvent = "event"
	TypeHello = "hello"
	TypeError = "error"
)

const (
	sendBuffer = 64
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is the envelope of everything pushed to the browser
type Message struct {
	Type  string      `json:"type"`
	Event string      `json:"event,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	TS    string      `json:"ts"`
}

func encode(typ, event string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{
		Type:  typ,
		Event: event,
		Data:  data,
		TS:    time.Now().Format(time.RFC3339),
	})
}

// Client is one websocket connection
type Client struct {
	ID   string
	Conn *websocket.Conn

	hub    *Hub
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// Publish queues an event for this client only. Messages for a full or closed
// client are dropped.
func (c *Client) Publish(event string, data interface{}) {
	b, err := encode(TypeEvent, event, data)
	if err != nil {
		c.hub.logger.WithError(err).WithField("event", event).Warn("failed to encode event")
		return
	}
	c.enqueue(b)
}

// Error sends an error message to this client
func (c *Client) Error(msg string) {
	if b, err := encode(TypeError, "", msg); err == nil {
		c.enqueue(b)
	}
}

func (c *Client) enqueue(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// WritePump writes queued messages and keepalive pings until the client is
// unregistered or a write fails
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// PrepareRead sets the read limits and pong handling used by readers of Conn
func (c *Client) PrepareRead() {
	c.Conn.SetReadLimit(64 * 1024)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// Hub fans events out to every connected client
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  log.WithComponent("realtime_hub"),
	}
}

// Register adds a connection and greets it with its session id
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		hub:  h,
		send: make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	metrics.AddWSSessions(1)

	if b, err := encode(TypeHello, "", map[string]string{"session_id": c.ID}); err == nil {
		c.enqueue(b)
	}
	return c
}

// Unregister removes the client and closes its send queue. Idempotent.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		metrics.AddWSSessions(-1)
		c.close()
	}
}

// Len returns the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts an event to every client. Slow clients whose queue is full
// are disconnected.
func (h *Hub) Publish(event string, data interface{}) {
	b, err := encode(TypeEvent, event, data)
	if err != nil {
		h.logger.WithError(err).WithField("event", event).Warn("failed to encode event")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		if !c.enqueue(b) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.WithSession(c.ID).Warn("dropping slow websocket client")
		h.Unregister(c)
	}
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()
	for c := range clients {
		metrics.AddWSSessions(-1)
		c.close()
	}
}
