package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"classpulse/internal/metrics"
)

// Client is one authenticated websocket connection. A user may hold several
// at once; presence reference-counting lives in the presence tracker, not
// here.
type Client struct {
	ID     string
	UserID string
	Name   string
	Role   string

	conn *websocket.Conn
	send chan Event

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

func newClient(conn *websocket.Conn, userID, name, role string, buffer int) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		Role:   role,
		conn:   conn,
		send:   make(chan Event, buffer),
		rooms:  make(map[string]struct{}),
	}
}

// enqueue never blocks a broadcast; a client that cannot keep up loses the
// event and catches up over the REST fallback.
func (c *Client) enqueue(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- ev:
	default:
		metrics.EventsDropped.Inc()
	}
}

func (c *Client) trackRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = struct{}{}
}

func (c *Client) untrackRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

func (c *Client) roomSnapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (c *Client) inRoom(room string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[room]
	return ok
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump owns all writes to the socket: queued events plus pings.
func (c *Client) writePump(pingInterval, writeTimeout time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Debug("ws write failed",
					zap.String("connection_id", c.ID),
					zap.String("user_id", c.UserID),
					zap.Error(err),
				)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
