package ws

import (
	"hash/fnv"
	"sync"

	"classpulse/internal/metrics"
)

const roomShards = 16

// Hub is the in-memory room table. Room membership is sharded by room id so
// broadcasts to unrelated classes never contend on one lock. Nothing here is
// durable: the table is rebuilt as clients reconnect after a restart.
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*Client]struct{}

	shards [roomShards]roomShard
}

type roomShard struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	h := &Hub{clients: make(map[*Client]struct{})}
	for i := range h.shards {
		h.shards[i].rooms = make(map[string]map[*Client]struct{})
	}
	return h
}

func (h *Hub) shard(room string) *roomShard {
	f := fnv.New32a()
	_, _ = f.Write([]byte(room))
	return &h.shards[f.Sum32()%roomShards]
}

func (h *Hub) Register(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = struct{}{}
	h.clientsMu.Unlock()
	metrics.ActiveConnections.Inc()
}

// Unregister removes the client from every room it joined and from the
// connection table, then releases its send channel.
func (h *Hub) Unregister(c *Client) {
	for _, room := range c.roomSnapshot() {
		h.Leave(c, room)
	}
	h.clientsMu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.clientsMu.Unlock()
	if present {
		metrics.ActiveConnections.Dec()
		c.shutdown()
	}
}

// Join is idempotent.
func (h *Hub) Join(c *Client, room string) {
	s := h.shard(room)
	s.mu.Lock()
	if s.rooms[room] == nil {
		s.rooms[room] = make(map[*Client]struct{})
	}
	s.rooms[room][c] = struct{}{}
	s.mu.Unlock()
	c.trackRoom(room)
}

func (h *Hub) Leave(c *Client, room string) {
	s := h.shard(room)
	s.mu.Lock()
	members := s.rooms[room]
	if members != nil {
		delete(members, c)
		if len(members) == 0 {
			delete(s.rooms, room)
		}
	}
	s.mu.Unlock()
	c.untrackRoom(room)
}

// Broadcast delivers the event to every current member of the room.
// Best-effort: an empty room is a silent no-op and slow clients are dropped,
// never waited on. Membership is snapshotted before sending so concurrent
// join/leave is safe.
func (h *Hub) Broadcast(room, event string, data any) {
	s := h.shard(room)
	s.mu.RLock()
	members := make([]*Client, 0, len(s.rooms[room]))
	for c := range s.rooms[room] {
		members = append(members, c)
	}
	s.mu.RUnlock()

	metrics.EventsBroadcast.WithLabelValues(event).Inc()
	ev := Event{Name: event, Data: data}
	for _, c := range members {
		c.enqueue(ev)
	}
}

// BroadcastAll reaches every open connection regardless of rooms. Used for
// presence updates, which are public to all connected clients.
func (h *Hub) BroadcastAll(event string, data any) {
	h.clientsMu.RLock()
	members := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		members = append(members, c)
	}
	h.clientsMu.RUnlock()

	metrics.EventsBroadcast.WithLabelValues(event).Inc()
	ev := Event{Name: event, Data: data}
	for _, c := range members {
		c.enqueue(ev)
	}
}

func (h *Hub) RoomSize(room string) int {
	s := h.shard(room)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms[room])
}
