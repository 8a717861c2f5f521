package ws

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnknownConnection is returned when joining a connection that is not registered.
var ErrUnknownConnection = errors.New("unknown connection")

// Hub owns the live connection registry and room membership. Membership is a
// derived index over registered clients: rooms appear on first join and vanish
// with their last member.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[*Client]struct{}),
	}
}

// Register adds a client to the registry.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID()] = c
}

// Unregister removes a client and all of its room memberships. It reports false
// when the connection is not registered.
func (h *Hub) Unregister(connID string) (*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return nil, false
	}
	delete(h.clients, connID)
	for room := range c.rooms {
		h.removeLocked(c, room)
	}
	return c, true
}

// Join adds c to room. Joining twice is a no-op; added reports whether membership changed.
// A client that is no longer registered cannot join.
func (h *Hub) Join(c *Client, room string) (added bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.ID()] != c {
		return false, ErrUnknownConnection
	}
	if _, ok := c.rooms[room]; ok {
		return false, nil
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return true, nil
}

// Leave removes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, room)
}

func (h *Hub) removeLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Client looks up a registered connection.
func (h *Hub) Client(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	return c, ok
}

// Members returns a snapshot of the clients in room.
func (h *Hub) Members(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	return members
}

// ClientsInRoom counts live members of room.
func (h *Hub) ClientsInRoom(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// CountInTenant counts registered connections classified under tenantID, in any room or none.
func (h *Hub) CountInTenant(tenantID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.info.TenantID == tenantID {
			n++
		}
	}
	return n
}

// Len is the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomsOf lists the rooms a connection belongs to, sorted.
func (h *Hub) RoomsOf(connID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// Broadcast queues payload for every member of room and reports per-recipient results.
func (h *Hub) Broadcast(room string, payload []byte) (sent, failed int) {
	for _, c := range h.Members(room) {
		if c.enqueue(payload) {
			sent++
		} else {
			failed++
		}
	}
	return sent, failed
}
